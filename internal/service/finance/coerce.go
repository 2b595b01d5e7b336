package finance

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// CoerceAmount 将宽松类型的数值转换为有限浮点数，无法识别的输入一律视为 0
func CoerceAmount(v interface{}) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		return parseAmount(string(x))
	case string:
		return parseAmount(x)
	case *float64:
		if x == nil {
			return 0
		}
		return finite(*x)
	case *string:
		if x == nil {
			return 0
		}
		return parseAmount(*x)
	case decimal.Decimal:
		return finite(x.InexactFloat64())
	default:
		return 0
	}
}

// parseAmount 解析字符串金额，允许千分位逗号
func parseAmount(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return finite(d.InexactFloat64())
}

// RoundMoney 四舍五入到两位小数
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(finite(v)).Round(2).InexactFloat64()
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// percentage part / whole * 100，分母为 0 时返回 0
func percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return finite(part / whole * 100)
}

// average 分母为 0 时返回 0
func average(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return finite(total / float64(count))
}
