package finance

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dumeirei/resort-fleet-backend/internal/common/errors"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// 导出格式
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// 导出文件类型
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// 工作表名称
const (
	sheetMonthly  = "Monthly"
	sheetResorts  = "By Resort"
	sheetCategory = "By Category"
)

var monthlyHeaders = []string{
	"Month", "Gross Revenue", "Net Revenue", "DKU Share", "Resort Share",
	"Expenses", "Maintenance", "Net Profit", "Profit Margin (%)", "Records",
}

// ExportFile 导出结果
type ExportFile struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExportService 报表导出服务
type ExportService struct {
	stats *StatisticsService
	now   func() time.Time
}

// NewExportService 创建报表导出服务
func NewExportService(stats *StatisticsService) *ExportService {
	return &ExportService{stats: stats, now: time.Now}
}

// ExportMonthly 导出月度财务报表，format 为 csv 或 xlsx
func (s *ExportService) ExportMonthly(ctx context.Context, q *PeriodQuery, format string) (*ExportFile, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatXLSX {
		return nil, errors.ErrUnsupportedFormat
	}

	months, err := s.stats.MonthlyTrend(ctx, q)
	if err != nil {
		return nil, err
	}

	stamp := s.now().Format("20060102150405")
	if format == ExportFormatCSV {
		data, err := monthlyCSV(months)
		if err != nil {
			return nil, errors.ErrExportFailed.WithError(err)
		}
		return &ExportFile{
			Data:        data,
			Filename:    fmt.Sprintf("monthly_finance_%s.csv", stamp),
			ContentType: ContentTypeCSV,
		}, nil
	}

	resorts, err := s.stats.RevenueByResort(ctx, q)
	if err != nil {
		return nil, err
	}
	categories, err := s.stats.RevenueByCategory(ctx, q)
	if err != nil {
		return nil, err
	}
	data, err := monthlyWorkbook(months, resorts, categories)
	if err != nil {
		return nil, errors.ErrExportFailed.WithError(err)
	}
	return &ExportFile{
		Data:        data,
		Filename:    fmt.Sprintf("monthly_finance_%s.xlsx", stamp),
		ContentType: ContentTypeXLSX,
	}, nil
}

// monthlyRow 月度汇总行，金额保留两位小数
func monthlyRow(m *models.MonthlyFinance) []string {
	return []string{
		m.Label,
		money(m.GrossRevenue),
		money(m.TotalRevenue),
		money(m.TotalDkuShare),
		money(m.TotalResortShare),
		money(m.TotalExpenses),
		money(m.MaintenanceCost),
		money(m.NetProfit),
		money(m.ProfitMargin),
		strconv.Itoa(m.RecordCount),
	}
}

func money(v float64) string {
	return strconv.FormatFloat(RoundMoney(v), 'f', 2, 64)
}

// monthlyCSV 生成 CSV
func monthlyCSV(months []models.MonthlyFinance) ([]byte, error) {
	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 直接打开
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(buf)
	if err := writer.Write(monthlyHeaders); err != nil {
		return nil, err
	}
	for i := range months {
		if err := writer.Write(monthlyRow(&months[i])); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// monthlyWorkbook 生成包含月度、度假村、类别三个工作表的 XLSX
func monthlyWorkbook(
	months []models.MonthlyFinance,
	resorts []models.ResortRevenue,
	categories []models.CategoryRevenue,
) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetMonthly); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetResorts, sheetCategory} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	monthly := make([][]interface{}, 0, len(months))
	for i := range months {
		m := &months[i]
		monthly = append(monthly, []interface{}{
			m.Label, RoundMoney(m.GrossRevenue), RoundMoney(m.TotalRevenue), RoundMoney(m.TotalDkuShare),
			RoundMoney(m.TotalResortShare), RoundMoney(m.TotalExpenses), RoundMoney(m.MaintenanceCost),
			RoundMoney(m.NetProfit), RoundMoney(m.ProfitMargin), m.RecordCount,
		})
	}
	if err := writeSheet(f, sheetMonthly, headerStyle, monthlyHeaders, monthly); err != nil {
		return nil, err
	}

	resortRows := make([][]interface{}, 0, len(resorts))
	for i := range resorts {
		r := &resorts[i]
		resortRows = append(resortRows, []interface{}{
			r.ResortName, RoundMoney(r.TotalRevenue), RoundMoney(r.TotalDkuShare), RoundMoney(r.TotalResortShare),
			RoundMoney(r.Percentage), r.RecordCount, r.UnconfiguredCount,
		})
	}
	resortHeaders := []string{"Resort", "Net Revenue", "DKU Share", "Resort Share", "Share (%)", "Records", "Unconfigured"}
	if err := writeSheet(f, sheetResorts, headerStyle, resortHeaders, resortRows); err != nil {
		return nil, err
	}

	categoryRows := make([][]interface{}, 0, len(categories))
	for i := range categories {
		c := &categories[i]
		categoryRows = append(categoryRows, []interface{}{
			c.Label, RoundMoney(c.TotalRevenue), RoundMoney(c.TotalDkuShare), RoundMoney(c.TotalResortShare),
			RoundMoney(c.Percentage), c.RecordCount, c.UnconfiguredCount,
		})
	}
	categoryHeaders := []string{"Category", "Net Revenue", "DKU Share", "Resort Share", "Share (%)", "Records", "Unconfigured"}
	if err := writeSheet(f, sheetCategory, headerStyle, categoryHeaders, categoryRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeSheet 写入表头与数据行
func writeSheet(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]interface{}) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}
