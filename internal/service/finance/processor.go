package finance

import (
	"go.uber.org/zap"

	"github.com/dumeirei/resort-fleet-backend/internal/common/logger"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// Resolver 分成配置解析接口
type Resolver interface {
	Resolve(rec *models.RevenueRecord) *models.ProfitSharingConfig
}

// RevenueProcessor 逐条计算净收入与 DKU 分成
type RevenueProcessor struct {
	resolver Resolver
	log      *zap.Logger
}

// NewRevenueProcessor 创建收入处理器
func NewRevenueProcessor(resolver Resolver) *RevenueProcessor {
	return &RevenueProcessor{
		resolver: resolver,
		log:      logger.Named("revenue-processor"),
	}
}

// Process 处理一批记录，输出与输入等长且顺序一致
func (p *RevenueProcessor) Process(records []models.RevenueRecord) []models.ProcessedRevenue {
	out := make([]models.ProcessedRevenue, len(records))
	for i := range records {
		out[i] = p.processOne(&records[i])
	}
	return out
}

func (p *RevenueProcessor) processOne(rec *models.RevenueRecord) (result models.ProcessedRevenue) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("收入记录处理失败，使用原始金额",
				logger.RecordID(rec.ID),
				logger.ResortID(rec.ResortID),
				zap.Any("panic", r),
			)
			result = fallbackRecord(rec)
		}
	}()

	amount := finite(rec.Amount)
	discount := finite(rec.Discount)
	taxService := finite(rec.TaxService)
	netAmount := amount - discount - taxService

	result = models.ProcessedRevenue{
		RecordID:      rec.ID,
		ResortID:      rec.ResortID,
		AssetCategory: rec.AssetCategory,
		Date:          rec.Date,
		Amount:        amount,
		Discount:      discount,
		TaxService:    taxService,
		NetAmount:     netAmount,
	}

	cfg := p.resolver.Resolve(rec)
	if cfg != nil {
		id := cfg.ID
		result.HasConfig = true
		result.ConfigID = &id
		result.DkuPercentage = finite(cfg.DkuPercentage)
	}

	result.DkuShare = finite(netAmount * result.DkuPercentage / 100)
	result.ResortShare = netAmount - result.DkuShare
	return result
}

// fallbackRecord 出错时的兜底结果：原始金额作为净收入，无分成
func fallbackRecord(rec *models.RevenueRecord) models.ProcessedRevenue {
	amount := finite(rec.Amount)
	return models.ProcessedRevenue{
		RecordID:      rec.ID,
		ResortID:      rec.ResortID,
		AssetCategory: rec.AssetCategory,
		Date:          rec.Date,
		Amount:        amount,
		NetAmount:     amount,
		ResortShare:   amount,
	}
}
