package finance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dumeirei/resort-fleet-backend/internal/common/errors"
	"github.com/dumeirei/resort-fleet-backend/internal/common/logger"
	"github.com/dumeirei/resort-fleet-backend/internal/common/metrics"
	"github.com/dumeirei/resort-fleet-backend/internal/common/utils"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
	"github.com/dumeirei/resort-fleet-backend/internal/repository"
)

// MaxImportRows 单次导入行数上限
const MaxImportRows = 5000

// CacheInvalidator 数据变更后清除报表缓存
type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// RevenueImportRow 导入的一行收入数据，金额字段允许数字或字符串
type RevenueImportRow struct {
	ResortID      int64       `json:"resort_id"`
	ResortCode    string      `json:"resort_code"`
	AssetCategory string      `json:"asset_category"`
	Date          string      `json:"date"`
	Amount        interface{} `json:"amount"`
	Discount      interface{} `json:"discount"`
	TaxService    interface{} `json:"tax_service"`
	Notes         string      `json:"notes"`

	invalidResortID string // CSV 中无法解析的 resort_id 原文
}

// ImportRejection 被拒绝的行
type ImportRejection struct {
	Row    int    `json:"row"` // 从 1 开始
	Reason string `json:"reason"`
}

// ImportResult 导入结果
type ImportResult struct {
	Total    int               `json:"total"`
	Imported int               `json:"imported"`
	Rejected []ImportRejection `json:"rejected"`
}

// RevenueImportService 收入批量导入服务
type RevenueImportService struct {
	loader      *RecordLoader
	revenueRepo *repository.RevenueRepository
	invalidator CacheInvalidator
	metrics     *metrics.Metrics
	log         *zap.Logger
}

// NewRevenueImportService 创建收入导入服务
func NewRevenueImportService(
	loader *RecordLoader,
	revenueRepo *repository.RevenueRepository,
	invalidator CacheInvalidator,
) *RevenueImportService {
	return &RevenueImportService{
		loader:      loader,
		revenueRepo: revenueRepo,
		invalidator: invalidator,
		metrics:     metrics.GetMetrics(),
		log:         logger.Named("revenue-import"),
	}
}

// Import 校验并写入收入数据
//
// 金额在此处统一转换为数值，无法识别的值按 0 处理；度假村、类别、日期不合法的行被拒绝，
// 其余行在同一事务中写入。
func (s *RevenueImportService) Import(ctx context.Context, rows []RevenueImportRow, operatorID int64) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, errors.ErrImportEmpty
	}
	if len(rows) > MaxImportRows {
		return nil, errors.ErrImportFailed.WithMessage(fmt.Sprintf("单次最多导入 %d 行", MaxImportRows))
	}

	resorts, err := s.loader.Resorts(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Resort, len(resorts))
	byCode := make(map[string]*models.Resort, len(resorts))
	for i := range resorts {
		byID[resorts[i].ID] = &resorts[i]
		byCode[strings.ToUpper(resorts[i].Code)] = &resorts[i]
	}

	result := &ImportResult{Total: len(rows), Rejected: []ImportRejection{}}
	records := make([]models.RevenueRecord, 0, len(rows))
	for i := range rows {
		rec, reason := s.convert(&rows[i], byID, byCode)
		if reason != "" {
			result.Rejected = append(result.Rejected, ImportRejection{Row: i + 1, Reason: reason})
			s.log.Debug("收入导入行被拒绝",
				zap.Int("row", i+1),
				logger.Category(rows[i].AssetCategory),
				zap.String("reason", reason),
			)
			continue
		}
		if operatorID > 0 {
			rec.CreatedBy = utils.Ptr(operatorID)
		}
		records = append(records, *rec)
	}

	s.metrics.RecordRevenueImport("rejected", len(result.Rejected))
	if len(records) == 0 {
		return result, nil
	}

	if err := s.revenueRepo.CreateBatch(ctx, records); err != nil {
		s.log.Error("收入导入写入失败", zap.Int("rows", len(records)), zap.Error(err))
		return nil, errors.ErrImportFailed.WithError(err)
	}
	result.Imported = len(records)
	s.metrics.RecordRevenueImport("imported", result.Imported)
	s.log.Info("收入导入完成",
		logger.StaffID(operatorID),
		zap.Int("imported", result.Imported),
		zap.Int("rejected", len(result.Rejected)),
	)

	if s.invalidator != nil {
		if _, err := s.invalidator.Invalidate(ctx); err != nil {
			s.log.Warn("导入后清除缓存失败", zap.Error(err))
		}
	}
	return result, nil
}

// convert 校验并转换一行，失败时返回原因
func (s *RevenueImportService) convert(
	row *RevenueImportRow,
	byID map[int64]*models.Resort,
	byCode map[string]*models.Resort,
) (*models.RevenueRecord, string) {
	var resort *models.Resort
	switch {
	case row.invalidResortID != "":
		return nil, fmt.Sprintf("度假村编号无效: %s", row.invalidResortID)
	case row.ResortID > 0:
		resort = byID[row.ResortID]
	case row.ResortCode != "":
		resort = byCode[strings.ToUpper(strings.TrimSpace(row.ResortCode))]
	default:
		return nil, "缺少度假村"
	}
	if resort == nil {
		return nil, errors.ErrResortNotFound.Message
	}

	category := models.AssetCategory(strings.ToUpper(strings.TrimSpace(row.AssetCategory)))
	if !category.Valid() {
		return nil, fmt.Sprintf("%s: %s", errors.ErrInvalidCategory.Message, row.AssetCategory)
	}

	date, err := models.ParseDate(strings.TrimSpace(row.Date))
	if err != nil {
		return nil, fmt.Sprintf("日期格式错误: %s", row.Date)
	}

	rec := &models.RevenueRecord{
		ResortID:      resort.ID,
		AssetCategory: category,
		Date:          date,
		Amount:        CoerceAmount(row.Amount),
		Discount:      CoerceAmount(row.Discount),
		TaxService:    CoerceAmount(row.TaxService),
	}
	if notes := strings.TrimSpace(row.Notes); notes != "" {
		rec.Notes = utils.Ptr(notes)
	}
	return rec, ""
}

// importColumns CSV 支持的列名
var importColumns = []string{"resort_id", "resort_code", "asset_category", "date", "amount", "discount", "tax_service", "notes"}

// ParseRevenueCSV 解析 CSV 导入文件，首行为列名，列顺序不限
func ParseRevenueCSV(r io.Reader) ([]RevenueImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.ErrImportEmpty
	}
	if err != nil {
		return nil, errors.ErrImportFailed.WithError(err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		index[name] = i
	}
	if _, ok := index["asset_category"]; !ok {
		return nil, errors.ErrImportFailed.WithMessage("缺少 asset_category 列")
	}
	if _, ok := index["date"]; !ok {
		return nil, errors.ErrImportFailed.WithMessage("缺少 date 列")
	}

	var rows []RevenueImportRow
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ErrImportFailed.WithError(err)
		}

		values := make(map[string]string, len(importColumns))
		for _, col := range importColumns {
			if i, ok := index[col]; ok && i < len(fields) {
				values[col] = strings.TrimSpace(fields[i])
			}
		}
		if strings.Join(fields, "") == "" {
			continue
		}

		row := RevenueImportRow{
			ResortCode:    values["resort_code"],
			AssetCategory: values["asset_category"],
			Date:          values["date"],
			Amount:        values["amount"],
			Discount:      values["discount"],
			TaxService:    values["tax_service"],
			Notes:         values["notes"],
		}
		if v := values["resort_id"]; v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				row.invalidResortID = v
			} else {
				row.ResortID = id
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, errors.ErrImportEmpty
	}
	return rows, nil
}
