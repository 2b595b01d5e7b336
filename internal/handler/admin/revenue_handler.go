package admin

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/resort-fleet-backend/internal/common/errors"
	"github.com/dumeirei/resort-fleet-backend/internal/common/handler"
	"github.com/dumeirei/resort-fleet-backend/internal/middleware"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
	financeService "github.com/dumeirei/resort-fleet-backend/internal/service/finance"
)

// MaxImportBodySize 导入请求体上限
const MaxImportBodySize = 4 << 20

// RevenueHandler 收入记录处理器
type RevenueHandler struct {
	statisticsService *financeService.StatisticsService
	importService     *financeService.RevenueImportService
}

// NewRevenueHandler 创建收入记录处理器
func NewRevenueHandler(
	statisticsSvc *financeService.StatisticsService,
	importSvc *financeService.RevenueImportService,
) *RevenueHandler {
	return &RevenueHandler{
		statisticsService: statisticsSvc,
		importService:     importSvc,
	}
}

// RevenueImportRequest JSON 导入请求
type RevenueImportRequest struct {
	Rows []financeService.RevenueImportRow `json:"rows" binding:"required"`
}

// ListRecords 收入记录列表（含分成计算结果）
// @Summary 收入记录列表
// @Tags 管理-收入
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param category query string false "资产类别"
// @Param months query int false "最近月数" default(6)
// @Param resort_id query int false "度假村ID"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.ProcessedRevenue}}
// @Router /api/v1/admin/revenue/records [get]
func (h *RevenueHandler) ListRecords(c *gin.Context) {
	q, ok := bindPeriodQuery(c)
	if !ok {
		return
	}

	var category models.AssetCategory
	if v := strings.TrimSpace(c.Query("category")); v != "" {
		category = models.AssetCategory(strings.ToUpper(v))
		if !category.Valid() {
			handler.HandleError(c, errors.ErrInvalidCategory)
			return
		}
	}

	p := handler.BindPagination(c)
	list, total, err := h.statisticsService.ProcessedRecords(c.Request.Context(), q, category, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, list, total, p)
}

// ListUnconfigured 缺少分成配置的收入记录
// @Summary 缺少分成配置的收入记录
// @Tags 管理-收入
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param months query int false "最近月数" default(6)
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.UnconfiguredRecord}}
// @Router /api/v1/admin/revenue/unconfigured [get]
func (h *RevenueHandler) ListUnconfigured(c *gin.Context) {
	q, ok := bindPeriodQuery(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	list, total, err := h.statisticsService.UnconfiguredRecords(c.Request.Context(), q, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, list, total, p)
}

// Import 批量导入收入
// @Summary 批量导入收入
// @Description 支持 JSON {"rows": [...]}、multipart 上传的 file 字段或 text/csv 请求体
// @Tags 管理-收入
// @Accept json,mpfd,plain
// @Produce json
// @Security Bearer
// @Param file formData file false "CSV 文件"
// @Success 200 {object} response.Response{data=financeService.ImportResult}
// @Router /api/v1/admin/revenue/import [post]
func (h *RevenueHandler) Import(c *gin.Context) {
	staffID, ok := handler.RequireStaffID(c)
	if !ok {
		return
	}

	rows, err := bindImportRows(c)
	if handler.HandleError(c, err) {
		return
	}

	result, err := h.importService.Import(c.Request.Context(), rows, staffID)
	handler.MustSucceed(c, err, result)
}

// bindImportRows 按 Content-Type 解析导入数据
func bindImportRows(c *gin.Context) ([]financeService.RevenueImportRow, error) {
	switch c.ContentType() {
	case gin.MIMEMultipartPOSTForm:
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, errors.ErrInvalidParams.WithMessage("缺少上传文件 file")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, errors.ErrImportFailed.WithError(err)
		}
		defer f.Close()
		return financeService.ParseRevenueCSV(f)
	case "text/csv", gin.MIMEPlain:
		return financeService.ParseRevenueCSV(c.Request.Body)
	default:
		var req RevenueImportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, errors.ErrInvalidParams.WithMessage("请求体格式错误")
		}
		return req.Rows, nil
	}
}

// RegisterRoutes 注册路由
func (h *RevenueHandler) RegisterRoutes(r *gin.RouterGroup, perms middleware.PermissionChecker, importLimit gin.HandlerFunc) {
	revenue := r.Group("/revenue")
	{
		view := revenue.Group("", middleware.RequirePermission(perms, middleware.PermissionRevenueView))
		view.GET("/records", h.ListRecords)
		view.GET("/unconfigured", h.ListUnconfigured)

		revenue.POST("/import",
			middleware.RequirePermission(perms, middleware.PermissionRevenueImport),
			importLimit,
			middleware.RequestSizeLimiter(MaxImportBodySize),
			h.Import,
		)
	}
}
