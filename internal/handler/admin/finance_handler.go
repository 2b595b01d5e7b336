// Package admin 管理端 HTTP Handler
package admin

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/resort-fleet-backend/internal/common/handler"
	"github.com/dumeirei/resort-fleet-backend/internal/common/response"
	"github.com/dumeirei/resort-fleet-backend/internal/middleware"
	financeService "github.com/dumeirei/resort-fleet-backend/internal/service/finance"
)

// FinanceHandler 财务报表处理器
type FinanceHandler struct {
	statisticsService *financeService.StatisticsService
	exportService     *financeService.ExportService
}

// NewFinanceHandler 创建财务报表处理器
func NewFinanceHandler(
	statisticsSvc *financeService.StatisticsService,
	exportSvc *financeService.ExportService,
) *FinanceHandler {
	return &FinanceHandler{
		statisticsService: statisticsSvc,
		exportService:     exportSvc,
	}
}

// ==================== 收入统计 ====================

// GetMonthlyTrend 月度财务趋势
// @Summary 月度财务趋势
// @Description 每月毛收入、净收入、分成、费用、维修成本与净利润
// @Tags 管理-财务
// @Produce json
// @Security Bearer
// @Param months query int false "最近月数" default(6)
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Param all_time query bool false "全部时间"
// @Param resort_id query int false "度假村ID"
// @Success 200 {object} response.Response{data=[]models.MonthlyFinance}
// @Router /api/v1/admin/finance/revenue/monthly [get]
func (h *FinanceHandler) GetMonthlyTrend(c *gin.Context) {
	q, ok := bindPeriodQuery(c)
	if !ok {
		return
	}

	result, err := h.statisticsService.MonthlyTrend(c.Request.Context(), q)
	handler.MustSucceed(c, err, result)
}

// GetRevenueByResort 按度假村汇总收入
// @Summary 按度假村汇总收入
// @Tags 管理-财务
// @Produce json
// @Security Bearer
// @Param months query int false "最近月数" default(6)
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Param all_time query bool false "全部时间"
// @Success 200 {object} response.Response{data=[]models.ResortRevenue}
// @Router /api/v1/admin/finance/revenue/by-resort [get]
func (h *FinanceHandler) GetRevenueByResort(c *gin.Context) {
	q, ok := bindPeriodQuery(c)
	if !ok {
		return
	}

	result, err := h.statisticsService.RevenueByResort(c.Request.Context(), q)
	handler.MustSucceed(c, err, result)
}

// GetRevenueByCategory 按资产类别汇总收入
// @Summary 按资产类别汇总收入
// @Tags 管理-财务
// @Produce json
// @Security Bearer
// @Param months query int false "最近月数" default(6)
// @Param resort_id query int false "度假村ID"
// @Success 200 {object} response.Response{data=[]models.CategoryRevenue}
// @Router /api/v1/admin/finance/revenue/by-category [get]
func (h *FinanceHandler) GetRevenueByCategory(c *gin.Context) {
	q, ok := bindPeriodQuery(c)
	if !ok {
		return
	}

	result, err := h.statisticsService.RevenueByCategory(c.Request.Context(), q)
	handler.MustSucceed(c, err, result)
}

// GetResortMonthly 度假村按月收入矩阵
// @Summary 度假村按月收入矩阵
// @Tags 管理-财务
// @Produce json
// @Security Bearer
// @Param months query int false "最近月数" default(6)
// @Success 200 {object} response.Response{data=models.ResortMonthBreakdown}
// @Router /api/v1/admin/finance/revenue/resort-monthly [get]
func (h *FinanceHandler) GetResortMonthly(c *gin.Context) {
	q, ok := bindPeriodQuery(c)
	if !ok {
		return
	}

	result, err := h.statisticsService.ResortMonthly(c.Request.Context(), q)
	handler.MustSucceed(c, err, result)
}

// GetCategoryMonthly 类别按月收入矩阵
// @Summary 类别按月收入矩阵
// @Tags 管理-财务
// @Produce json
// @Security Bearer
// @Param months query int false "最近月数" default(6)
// @Param resort_id query int false "度假村ID"
// @Success 200 {object} response.Response{data=models.CategoryMonthBreakdown}
// @Router /api/v1/admin/finance/revenue/category-monthly [get]
func (h *FinanceHandler) GetCategoryMonthly(c *gin.Context) {
	q, ok := bindPeriodQuery(c)
	if !ok {
		return
	}

	result, err := h.statisticsService.CategoryMonthly(c.Request.Context(), q)
	handler.MustSucceed(c, err, result)
}

// ==================== 费用与维修 ====================

// GetExpenseSummary 费用汇总
// @Summary 费用汇总
// @Description 已批准费用按类别与月份汇总，同时返回待审批数量
// @Tags 管理-财务
// @Produce json
// @Security Bearer
// @Param months query int false "最近月数" default(6)
// @Param resort_id query int false "度假村ID"
// @Success 200 {object} response.Response{data=models.ExpenseSummary}
// @Router /api/v1/admin/finance/expenses/summary [get]
func (h *FinanceHandler) GetExpenseSummary(c *gin.Context) {
	q, ok := bindPeriodQuery(c)
	if !ok {
		return
	}

	result, err := h.statisticsService.ExpenseSummary(c.Request.Context(), q)
	handler.MustSucceed(c, err, result)
}

// GetMaintenanceSummary 维修成本汇总
// @Summary 维修成本汇总
// @Tags 管理-财务
// @Produce json
// @Security Bearer
// @Param months query int false "最近月数" default(6)
// @Param resort_id query int false "度假村ID"
// @Success 200 {object} response.Response{data=models.MaintenanceSummary}
// @Router /api/v1/admin/finance/maintenance/summary [get]
func (h *FinanceHandler) GetMaintenanceSummary(c *gin.Context) {
	q, ok := bindPeriodQuery(c)
	if !ok {
		return
	}

	result, err := h.statisticsService.MaintenanceSummary(c.Request.Context(), q)
	handler.MustSucceed(c, err, result)
}

// ==================== 导出 ====================

// ExportMonthly 导出月度财务报表
// @Summary 导出月度财务报表
// @Tags 管理-财务
// @Produce octet-stream
// @Security Bearer
// @Param format query string false "导出格式 csv/xlsx" default(csv)
// @Param months query int false "最近月数" default(6)
// @Param resort_id query int false "度假村ID"
// @Success 200 {file} binary
// @Router /api/v1/admin/finance/export/monthly [get]
func (h *FinanceHandler) ExportMonthly(c *gin.Context) {
	q, ok := bindPeriodQuery(c)
	if !ok {
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", financeService.ExportFormatCSV))
	file, err := h.exportService.ExportMonthly(c.Request.Context(), q, format)
	if handler.HandleError(c, err) {
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}

// RegisterRoutes 注册路由
func (h *FinanceHandler) RegisterRoutes(r *gin.RouterGroup, perms middleware.PermissionChecker, exportLimit gin.HandlerFunc) {
	finance := r.Group("/finance")
	{
		view := finance.Group("", middleware.RequirePermission(perms, middleware.PermissionFinanceView))
		view.GET("/revenue/monthly", h.GetMonthlyTrend)
		view.GET("/revenue/by-resort", h.GetRevenueByResort)
		view.GET("/revenue/by-category", h.GetRevenueByCategory)
		view.GET("/revenue/resort-monthly", h.GetResortMonthly)
		view.GET("/revenue/category-monthly", h.GetCategoryMonthly)
		view.GET("/expenses/summary", h.GetExpenseSummary)
		view.GET("/maintenance/summary", h.GetMaintenanceSummary)

		finance.GET("/export/monthly",
			middleware.RequirePermission(perms, middleware.PermissionFinanceExport),
			exportLimit,
			h.ExportMonthly,
		)
	}
}
