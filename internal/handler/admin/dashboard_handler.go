// Package admin 管理端 HTTP Handler
package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/resort-fleet-backend/internal/common/handler"
	"github.com/dumeirei/resort-fleet-backend/internal/common/response"
	"github.com/dumeirei/resort-fleet-backend/internal/middleware"
	financeService "github.com/dumeirei/resort-fleet-backend/internal/service/finance"
)

// DashboardHandler 仪表盘处理器
type DashboardHandler struct {
	dashboardService *financeService.DashboardService
	warmMonths       []int
}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler(dashboardSvc *financeService.DashboardService, warmMonths []int) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardSvc,
		warmMonths:       warmMonths,
	}
}

// CacheInvalidateResult 清除缓存结果
type CacheInvalidateResult struct {
	Deleted int64 `json:"deleted"`
}

// CacheWarmResult 预热结果
type CacheWarmResult struct {
	Warmed bool  `json:"warmed"`
	Months []int `json:"months"`
}

// GetOverview 获取仪表盘概览
// @Summary 获取仪表盘概览
// @Description 资产、收入与利润汇总；非财务角色不返回分成、费用与利润字段
// @Tags 管理-仪表盘
// @Produce json
// @Security Bearer
// @Param months query int false "最近月数" default(6)
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Param all_time query bool false "全部时间"
// @Param resort_id query int false "度假村ID"
// @Success 200 {object} response.Response{data=models.DashboardSummary}
// @Router /api/v1/admin/dashboard/overview [get]
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	q, ok := bindPeriodQuery(c)
	if !ok {
		return
	}

	overview, err := h.dashboardService.Overview(c.Request.Context(), q, middleware.GetRole(c))
	handler.MustSucceed(c, err, overview)
}

// InvalidateCache 清除仪表盘缓存
// @Summary 清除仪表盘缓存
// @Tags 管理-仪表盘
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=CacheInvalidateResult}
// @Router /api/v1/admin/dashboard/cache [delete]
func (h *DashboardHandler) InvalidateCache(c *gin.Context) {
	n, err := h.dashboardService.Invalidate(c.Request.Context())
	if err != nil {
		response.InternalError(c, "清除缓存失败")
		return
	}
	response.SuccessWithMessage(c, "缓存已清除", CacheInvalidateResult{Deleted: n})
}

// WarmCache 预热仪表盘缓存
// @Summary 预热仪表盘缓存
// @Description 其他实例正在预热时 warmed 为 false
// @Tags 管理-仪表盘
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=CacheWarmResult}
// @Router /api/v1/admin/dashboard/cache/warm [post]
func (h *DashboardHandler) WarmCache(c *gin.Context) {
	warmed, err := h.dashboardService.Warm(c.Request.Context(), h.warmMonths)
	if handler.HandleError(c, err) {
		return
	}
	response.Success(c, CacheWarmResult{Warmed: warmed, Months: h.warmMonths})
}

// RegisterRoutes 注册路由
func (h *DashboardHandler) RegisterRoutes(r *gin.RouterGroup, perms middleware.PermissionChecker) {
	dashboard := r.Group("/dashboard")
	{
		dashboard.GET("/overview", middleware.RequirePermission(perms, middleware.PermissionDashboardView), h.GetOverview)

		cache := dashboard.Group("/cache", middleware.RequirePermission(perms, middleware.PermissionSystemCache))
		cache.DELETE("", h.InvalidateCache)
		cache.POST("/warm", h.WarmCache)
	}
}
