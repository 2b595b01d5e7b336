// Package admin 管理端 HTTP Handler
package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/resort-fleet-backend/internal/common/handler"
	financeService "github.com/dumeirei/resort-fleet-backend/internal/service/finance"
)

// bindPeriodQuery 解析报表通用查询参数
//
// months、start_date/end_date、all_time 与 resort_id 均可选，组合规则由报表服务校验。
func bindPeriodQuery(c *gin.Context) (*financeService.PeriodQuery, bool) {
	months, ok := handler.ParseQueryInt(c, "months", 0, "无效的月数")
	if !ok {
		return nil, false
	}
	start, end, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return nil, false
	}
	allTime, ok := handler.ParseQueryBool(c, "all_time")
	if !ok {
		return nil, false
	}
	resortID, ok := handler.ParseQueryID(c, "resort_id", "度假村")
	if !ok {
		return nil, false
	}

	return &financeService.PeriodQuery{
		Months:    months,
		StartDate: start,
		EndDate:   end,
		AllTime:   allTime,
		ResortID:  resortID,
	}, true
}
