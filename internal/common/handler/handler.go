// Package handler 提供 API Handler 的通用辅助函数
// 用于减少 Handler 层的代码重复，统一错误处理、登录检查、参数解析等操作
package handler

import (
	stderrors "errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/resort-fleet-backend/internal/common/errors"
	"github.com/dumeirei/resort-fleet-backend/internal/common/logger"
	"github.com/dumeirei/resort-fleet-backend/internal/common/response"
	"github.com/dumeirei/resort-fleet-backend/internal/common/utils"
	"github.com/dumeirei/resort-fleet-backend/internal/middleware"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
)

// ============================================================================
// 错误处理
// ============================================================================

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false（表示无错误需要处理）
// 如果 err 不为 nil，发送错误响应并返回 true（调用方应该 return）
//
// 使用示例:
//
//	result, err := service.MonthlyTrend(ctx, q)
//	if HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		if appErr.Err != nil {
			logger.Warn("请求处理失败",
				logger.Path(c.FullPath()),
				logger.ErrorCode(appErr.Code),
				logger.Err(appErr.Err),
			)
		}
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	logger.Error("未预期的错误", logger.Path(c.FullPath()), logger.Err(err))
	response.InternalError(c, "服务器内部错误")
	return true
}

// MustSucceed 便捷封装：如果有错误则返回错误响应，否则返回成功响应
//
// 使用示例:
//
//	result, err := service.RevenueByResort(ctx, q)
//	MustSucceed(c, err, result)
//	return  // 注意：调用 MustSucceed 后必须 return
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage 便捷封装：分页响应版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, p utils.Pagination) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, p.Page, p.PageSize)
}

// ============================================================================
// 登录检查
// ============================================================================

// RequireStaffID 获取当前员工 ID，未登录时返回 401 响应
//
// 使用示例:
//
//	staffID, ok := handler.RequireStaffID(c)
//	if !ok {
//	    return
//	}
func RequireStaffID(c *gin.Context) (int64, bool) {
	staffID := middleware.GetUserID(c)
	if staffID == 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	return staffID, true
}

// ============================================================================
// 参数解析
// ============================================================================

// ParseQueryID 解析查询参数中的可选 ID
// 如果参数为空返回 (nil, true)
// 如果解析失败返回 (nil, false)（已发送400响应）
func ParseQueryID(c *gin.Context, paramName, resourceName string) (*int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return nil, false
	}
	return &id, true
}

// ParseQueryInt 解析查询参数中的可选整数，参数为空时返回 def
func ParseQueryInt(c *gin.Context, paramName string, def int, errorMsg string) (int, bool) {
	s := c.Query(paramName)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		response.BadRequest(c, errorMsg)
		return 0, false
	}
	return n, true
}

// ParseQueryBool 解析查询参数中的布尔值，参数为空时返回 false
func ParseQueryBool(c *gin.Context, paramName string) (bool, bool) {
	s := c.Query(paramName)
	if s == "" {
		return false, true
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		response.BadRequest(c, "无效的"+paramName+"参数")
		return false, false
	}
	return v, true
}

// ParseQueryDateRange 从查询参数解析日期范围（start_date, end_date）
// 结束日期会自动调整为当天结束时间（23:59:59）
// 返回 (nil, nil, true) 如果两个参数都为空
// 返回 (nil, nil, false) 如果解析失败（已发送400响应）
func ParseQueryDateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	var start, end *time.Time

	if startStr := c.Query("start_date"); startStr != "" {
		d, err := models.ParseDate(startStr)
		if err != nil {
			response.BadRequest(c, "无效的开始日期格式")
			return nil, nil, false
		}
		start = &d.Time
	}

	if endStr := c.Query("end_date"); endStr != "" {
		d, err := models.ParseDate(endStr)
		if err != nil {
			response.BadRequest(c, "无效的结束日期格式")
			return nil, nil, false
		}
		endOfDay := d.Add(24*time.Hour - time.Second)
		end = &endOfDay
	}

	return start, end, true
}

// BindPagination 从查询参数绑定并规范化分页参数
//
// 使用示例:
//
//	p := handler.BindPagination(c)
//	list, total, err := service.UnconfiguredRecords(ctx, q, p.GetOffset(), p.GetLimit())
//	MustSucceedPage(c, err, list, total, p)
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(utils.DefaultPageSize)))
	p.Normalize()
	return p
}
