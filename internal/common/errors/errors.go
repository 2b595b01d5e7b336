// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrInvalidParams = New(1001, "参数错误")
	ErrInternalError = New(1006, "内部错误")
)

// 度假村与资产错误码 (3000-3999)
var (
	ErrResortNotFound  = New(3000, "度假村不存在")
	ErrInvalidCategory = New(3003, "无效的资产类别")
)

// 财务报表错误码 (4000-4999)
var (
	ErrInvalidPeriod     = New(4000, "无效的统计周期")
	ErrRecordLoadFailed  = New(4001, "记录加载失败")
	ErrExportFailed      = New(4003, "报表导出失败")
	ErrImportFailed      = New(4004, "收入导入失败")
	ErrImportEmpty       = New(4005, "导入数据为空")
	ErrUnsupportedFormat = New(4007, "不支持的导出格式")
)
