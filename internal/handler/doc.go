// Package handler 按业务域在子包中提供 HTTP 处理器
//
// 当前仅有 admin 子包（看板、财务报表、营收记录与导入）。
// 保留本文件使 `swag init --dir ./cmd/api-gateway,./internal/handler` 能把该目录识别为 Go 包。
package handler
