// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/resort-fleet-backend/internal/common/response"
)

// PermissionChecker 权限检查器接口
type PermissionChecker interface {
	HasPermission(roleCode, permissionCode string) bool
	HasAnyPermission(roleCode string, permissionCodes []string) bool
	HasAllPermissions(roleCode string, permissionCodes []string) bool
}

// RequirePermission 要求指定权限
func RequirePermission(checker PermissionChecker, permissionCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !checker.HasPermission(role, permissionCode) {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAnyPermission 要求任一权限
func RequireAnyPermission(checker PermissionChecker, permissionCodes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !checker.HasAnyPermission(role, permissionCodes) {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAllPermissions 要求全部权限
func RequireAllPermissions(checker PermissionChecker, permissionCodes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !checker.HasAllPermissions(role, permissionCodes) {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRoles 要求指定角色
func RequireRoles(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if _, ok := roleSet[role]; !ok {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAdmin 要求管理员角色
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(RoleAdmin)
}

// 员工角色
const (
	RoleAdmin   = "ADMIN"   // 管理员
	RoleManager = "MANAGER" // 经理
	RoleStaff   = "STAFF"   // 现场员工
)

// PermissionCodes 预定义权限码
const (
	// 运营概览
	PermissionDashboardView = "dashboard:view"

	// 财务报表
	PermissionFinanceView   = "finance:view"
	PermissionFinanceExport = "finance:export"

	// 收入数据
	PermissionRevenueView   = "revenue:view"
	PermissionRevenueImport = "revenue:import"

	// 系统管理
	PermissionSystemCache = "system:cache"
)

// RolePermissions 静态角色权限表
type RolePermissions map[string]map[string]struct{}

// NewRolePermissions 根据角色到权限码的映射创建权限表
func NewRolePermissions(grants map[string][]string) RolePermissions {
	rp := make(RolePermissions, len(grants))
	for role, codes := range grants {
		set := make(map[string]struct{}, len(codes))
		for _, code := range codes {
			set[code] = struct{}{}
		}
		rp[role] = set
	}
	return rp
}

// DefaultRolePermissions 默认角色权限，STAFF 只能查看概览中的运营与收入数据
func DefaultRolePermissions() RolePermissions {
	return NewRolePermissions(map[string][]string{
		RoleAdmin: {
			PermissionDashboardView,
			PermissionFinanceView,
			PermissionFinanceExport,
			PermissionRevenueView,
			PermissionRevenueImport,
			PermissionSystemCache,
		},
		RoleManager: {
			PermissionDashboardView,
			PermissionFinanceView,
			PermissionFinanceExport,
			PermissionRevenueView,
		},
		RoleStaff: {
			PermissionDashboardView,
		},
	})
}

// HasPermission 实现 PermissionChecker
func (rp RolePermissions) HasPermission(roleCode, permissionCode string) bool {
	_, ok := rp[roleCode][permissionCode]
	return ok
}

// HasAnyPermission 实现 PermissionChecker
func (rp RolePermissions) HasAnyPermission(roleCode string, permissionCodes []string) bool {
	for _, code := range permissionCodes {
		if rp.HasPermission(roleCode, code) {
			return true
		}
	}
	return false
}

// HasAllPermissions 实现 PermissionChecker
func (rp RolePermissions) HasAllPermissions(roleCode string, permissionCodes []string) bool {
	for _, code := range permissionCodes {
		if !rp.HasPermission(roleCode, code) {
			return false
		}
	}
	return true
}

// CanViewFinancials 角色能否查看财务字段
func (rp RolePermissions) CanViewFinancials(roleCode string) bool {
	return rp.HasPermission(roleCode, PermissionFinanceView)
}
