package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dumeirei/resort-fleet-backend/internal/common/config"
	"github.com/dumeirei/resort-fleet-backend/internal/common/jwt"
	"github.com/dumeirei/resort-fleet-backend/internal/common/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTManager() *jwt.Manager {
	return jwt.NewManager(&jwt.Config{
		Secret:           "middleware-test-secret-key",
		AccessExpireTime: time.Hour,
		Issuer:           "resort-fleet",
	})
}

func issueToken(t *testing.T, m *jwt.Manager, staffID int64, role string) string {
	t.Helper()
	token, _, err := m.GenerateAccessToken(staffID, "tester", role)
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ==================== StaffAuth 测试 ====================

func TestStaffAuth(t *testing.T) {
	manager := newTestJWTManager()

	r := gin.New()
	r.GET("/me", StaffAuth(manager), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetRole(c), "name": GetClaims(c).Name})
	})

	t.Run("Bearer 头", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+issueToken(t, manager, 9, RoleManager))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":9,"role":"MANAGER","name":"tester"}`, w.Body.String())
	})

	t.Run("查询参数令牌", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me?token="+issueToken(t, manager, 3, RoleStaff), nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("缺少令牌", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "请先登录", decodeBody(t, w).Message)
	})

	t.Run("无效令牌", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "无效的令牌", decodeBody(t, w).Message)
	})
}

func TestContextGetters_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Zero(t, GetUserID(c))
	assert.Empty(t, GetRole(c))
	assert.Nil(t, GetClaims(c))
	assert.Empty(t, GetRequestID(c))
}

// ==================== 权限测试 ====================

func TestDefaultRolePermissions(t *testing.T) {
	rp := DefaultRolePermissions()

	assert.True(t, rp.HasPermission(RoleAdmin, PermissionRevenueImport))
	assert.True(t, rp.HasPermission(RoleManager, PermissionFinanceExport))
	assert.False(t, rp.HasPermission(RoleManager, PermissionRevenueImport))
	assert.False(t, rp.HasPermission(RoleStaff, PermissionFinanceView))
	assert.False(t, rp.HasPermission("GUEST", PermissionDashboardView))

	assert.True(t, rp.HasAnyPermission(RoleStaff, []string{PermissionFinanceView, PermissionDashboardView}))
	assert.False(t, rp.HasAllPermissions(RoleStaff, []string{PermissionFinanceView, PermissionDashboardView}))
	assert.True(t, rp.HasAllPermissions(RoleAdmin, []string{PermissionSystemCache, PermissionRevenueView}))

	assert.True(t, rp.CanViewFinancials(RoleAdmin))
	assert.True(t, rp.CanViewFinancials(RoleManager))
	assert.False(t, rp.CanViewFinancials(RoleStaff))
}

func withRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role != "" {
			c.Set(ContextKeyRole, role)
		}
		c.Next()
	}
}

func TestRequirePermission(t *testing.T) {
	rp := DefaultRolePermissions()

	tests := []struct {
		name       string
		role       string
		middleware gin.HandlerFunc
		wantStatus int
	}{
		{"经理可查看财务", RoleManager, RequirePermission(rp, PermissionFinanceView), http.StatusOK},
		{"员工不可查看财务", RoleStaff, RequirePermission(rp, PermissionFinanceView), http.StatusForbidden},
		{"未登录", "", RequirePermission(rp, PermissionFinanceView), http.StatusUnauthorized},
		{"任一权限", RoleStaff, RequireAnyPermission(rp, PermissionFinanceView, PermissionDashboardView), http.StatusOK},
		{"全部权限", RoleManager, RequireAllPermissions(rp, PermissionFinanceView, PermissionRevenueImport), http.StatusForbidden},
		{"管理员角色", RoleAdmin, RequireAdmin(), http.StatusOK},
		{"非管理员角色", RoleManager, RequireAdmin(), http.StatusForbidden},
		{"角色列表", RoleStaff, RequireRoles(RoleManager, RoleStaff), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", withRole(tt.role), tt.middleware, func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// ==================== 限流测试 ====================

func newRateLimitRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestIPRateLimit(t *testing.T) {
	mr, client := newRateLimitRedis(t)

	r := gin.New()
	r.GET("/", IPRateLimit(client, 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// 窗口过期后恢复
	mr.FastForward(time.Minute + time.Second)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
}

func TestStaffRateLimit_PerStaffAndPath(t *testing.T) {
	mr, client := newRateLimitRedis(t)

	r := gin.New()
	limited := StaffRateLimit(client, 1, time.Minute)
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/export", func(c *gin.Context) {
		c.Set(ContextKeyUserID, int64(5))
		c.Next()
	}, limited, handler)
	r.GET("/other", func(c *gin.Context) {
		c.Set(ContextKeyUserID, int64(5))
		c.Next()
	}, limited, handler)

	codes := make([]int, 0, 3)
	for _, path := range []string{"/export", "/export", "/other"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusOK}, codes)
	assert.True(t, mr.Exists("ratelimit:staff:5:/export"))
}

func TestRateLimit_RedisUnavailable(t *testing.T) {
	mr, client := newRateLimitRedis(t)
	mr.Close()

	r := gin.New()
	r.GET("/", IPRateLimit(client, 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	r2 := gin.New()
	r2.GET("/", IPRateLimit(nil, 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r2.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// ==================== 通用中间件测试 ====================

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "服务器内部错误", decodeBody(t, w).Message)
}

func TestRequestSizeLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/", RequestSizeLimiter(8), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("definitely too large")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSecureAndNoCacheHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecureHeaders(), NoCache())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{
		AllowedOrigins: []string{"https://ops.example.com"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		MaxAge:         600,
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAccessLog_RedactsToken(t *testing.T) {
	assert.Equal(t, "months=6&token=%2A%2A%2A", redactQuery(map[string][]string{
		"months": {"6"},
		"token":  {"secret"},
	}))

	r := gin.New()
	r.Use(AccessLog(zap.NewNop()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/api?token=abc"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
