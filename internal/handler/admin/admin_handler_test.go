package admin

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
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
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/resort-fleet-backend/internal/common/cache"
	"github.com/dumeirei/resort-fleet-backend/internal/common/jwt"
	"github.com/dumeirei/resort-fleet-backend/internal/common/response"
	"github.com/dumeirei/resort-fleet-backend/internal/middleware"
	"github.com/dumeirei/resort-fleet-backend/internal/models"
	"github.com/dumeirei/resort-fleet-backend/internal/repository"
	financeService "github.com/dumeirei/resort-fleet-backend/internal/service/finance"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) models.Date {
	return models.DateOf(y, m, d)
}

// adminTestEnv 管理端路由测试环境
type adminTestEnv struct {
	db     *gorm.DB
	redis  *miniredis.Miniredis
	router *gin.Engine
	jwt    *jwt.Manager
}

func setupAdminTestEnv(t *testing.T) *adminTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Resort{},
		&models.Asset{},
		&models.RevenueRecord{},
		&models.ProfitSharingConfig{},
		&models.Expense{},
		&models.MaintenanceRecord{},
	))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	revenueRepo := repository.NewRevenueRepository(db, 2)
	loader := financeService.NewRecordLoader(
		repository.NewResortRepository(db, 2),
		repository.NewAssetRepository(db, 2),
		revenueRepo,
		repository.NewProfitSharingRepository(db, 2),
		repository.NewExpenseRepository(db, 2),
		repository.NewMaintenanceRepository(db, 2),
	)
	engine := financeService.NewEngine(financeService.EngineOptions{Now: func() time.Time { return testNow }})
	stats := financeService.NewStatisticsService(loader, engine, revenueRepo,
		financeService.ReportOptions{DefaultMonths: 6, MaxMonths: 24})

	perms := middleware.DefaultRolePermissions()
	dashboard := financeService.NewDashboardService(stats, cache.NewStore(client, cache.KeyPrefixDashboard),
		time.Minute, perms.CanViewFinancials)
	importer := financeService.NewRevenueImportService(loader, revenueRepo, dashboard)
	exporter := financeService.NewExportService(stats)

	manager := jwt.NewManager(&jwt.Config{
		Secret:           "admin-handler-test-secret",
		AccessExpireTime: time.Hour,
		Issuer:           "resort-fleet",
	})

	r := gin.New()
	api := r.Group("/api/v1/admin", middleware.StaffAuth(manager))
	heavy := middleware.StaffRateLimit(client, 2, time.Minute)
	NewDashboardHandler(dashboard, []int{3, 6}).RegisterRoutes(api, perms)
	NewFinanceHandler(stats, exporter).RegisterRoutes(api, perms, heavy)
	NewRevenueHandler(stats, importer).RegisterRoutes(api, perms, heavy)

	return &adminTestEnv{db: db, redis: mr, router: r, jwt: manager}
}

// seed 两个度假村，海上运动未配置分成
func (e *adminTestEnv) seed(t *testing.T) {
	t.Helper()

	require.NoError(t, e.db.Create(&[]models.Resort{
		{ID: 1, Code: "NDR", Name: "Nusa Dua Resort", Status: models.ResortStatusActive},
		{ID: 2, Code: "UBD", Name: "Ubud Resort", Status: models.ResortStatusActive},
	}).Error)
	require.NoError(t, e.db.Create(&[]models.Asset{
		{ID: 1, ResortID: 1, Code: "ATV-01", Name: "ATV 01", Category: models.AssetCategoryATV, Status: models.AssetStatusActive},
		{ID: 2, ResortID: 2, Code: "UTV-01", Name: "UTV 01", Category: models.AssetCategoryUTV, Status: models.AssetStatusMaintenance},
	}).Error)
	require.NoError(t, e.db.Create(&[]models.ProfitSharingConfig{
		{ID: 1, ResortID: 1, AssetCategory: models.AssetCategoryATV, DkuPercentage: 30, ResortPercentage: 70, EffectiveFrom: day(2023, time.January, 1)},
		{ID: 2, ResortID: 2, AssetCategory: models.AssetCategoryUTV, DkuPercentage: 20, ResortPercentage: 80, EffectiveFrom: day(2023, time.January, 1)},
	}).Error)
	require.NoError(t, e.db.Create(&[]models.RevenueRecord{
		{ResortID: 1, AssetCategory: models.AssetCategoryATV, Date: day(2024, time.January, 10), Amount: 1000, Discount: 100},
		{ResortID: 1, AssetCategory: models.AssetCategorySeaSport, Date: day(2024, time.February, 5), Amount: 500},
		{ResortID: 2, AssetCategory: models.AssetCategoryUTV, Date: day(2024, time.March, 1), Amount: 2000, TaxService: 200},
	}).Error)
	require.NoError(t, e.db.Create(&[]models.Expense{
		{Category: models.ExpenseCategorySalary, Amount: 300, Date: day(2024, time.February, 1), Status: models.ExpenseStatusApproved},
	}).Error)
}

func (e *adminTestEnv) token(t *testing.T, staffID int64, role string) string {
	t.Helper()
	token, _, err := e.jwt.GenerateAccessToken(staffID, "tester", role)
	require.NoError(t, err)
	return token
}

func (e *adminTestEnv) do(t *testing.T, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decodeData 解析响应并把 data 解码到 out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) response.Response {
	t.Helper()
	var raw struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), w.Body.String())
	if out != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return response.Response{Code: raw.Code, Message: raw.Message}
}

// ==================== 仪表盘 ====================

func TestDashboardHandler_Overview(t *testing.T) {
	env := setupAdminTestEnv(t)
	env.seed(t)

	t.Run("管理员可见财务字段", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/dashboard/overview?months=3", env.token(t, 1, middleware.RoleAdmin), nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var summary models.DashboardSummary
		resp := decodeData(t, w, &summary)
		assert.Equal(t, 0, resp.Code)
		assert.Equal(t, 3200.0, summary.TotalRevenue)
		assert.InDelta(t, 630.0, summary.TotalDkuShare, 1e-9)
		assert.Equal(t, 300.0, summary.TotalExpenses)
		assert.Equal(t, 1, summary.UnconfiguredRecords)
		assert.False(t, summary.Restricted)
	})

	t.Run("员工只看运营数据", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/dashboard/overview?months=3", env.token(t, 2, middleware.RoleStaff), nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var summary models.DashboardSummary
		decodeData(t, w, &summary)
		assert.True(t, summary.Restricted)
		assert.Equal(t, 3200.0, summary.TotalRevenue)
		assert.Zero(t, summary.TotalDkuShare)
		assert.Zero(t, summary.NetProfit)
		assert.Equal(t, 2, summary.TotalAssets)
	})

	t.Run("未登录", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/dashboard/overview", "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("无效月数", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/dashboard/overview?months=abc", env.token(t, 1, middleware.RoleAdmin), nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("超出最大月数", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/dashboard/overview?months=36", env.token(t, 1, middleware.RoleAdmin), nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeData(t, w, nil)
		assert.Equal(t, 4000, resp.Code)
	})
}

func TestDashboardHandler_Cache(t *testing.T) {
	env := setupAdminTestEnv(t)
	env.seed(t)
	admin := env.token(t, 1, middleware.RoleAdmin)

	t.Run("预热", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/admin/dashboard/cache/warm", admin, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var result CacheWarmResult
		decodeData(t, w, &result)
		assert.True(t, result.Warmed)
		assert.Equal(t, []int{3, 6}, result.Months)
		assert.NotEmpty(t, env.redis.Keys())
	})

	t.Run("清除", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/api/v1/admin/dashboard/cache", admin, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var result CacheInvalidateResult
		resp := decodeData(t, w, &result)
		assert.Equal(t, "缓存已清除", resp.Message)
		assert.Equal(t, int64(2), result.Deleted)
	})

	t.Run("经理无权操作缓存", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/api/v1/admin/dashboard/cache", env.token(t, 3, middleware.RoleManager), nil, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

// ==================== 财务报表 ====================

func TestFinanceHandler_Reports(t *testing.T) {
	env := setupAdminTestEnv(t)
	env.seed(t)
	manager := env.token(t, 3, middleware.RoleManager)

	t.Run("月度趋势", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/finance/revenue/monthly?months=3", manager, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var months []models.MonthlyFinance
		decodeData(t, w, &months)
		require.Len(t, months, 3)
		assert.Equal(t, "2024-01", months[0].Month)
		assert.Equal(t, 900.0, months[0].TotalRevenue)
		assert.Equal(t, 300.0, months[1].TotalExpenses)
	})

	t.Run("按度假村", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/finance/revenue/by-resort?months=3", manager, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resorts []models.ResortRevenue
		decodeData(t, w, &resorts)
		require.Len(t, resorts, 2)
		assert.Equal(t, "Ubud Resort", resorts[0].ResortName)
		assert.Equal(t, 1800.0, resorts[0].TotalRevenue)
	})

	t.Run("按类别并筛选度假村", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/finance/revenue/by-category?months=3&resort_id=1", manager, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var categories []models.CategoryRevenue
		decodeData(t, w, &categories)
		total := 0.0
		for _, c := range categories {
			total += c.TotalRevenue
		}
		assert.Equal(t, 1400.0, total)
	})

	t.Run("费用汇总", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/finance/expenses/summary?months=3", manager, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var summary models.ExpenseSummary
		decodeData(t, w, &summary)
		assert.Equal(t, 300.0, summary.TotalApproved)
	})

	t.Run("日期范围", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/finance/revenue/monthly?start_date=2024-03-01&end_date=2024-03-31", manager, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var months []models.MonthlyFinance
		decodeData(t, w, &months)
		require.Len(t, months, 1)
		assert.Equal(t, 1800.0, months[0].TotalRevenue)
	})

	t.Run("无效度假村ID", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/finance/revenue/monthly?resort_id=x", manager, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("员工无权查看", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/finance/revenue/monthly", env.token(t, 2, middleware.RoleStaff), nil, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestFinanceHandler_Export(t *testing.T) {
	env := setupAdminTestEnv(t)
	env.seed(t)
	admin := env.token(t, 1, middleware.RoleAdmin)

	t.Run("CSV", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/finance/export/monthly?months=3", admin, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
		assert.Contains(t, w.Body.String(), "Jan 2024")
	})

	t.Run("查询参数携带令牌", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/finance/export/monthly?format=XLSX&token="+admin, "", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, financeService.ContentTypeXLSX, w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
	})

	t.Run("超出限流", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/finance/export/monthly", admin, nil, "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("不支持的格式", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/finance/export/monthly?format=pdf", env.token(t, 9, middleware.RoleAdmin), nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeData(t, w, nil)
		assert.Equal(t, 4007, resp.Code)
	})
}

// ==================== 收入记录 ====================

func TestRevenueHandler_List(t *testing.T) {
	env := setupAdminTestEnv(t)
	env.seed(t)
	manager := env.token(t, 3, middleware.RoleManager)

	t.Run("分页与类别筛选", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/revenue/records?months=3&category=atv&page=1&page_size=10", manager, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var page struct {
			List  []models.ProcessedRevenue `json:"list"`
			Total int64                     `json:"total"`
		}
		decodeData(t, w, &page)
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.List, 1)
		assert.InDelta(t, 270.0, page.List[0].DkuShare, 1e-9)
		assert.True(t, page.List[0].HasConfig)
		assert.Equal(t, day(2024, time.January, 10), page.List[0].Date)
		assert.Contains(t, w.Body.String(), `"date":"2024-01-10"`)
	})

	t.Run("无效类别", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/revenue/records?category=boat", manager, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeData(t, w, nil)
		assert.Equal(t, 3003, resp.Code)
	})

	t.Run("未配置分成记录", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/admin/revenue/unconfigured?months=3", manager, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var page struct {
			List  []models.UnconfiguredRecord `json:"list"`
			Total int64                       `json:"total"`
		}
		decodeData(t, w, &page)
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.List, 1)
		assert.Equal(t, models.AssetCategorySeaSport, page.List[0].AssetCategory)
		assert.Equal(t, "Nusa Dua Resort", page.List[0].ResortName)
	})
}

func TestRevenueHandler_Import(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		env := setupAdminTestEnv(t)
		env.seed(t)

		body := []byte(`{"rows":[
			{"resort_code":"ndr","asset_category":"atv","date":"2024-03-02","amount":"1,500","discount":0},
			{"resort_id":2,"asset_category":"UTV","date":"2024-03-03","amount":800},
			{"resort_id":99,"asset_category":"UTV","date":"2024-03-03","amount":800}
		]}`)
		w := env.do(t, http.MethodPost, "/api/v1/admin/revenue/import", env.token(t, 1, middleware.RoleAdmin), body, "application/json")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result financeService.ImportResult
		decodeData(t, w, &result)
		assert.Equal(t, 3, result.Total)
		assert.Equal(t, 2, result.Imported)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, 3, result.Rejected[0].Row)

		var count int64
		require.NoError(t, env.db.Model(&models.RevenueRecord{}).Where("created_by = ?", 1).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("CSV 文件上传", func(t *testing.T) {
		env := setupAdminTestEnv(t)
		env.seed(t)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "revenue.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte("resort_code,asset_category,date,amount\nNDR,ATV,2024-03-05,250\nUBD,UTV,2024-03-06,\"1,000\"\n"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		w := env.do(t, http.MethodPost, "/api/v1/admin/revenue/import", env.token(t, 1, middleware.RoleAdmin), buf.Bytes(), mw.FormDataContentType())
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result financeService.ImportResult
		decodeData(t, w, &result)
		assert.Equal(t, 2, result.Imported)
		assert.Empty(t, result.Rejected)
	})

	t.Run("CSV 请求体", func(t *testing.T) {
		env := setupAdminTestEnv(t)
		env.seed(t)

		body := []byte("resort_id,asset_category,date,amount\n1,SEA_SPORT,2024-03-07,99.5\n")
		w := env.do(t, http.MethodPost, "/api/v1/admin/revenue/import", env.token(t, 1, middleware.RoleAdmin), body, "text/csv")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result financeService.ImportResult
		decodeData(t, w, &result)
		assert.Equal(t, 1, result.Imported)
	})

	t.Run("导入后清除仪表盘缓存", func(t *testing.T) {
		env := setupAdminTestEnv(t)
		env.seed(t)
		admin := env.token(t, 1, middleware.RoleAdmin)

		w := env.do(t, http.MethodGet, "/api/v1/admin/dashboard/overview?months=3", admin, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		require.NotEmpty(t, env.redis.Keys())

		body := []byte(`{"rows":[{"resort_id":1,"asset_category":"ATV","date":"2024-03-10","amount":100}]}`)
		w = env.do(t, http.MethodPost, "/api/v1/admin/revenue/import", admin, body, "application/json")
		require.Equal(t, http.StatusOK, w.Code)

		for _, key := range env.redis.Keys() {
			assert.False(t, strings.HasPrefix(key, cache.KeyPrefixDashboard), key)
		}

		w = env.do(t, http.MethodGet, "/api/v1/admin/dashboard/overview?months=3", admin, nil, "")
		var summary models.DashboardSummary
		decodeData(t, w, &summary)
		assert.Equal(t, 3300.0, summary.TotalRevenue)
	})

	t.Run("空数据", func(t *testing.T) {
		env := setupAdminTestEnv(t)
		w := env.do(t, http.MethodPost, "/api/v1/admin/revenue/import", env.token(t, 1, middleware.RoleAdmin), []byte(`{"rows":[]}`), "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeData(t, w, nil)
		assert.Equal(t, 4005, resp.Code)
	})

	t.Run("请求体格式错误", func(t *testing.T) {
		env := setupAdminTestEnv(t)
		w := env.do(t, http.MethodPost, "/api/v1/admin/revenue/import", env.token(t, 1, middleware.RoleAdmin), []byte(`{"rows":`), "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("经理无导入权限", func(t *testing.T) {
		env := setupAdminTestEnv(t)
		w := env.do(t, http.MethodPost, "/api/v1/admin/revenue/import", env.token(t, 3, middleware.RoleManager), []byte(`{"rows":[]}`), "application/json")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
