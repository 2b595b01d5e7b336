// Package middleware 提供 HTTP 中间件
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/resort-fleet-backend/internal/common/cache"
	"github.com/dumeirei/resort-fleet-backend/internal/common/response"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RedisClient *redis.Client
	Limit       int                       // 窗口内允许的次数
	Window      time.Duration             // 时间窗口
	KeyFunc     func(*gin.Context) string // 限流键
}

// RateLimit 固定窗口限流，Redis 不可用时放行
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.RedisClient == nil || config.Limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := config.KeyFunc(c)

		count, err := config.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			config.RedisClient.Expire(ctx, key, config.Window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		if int(count) > config.Limit {
			ttl, _ := config.RedisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))

			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(config.Limit-int(count)))

		c.Next()
	}
}

// IPRateLimit 按客户端 IP 限流
func IPRateLimit(redisClient *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		RedisClient: redisClient,
		Limit:       limit,
		Window:      window,
		KeyFunc: func(c *gin.Context) string {
			return cache.BuildKey(cache.KeyPrefixRateLimit, "ip", c.ClientIP())
		},
	})
}

// StaffRateLimit 按登录员工与接口路径限流，用于导入、导出等较重的接口
func StaffRateLimit(redisClient *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimit(&RateLimitConfig{
		RedisClient: redisClient,
		Limit:       limit,
		Window:      window,
		KeyFunc: func(c *gin.Context) string {
			who := c.ClientIP()
			if userID := GetUserID(c); userID > 0 {
				who = strconv.FormatInt(userID, 10)
			}
			return cache.BuildKey(cache.KeyPrefixRateLimit, "staff", who, c.FullPath())
		},
	})
}
