// Package cache 提供 Redis 缓存功能
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/resort-fleet-backend/internal/common/config"
)

var rdb *redis.Client

// Init 初始化 Redis 连接
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb = redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	return rdb, nil
}

// Close 关闭 Redis 连接
func Close() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}

// CacheKey 常用缓存键前缀
const (
	KeyPrefixDashboard = "report:dashboard:"
	KeyPrefixRateLimit = "ratelimit:"
	KeyPrefixLock      = "lock:"
)

// BuildKey 构建缓存键
func BuildKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return strings.TrimSuffix(prefix, ":")
	}
	key := prefix
	for _, part := range parts {
		key += part + ":"
	}
	return key[:len(key)-1]
}

// Store 带前缀的 JSON 缓存，client 为空时所有读取都视为未命中
type Store struct {
	client *redis.Client
	locker *redislock.Client
	prefix string
}

// NewStore 创建缓存
func NewStore(client *redis.Client, prefix string) *Store {
	s := &Store{client: client, prefix: prefix}
	if client != nil {
		s.locker = redislock.New(client)
	}
	return s
}

// Enabled 是否连接了 Redis
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// Key 在前缀下构建键
func (s *Store) Key(parts ...string) string {
	if s == nil {
		return BuildKey("", parts...)
	}
	return BuildKey(s.prefix, parts...)
}

// Set 写入 JSON 值
func (s *Store) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.client.Set(ctx, key, data, expiration).Err()
}

// Get 读取 JSON 值，未命中返回 false 且无错误
func (s *Store) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return true, nil
}

// Purge 删除前缀下的全部键，返回删除数量
func (s *Store) Purge(ctx context.Context) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}

	var deleted int64
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// Lock 已取得的互斥锁，零值表示未连接 Redis 时的本地锁
type Lock struct {
	lock *redislock.Lock
}

// Release 释放锁，锁已过期时不报错
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		return err
	}
	return nil
}

// TryLock 获取短期互斥锁，锁被占用时返回 nil，未连接 Redis 时总是成功
func (s *Store) TryLock(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	if !s.Enabled() {
		return &Lock{}, nil
	}
	l, err := s.locker.Obtain(ctx, BuildKey(KeyPrefixLock, name), ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Lock{lock: l}, nil
}
