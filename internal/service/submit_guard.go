package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	submitLockKeyPrefix = "testhub:submit:"
	submitLockTTL       = 30 * time.Second

	staffStatsKey = "testhub:dashboard:staff"
	staffStatsTTL = 30 * time.Second
)

// SubmitGuard 防止同一用户对同一试卷并发重复交卷
type SubmitGuard interface {
	// Acquire 成功返回释放函数，已被占用返回 util.ErrSubmitInProgress
	Acquire(ctx context.Context, userID, testID uint) (release func(), err error)
}

// NopSubmitGuard 未启用 Redis 时使用，不做去重
type NopSubmitGuard struct{}

func (NopSubmitGuard) Acquire(context.Context, uint, uint) (func(), error) {
	return func() {}, nil
}

type RedisSubmitGuard struct {
	Redis *redis.Client
}

// releaseScript 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (g *RedisSubmitGuard) Acquire(ctx context.Context, userID, testID uint) (func(), error) {
	key := fmt.Sprintf("%s%d:%d", submitLockKeyPrefix, userID, testID)
	token := uuid.New().String()

	ok, err := g.Redis.SetNX(ctx, key, token, submitLockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrSubmitInProgress
	}

	return func() {
		if err := releaseScript.Run(context.Background(), g.Redis, []string{key}, token).Err(); err != nil && err != redis.Nil {
			logger.Log.Warn("failed to release submit lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// NewSubmitGuard 未开启去重或 rdb 为 nil 时退化为不去重
func NewSubmitGuard(rdb *redis.Client, dedupe bool) SubmitGuard {
	if rdb == nil || !dedupe {
		return NopSubmitGuard{}
	}
	return &RedisSubmitGuard{Redis: rdb}
}

// StatsCache 缓存教职人员仪表盘的统计数据
type StatsCache interface {
	Get(ctx context.Context) (*StaffStats, bool)
	Set(ctx context.Context, stats *StaffStats)
	Invalidate(ctx context.Context)
}

type nopStatsCache struct{}

func (nopStatsCache) Get(context.Context) (*StaffStats, bool) { return nil, false }
func (nopStatsCache) Set(context.Context, *StaffStats)        {}
func (nopStatsCache) Invalidate(context.Context)               {}

type RedisStatsCache struct {
	Redis *redis.Client
}

func (c *RedisStatsCache) Get(ctx context.Context) (*StaffStats, bool) {
	val, err := c.Redis.Get(ctx, staffStatsKey).Result()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		logger.Log.Warn("dashboard cache read failed", zap.Error(err))
		return nil, false
	}

	var stats StaffStats
	if err := json.Unmarshal([]byte(val), &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

func (c *RedisStatsCache) Set(ctx context.Context, stats *StaffStats) {
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.Redis.Set(ctx, staffStatsKey, data, staffStatsTTL).Err(); err != nil {
		logger.Log.Warn("dashboard cache write failed", zap.Error(err))
	}
}

// Invalidate 新的作答写入后调用
func (c *RedisStatsCache) Invalidate(ctx context.Context) {
	c.Redis.Del(ctx, staffStatsKey)
}

func NewStatsCache(rdb *redis.Client) StatsCache {
	if rdb == nil {
		return nopStatsCache{}
	}
	return &RedisStatsCache{Redis: rdb}
}
