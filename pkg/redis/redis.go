package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wakeup-schedule/config"
)

// Client Redis 客户端封装
// 用于 Token 黑名单、接口限流、翘课标记存储与提醒去重
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 限流 ──

// CheckRateLimit 滑动窗口限流：窗口内请求数未超过 limit 时返回 true
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixNano()
	windowStart := now - window.Nanoseconds()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now), Member: now})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return count.Val() <= int64(limit), nil
}

// ── 翘课标记 ──

const skipSetKey = "schedule:skip"

// SkipAdd 将用户加入翘课集合；added=false 表示此前已在集合中
func (c *Client) SkipAdd(ctx context.Context, userID string) (bool, error) {
	n, err := c.rdb.SAdd(ctx, skipSetKey, userID).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SkipRemove 将用户移出翘课集合；removed=false 表示此前不在集合中
func (c *Client) SkipRemove(ctx context.Context, userID string) (bool, error) {
	n, err := c.rdb.SRem(ctx, skipSetKey, userID).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SkipMembers 批量查询用户是否处于翘课状态，结果与 userIDs 一一对应
func (c *Client) SkipMembers(ctx context.Context, userIDs ...string) ([]bool, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	members := make([]interface{}, len(userIDs))
	for i, id := range userIDs {
		members[i] = id
	}
	return c.rdb.SMIsMember(ctx, skipSetKey, members...).Result()
}

// ── 提醒去重 ──

const remindPrefix = "remind:sent:"

// MarkReminded 记录一次提醒，返回 false 表示该提醒已发送过
func (c *Client) MarkReminded(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, remindPrefix+key, "1", ttl).Result()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
