package repository

import (
	"context"

	"wakeup-schedule/pkg/redis"
)

type redisSkipFlagRepo struct {
	rdb *redis.Client
}

// NewRedisSkipFlagRepo 创建基于 Redis 集合的 SkipFlagRepository
// SADD/SREM 的返回值即可判断是否发生变化，无需额外加锁
func NewRedisSkipFlagRepo(rdb *redis.Client) SkipFlagRepository {
	return &redisSkipFlagRepo{rdb: rdb}
}

func (r *redisSkipFlagRepo) Get(ctx context.Context, userID string) (bool, error) {
	flags, err := r.rdb.SkipMembers(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(flags) == 1 && flags[0], nil
}

func (r *redisSkipFlagRepo) GetMany(ctx context.Context, userIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(userIDs))
	flags, err := r.rdb.SkipMembers(ctx, userIDs...)
	if err != nil {
		return nil, err
	}
	for i, on := range flags {
		if on {
			result[userIDs[i]] = true
		}
	}
	return result, nil
}

func (r *redisSkipFlagRepo) CompareAndSet(ctx context.Context, userID string, skipping bool) (bool, error) {
	if skipping {
		return r.rdb.SkipAdd(ctx, userID)
	}
	return r.rdb.SkipRemove(ctx, userID)
}
