package dao

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/samber/lo"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/pkg/logger"
)

// emptySetMarker 写入每个缓存集合，用来区分“空集合”和“未缓存”
const emptySetMarker = "0"

// RelationCache 关系集合缓存存储
type RelationCache interface {
	SMembers(ctx context.Context, key string) ([]string, error)
	SAddWithTTL(ctx context.Context, key string, ttl time.Duration, members ...interface{}) error
	Del(ctx context.Context, keys ...string) error
}

// RelationInvalidator 关系变更后清除缓存
type RelationInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...int64) error
}

// CachedRelationDAO 带 Redis 缓存的关系DAO
type CachedRelationDAO struct {
	next   RelationDAO
	cache  RelationCache
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedRelationDAO 创建带缓存的关系DAO
func NewCachedRelationDAO(next RelationDAO, cache RelationCache, ttl time.Duration, log logger.Logger) *CachedRelationDAO {
	return &CachedRelationDAO{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

// GetBlockedIDs 优先读缓存
func (d *CachedRelationDAO) GetBlockedIDs(ctx context.Context, userID int64) ([]int64, error) {
	return d.load(ctx, blockedKey(userID), func() ([]int64, error) {
		return d.next.GetBlockedIDs(ctx, userID)
	})
}

// GetFollowingIDs 优先读缓存
func (d *CachedRelationDAO) GetFollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	return d.load(ctx, followingKey(userID), func() ([]int64, error) {
		return d.next.GetFollowingIDs(ctx, userID)
	})
}

// Invalidate 清除用户的拉黑与关注缓存
func (d *CachedRelationDAO) Invalidate(ctx context.Context, userIDs ...int64) error {
	keys := make([]string, 0, len(userIDs)*2)
	for _, userID := range lo.Uniq(userIDs) {
		keys = append(keys, blockedKey(userID), followingKey(userID))
	}
	if len(keys) == 0 {
		return nil
	}

	if err := d.cache.Del(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate relation cache: %w", err)
	}
	return nil
}

// load 缓存读写失败只记录日志，以数据库结果为准
func (d *CachedRelationDAO) load(ctx context.Context, key string, fetch func() ([]int64, error)) ([]int64, error) {
	members, err := d.cache.SMembers(ctx, key)
	if err != nil {
		d.logger.Warn(ctx, "Relation cache read failed",
			logger.F("key", key),
			logger.F("error", err.Error()))
	} else if len(members) > 0 {
		return parseMembers(members), nil
	}

	ids, err := fetch()
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, 0, len(ids)+1)
	values = append(values, emptySetMarker)
	for _, id := range ids {
		values = append(values, strconv.FormatInt(id, 10))
	}
	if err := d.cache.SAddWithTTL(ctx, key, d.ttl, values...); err != nil {
		d.logger.Warn(ctx, "Relation cache write failed",
			logger.F("key", key),
			logger.F("error", err.Error()))
	}

	return ids, nil
}

func parseMembers(members []string) []int64 {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if m == emptySetMarker {
			continue
		}
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func blockedKey(userID int64) string {
	return fmt.Sprintf("%s:%d", model.CacheKeyBlocked, userID)
}

func followingKey(userID int64) string {
	return fmt.Sprintf("%s:%d", model.CacheKeyFollowing, userID)
}
