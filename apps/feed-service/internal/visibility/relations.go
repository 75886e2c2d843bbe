package visibility

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"tripfeed/apps/feed-service/internal/model"
)

// RelationSource 拉黑图与关注图
type RelationSource interface {
	// GetBlockedIDs 返回与 userID 互相拉黑的用户（任一方向）
	GetBlockedIDs(ctx context.Context, userID int64) ([]int64, error)
	// GetFollowingIDs 返回 userID 关注的用户
	GetFollowingIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Relations 一次请求内的只读关系快照
type Relations struct {
	blocked   map[int64]struct{}
	following map[int64]struct{}
}

// NewRelations .
func NewRelations(blockedIDs, followingIDs []int64) *Relations {
	return &Relations{
		blocked:   toSet(blockedIDs),
		following: toSet(followingIDs),
	}
}

// LoadRelations 并发获取 viewer 的拉黑集合与关注集合。匿名用户返回空关系。
func LoadRelations(ctx context.Context, src RelationSource, viewerID int64) (*Relations, error) {
	if viewerID <= 0 {
		return NewRelations(nil, nil), nil
	}

	var blocked, following []int64
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := src.GetBlockedIDs(ctx, viewerID)
		if err != nil {
			return model.NewRetrievalError("blocked ids", err)
		}
		blocked = ids
		return nil
	})
	g.Go(func() error {
		ids, err := src.GetFollowingIDs(ctx, viewerID)
		if err != nil {
			return model.NewRetrievalError("following ids", err)
		}
		following = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load relations of user %d: %w", viewerID, err)
	}

	return NewRelations(blocked, following), nil
}

// IsBlocked .
func (r *Relations) IsBlocked(userID int64) bool {
	if r == nil {
		return false
	}
	_, ok := r.blocked[userID]
	return ok
}

// IsFollowing .
func (r *Relations) IsFollowing(userID int64) bool {
	if r == nil {
		return false
	}
	_, ok := r.following[userID]
	return ok
}

// BlockedIDs 升序返回，保证生成的查询稳定
func (r *Relations) BlockedIDs() []int64 {
	if r == nil {
		return []int64{}
	}
	return sortedKeys(r.blocked)
}

// FollowingIDs 升序返回
func (r *Relations) FollowingIDs() []int64 {
	if r == nil {
		return []int64{}
	}
	return sortedKeys(r.following)
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range lo.Uniq(ids) {
		set[id] = struct{}{}
	}
	return set
}

func sortedKeys(set map[int64]struct{}) []int64 {
	keys := lo.Keys(set)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
