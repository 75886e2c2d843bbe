package dao

import (
	"context"

	"gorm.io/gorm"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/apps/feed-service/internal/search"
)

// Scope 附加在帖子查询上的条件，可见性规则通过它下推到关系库
type Scope = func(*gorm.DB) *gorm.DB

// PostDAO 帖子数据访问接口
type PostDAO interface {
	// FindPosts 按条件分页查询，结果预加载媒体、地点、行程
	FindPosts(ctx context.Context, filter *model.PostFilter, scopes ...Scope) ([]*model.Post, error)
	CountPosts(ctx context.Context, filter *model.PostFilter, scopes ...Scope) (int64, error)
	// GetPost 不存在或已软删除时返回 model.ErrNotFound
	GetPost(ctx context.Context, postID int64) (*model.Post, error)
	// FindPostsByIDs 不保证顺序
	FindPostsByIDs(ctx context.Context, postIDs []int64) ([]*model.Post, error)
}

// RelationDAO 拉黑图与关注图
type RelationDAO interface {
	GetBlockedIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFollowingIDs(ctx context.Context, userID int64) ([]int64, error)
}

// SearchDAO 执行编译后的查询，返回排名后的帖子ID和索引总数
type SearchDAO interface {
	Execute(ctx context.Context, query *search.Query) (*search.Ranked, error)
}

// LocationViewDAO 地点媒体物化视图（只读）
type LocationViewDAO interface {
	FindByIDs(ctx context.Context, locationIDs []int64) ([]*model.MaterializedLocation, error)
}

// ActivityDAO 活动参与
type ActivityDAO interface {
	// CountParticipants 统计状态不为 REMOVE 的参与者
	CountParticipants(ctx context.Context, activityID int64) (int64, error)
	HasJoined(ctx context.Context, activityID, userID int64) (bool, error)
}

// PlanDAO 行程
type PlanDAO interface {
	// GetPlanWithTasks 任务按 (task_date, task_index) 排序
	GetPlanWithTasks(ctx context.Context, planID int64) (*model.Plan, error)
}

// ReactionDAO 点赞、收藏、评分
type ReactionDAO interface {
	GetReactionFlags(ctx context.Context, userID, postID int64) (*model.ReactionFlags, error)
}

// MapDAO 我的地图
type MapDAO interface {
	Exists(ctx context.Context, userID, locationID int64) (bool, error)
}
