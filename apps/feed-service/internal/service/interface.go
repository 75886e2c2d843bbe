package service

import (
	"context"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/apps/feed-service/internal/visibility"
)

// FeedService 信息流服务接口
type FeedService interface {
	// GetFeed 信息流。Mode 非空时走搜索索引，按索引排名返回；否则按关系库显式排序返回
	GetFeed(ctx context.Context, viewerID int64, req *model.FeedRequest) (*model.FeedResult, error)
	// GetPost 不可见与不存在都返回 model.ErrNotFound
	GetPost(ctx context.Context, viewerID, postID int64) (*model.PostView, error)
	// GetOwnPost 只允许创建者读取，非创建者返回 model.ErrForbidden
	GetOwnPost(ctx context.Context, viewerID, postID int64) (*model.PostView, error)
}

// Enricher 帖子富化
type Enricher interface {
	EnrichBatch(ctx context.Context, viewerID int64, posts []*model.Post, rel *visibility.Relations) ([]*model.PostView, error)
}

// ServiceConfig 服务配置
type ServiceConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}
