package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"tripfeed/apps/feed-service/internal/dao"
	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/apps/feed-service/internal/search"
	"tripfeed/apps/feed-service/internal/visibility"
	"tripfeed/pkg/logger"
	"tripfeed/pkg/telemetry"
)

// feedService 信息流服务实现
type feedService struct {
	postDAO   dao.PostDAO
	searchDAO dao.SearchDAO
	relations visibility.RelationSource
	enricher  Enricher
	config    *ServiceConfig
	logger    logger.Logger
}

// NewFeedService 创建信息流服务实例
func NewFeedService(
	postDAO dao.PostDAO,
	searchDAO dao.SearchDAO,
	relations visibility.RelationSource,
	enricher Enricher,
	config *ServiceConfig,
	log logger.Logger,
) FeedService {
	if config == nil {
		config = &ServiceConfig{}
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = model.DefaultPageSize
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = model.MaxPageSize
	}

	return &feedService{
		postDAO:   postDAO,
		searchDAO: searchDAO,
		relations: relations,
		enricher:  enricher,
		config:    config,
		logger:    log,
	}
}

// ============ 信息流 ============

// GetFeed 获取信息流
func (s *feedService) GetFeed(ctx context.Context, viewerID int64, req *model.FeedRequest) (*model.FeedResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.service.GetFeed")
	defer span.End()

	req, err := s.normalizeFeedRequest(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("viewer.id", viewerID),
		attribute.String("feed.mode", string(req.Mode)),
		attribute.Bool("feed.free_text", req.FreeText != ""),
		attribute.Int("feed.limit", req.Filter.Limit),
		attribute.Int("feed.offset", req.Filter.Offset),
	)

	rel, err := visibility.LoadRelations(ctx, s.relations, viewerID)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to load relations", err)
	}

	var result *model.FeedResult
	if req.Mode != model.FeedModeNone {
		result, err = s.searchFeed(ctx, viewerID, req, rel)
	} else {
		result, err = s.relationalFeed(ctx, viewerID, req, rel)
	}
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to get feed", err)
	}

	span.SetAttributes(
		attribute.Int64("result.count", result.Count),
		attribute.Int("result.size", len(result.Data)),
	)
	span.SetStatus(codes.Ok, "feed fetched")
	return result, nil
}

// searchFeed 索引给出排名，关系库取回记录后复核可见性并还原排名
func (s *feedService) searchFeed(ctx context.Context, viewerID int64, req *model.FeedRequest, rel *visibility.Relations) (*model.FeedResult, error) {
	query := search.Compile(search.CompileRequest{
		Mode:       req.Mode,
		FreeText:   req.FreeText,
		Scope:      req.Scope,
		FollowIDs:  rel.FollowingIDs(),
		BlockedIDs: rel.BlockedIDs(),
		Orders:     req.Filter.Orders,
		Limit:      req.Filter.Limit,
		Offset:     req.Filter.Offset,
	})

	ranked, err := s.searchDAO.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	posts, err := s.postDAO.FindPostsByIDs(ctx, ranked.IDs)
	if err != nil {
		return nil, model.NewRetrievalError("post store", err)
	}

	visible := visibility.Filter(viewerID, posts, rel)
	if dropped := len(posts) - len(visible); dropped > 0 {
		s.logger.Debug(ctx, "Search hits rejected by visibility check",
			logger.F("viewer_id", viewerID),
			logger.F("dropped", dropped))
	}
	ordered := search.Reconcile(ranked.IDs, visible, func(p *model.Post) int64 { return p.ID })

	views, err := s.enricher.EnrichBatch(ctx, viewerID, ordered, rel)
	if err != nil {
		return nil, err
	}
	return &model.FeedResult{Count: ranked.Total, Data: views}, nil
}

// relationalFeed 可见性条件下推到关系库，计数与分页查询并发执行
func (s *feedService) relationalFeed(ctx context.Context, viewerID int64, req *model.FeedRequest, rel *visibility.Relations) (*model.FeedResult, error) {
	scope := visibility.Scope(viewerID, rel)

	var total int64
	var posts []*model.Post
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.postDAO.CountPosts(gctx, &req.Filter, scope)
		if err != nil {
			return model.NewRetrievalError("post count", err)
		}
		total = count
		return nil
	})
	g.Go(func() error {
		found, err := s.postDAO.FindPosts(gctx, &req.Filter, scope)
		if err != nil {
			return model.NewRetrievalError("post store", err)
		}
		posts = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views, err := s.enricher.EnrichBatch(ctx, viewerID, visibility.Filter(viewerID, posts, rel), rel)
	if err != nil {
		return nil, err
	}
	return &model.FeedResult{Count: total, Data: views}, nil
}

// ============ 单条 ============

// GetPost 获取单条帖子
func (s *feedService) GetPost(ctx context.Context, viewerID, postID int64) (*model.PostView, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.service.GetPost")
	defer span.End()
	span.SetAttributes(attribute.Int64("viewer.id", viewerID), attribute.Int64("post.id", postID))

	post, rel, err := s.loadPost(ctx, viewerID, postID)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to get post", err)
	}

	// 不可见与不存在对外表现一致
	if !visibility.CanView(viewerID, post, rel) {
		s.logger.Debug(ctx, "Post hidden from viewer",
			logger.F("post_id", postID),
			logger.F("viewer_id", viewerID))
		span.SetStatus(codes.Error, "post not visible")
		return nil, model.ErrNotFound
	}

	view, err := s.enrichOne(ctx, viewerID, post, rel)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to enrich post", err)
	}
	span.SetStatus(codes.Ok, "post fetched")
	return view, nil
}

// GetOwnPost 创建者读取自己的帖子
func (s *feedService) GetOwnPost(ctx context.Context, viewerID, postID int64) (*model.PostView, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.service.GetOwnPost")
	defer span.End()
	span.SetAttributes(attribute.Int64("viewer.id", viewerID), attribute.Int64("post.id", postID))

	post, rel, err := s.loadPost(ctx, viewerID, postID)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to get own post", err)
	}

	if viewerID <= 0 || post.CreatorID != viewerID {
		s.logger.Warn(ctx, "Viewer is not the post owner",
			logger.F("post_id", postID),
			logger.F("viewer_id", viewerID))
		span.SetStatus(codes.Error, "not the owner")
		return nil, model.ErrForbidden
	}

	view, err := s.enrichOne(ctx, viewerID, post, rel)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to enrich own post", err)
	}
	span.SetStatus(codes.Ok, "own post fetched")
	return view, nil
}

// loadPost 并发读取帖子与查看者关系
func (s *feedService) loadPost(ctx context.Context, viewerID, postID int64) (*model.Post, *visibility.Relations, error) {
	if postID <= 0 {
		return nil, nil, fmt.Errorf("%w: invalid post id %d", model.ErrInvalidParams, postID)
	}

	var post *model.Post
	var rel *visibility.Relations
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.postDAO.GetPost(gctx, postID)
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		if err != nil {
			return model.NewRetrievalError("post store", err)
		}
		post = found
		return nil
	})
	g.Go(func() error {
		loaded, err := visibility.LoadRelations(gctx, s.relations, viewerID)
		if err != nil {
			return err
		}
		rel = loaded
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return post, rel, nil
}

func (s *feedService) enrichOne(ctx context.Context, viewerID int64, post *model.Post, rel *visibility.Relations) (*model.PostView, error) {
	views, err := s.enricher.EnrichBatch(ctx, viewerID, []*model.Post{post}, rel)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ============ 辅助方法 ============

// normalizeFeedRequest 校验请求并补齐分页默认值，返回副本
func (s *feedService) normalizeFeedRequest(in *model.FeedRequest) (*model.FeedRequest, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: empty request", model.ErrInvalidParams)
	}
	req := *in

	switch req.Mode {
	case model.FeedModeNone, model.FeedModeCommunity, model.FeedModeFollow:
	default:
		return nil, fmt.Errorf("%w: unsupported feed mode %q", model.ErrInvalidParams, req.Mode)
	}

	filter := &req.Filter
	if filter.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", model.ErrInvalidParams)
	}
	if filter.Limit <= 0 {
		filter.Limit = s.config.DefaultPageSize
	}
	if filter.Limit > s.config.MaxPageSize {
		filter.Limit = s.config.MaxPageSize
	}

	for _, o := range filter.Orders {
		if !search.IsSortable(o.Field) {
			return nil, fmt.Errorf("%w: unsupported order field %q", model.ErrInvalidParams, o.Field)
		}
		if o.Direction != model.SortOrderAsc && o.Direction != model.SortOrderDesc {
			return nil, fmt.Errorf("%w: unsupported order direction %q", model.ErrInvalidParams, o.Direction)
		}
	}
	return &req, nil
}

// fail 业务错误直接返回，其余记录到日志和 span
func (s *feedService) fail(ctx context.Context, span trace.Span, msg string, err error) error {
	var feedErr *model.FeedError
	if errors.As(err, &feedErr) {
		span.SetStatus(codes.Error, feedErr.Code)
		return err
	}

	s.logger.Error(ctx, msg, logger.F("error", err.Error()))
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}
