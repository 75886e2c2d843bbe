// Package enrich 将存储的帖子记录转换为返回给客户端的视图。
//
// 批量接口先一次性取齐共享的外部数据（关系集合、地点物化视图），再对每条记录并发执行相同的转换，
// 每个结果写入各自的槽位。
package enrich

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"tripfeed/apps/feed-service/internal/dao"
	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/apps/feed-service/internal/visibility"
	"tripfeed/pkg/logger"
	"tripfeed/pkg/telemetry"
)

// DefaultConcurrency 单次批量富化的并发上限
const DefaultConcurrency = 8

// Dependencies 富化所需的外部依赖
type Dependencies struct {
	Relations  visibility.RelationSource
	Posts      dao.PostDAO
	Locations  dao.LocationViewDAO
	Activities dao.ActivityDAO
	Plans      dao.PlanDAO
	Reactions  dao.ReactionDAO
	Maps       dao.MapDAO
}

// Pipeline 帖子富化流水线
type Pipeline struct {
	deps        Dependencies
	concurrency int
	logger      logger.Logger
}

// NewPipeline 创建富化流水线，concurrency <= 0 时使用默认值
func NewPipeline(deps Dependencies, concurrency int, log logger.Logger) *Pipeline {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Pipeline{
		deps:        deps,
		concurrency: concurrency,
		logger:      log,
	}
}

// Enrich 富化单条记录
func (p *Pipeline) Enrich(ctx context.Context, viewerID int64, post *model.Post) (*model.PostView, error) {
	rel, err := visibility.LoadRelations(ctx, p.deps.Relations, viewerID)
	if err != nil {
		return nil, err
	}

	views, err := p.EnrichBatch(ctx, viewerID, []*model.Post{post}, rel)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// EnrichBatch 批量富化，结果与入参一一对应。rel 为 nil 时自行加载
func (p *Pipeline) EnrichBatch(ctx context.Context, viewerID int64, posts []*model.Post, rel *visibility.Relations) ([]*model.PostView, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.enrich.EnrichBatch")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("viewer.id", viewerID),
		attribute.Int("posts.count", len(posts)),
	)

	if len(posts) == 0 {
		return []*model.PostView{}, nil
	}

	if rel == nil {
		var err error
		if rel, err = visibility.LoadRelations(ctx, p.deps.Relations, viewerID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to load relations")
			return nil, err
		}
	}

	locations, err := p.loadLocationViews(ctx, planLocationIDs(posts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load location views")
		return nil, err
	}

	views := make([]*model.PostView, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, post := range posts {
		i, post := i, post
		g.Go(func() error {
			view, err := p.enrichOne(gctx, viewerID, post, rel, locations)
			if err != nil {
				return fmt.Errorf("enrich post %d: %w", post.ID, err)
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to enrich posts")
		return nil, err
	}

	span.SetStatus(codes.Ok, "posts enriched")
	return views, nil
}

// enrichOne 外层记录的完整富化
func (p *Pipeline) enrichOne(ctx context.Context, viewerID int64, post *model.Post, rel *visibility.Relations, locations map[int64]*model.MaterializedLocation) (*model.PostView, error) {
	view := newPostView(post)
	view.Medias = p.medias(ctx, post)

	if post.PostType == model.PostTypeSharePlan && post.Plan != nil {
		view.Plan = buildPlanView(post.Plan, locations)
	}

	g, gctx := errgroup.WithContext(ctx)

	if post.ActivityID != nil {
		g.Go(func() error {
			activity, err := p.activityView(gctx, viewerID, *post.ActivityID)
			if err != nil {
				return err
			}
			view.Activity = activity
			return nil
		})
	}

	if post.PostType == model.PostTypeShared && post.SourcePostID != nil {
		g.Go(func() error {
			source, err := p.sourceView(gctx, viewerID, *post.SourcePostID, rel)
			if err != nil {
				return err
			}
			view.SourcePost = source
			return nil
		})
	}

	// 匿名用户没有互动记录
	if viewerID > 0 {
		g.Go(func() error {
			flags, err := p.deps.Reactions.GetReactionFlags(gctx, viewerID, post.ID)
			if err != nil {
				return model.NewRetrievalError("reaction flags", err)
			}
			view.Liked, view.Marked, view.Rated = flags.Liked, flags.Marked, flags.Rated
			return nil
		})

		if post.LocationID != nil {
			g.Go(func() error {
				saved, err := p.deps.Maps.Exists(gctx, viewerID, *post.LocationID)
				if err != nil {
					return model.NewRetrievalError("my map", err)
				}
				view.SavedToMap = saved
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	view.Location = redactLocation(viewerID, post)
	return view, nil
}

// sourceView 转发帖的原帖，只展开一层。不可见或不存在时返回 nil
func (p *Pipeline) sourceView(ctx context.Context, viewerID, sourceID int64, rel *visibility.Relations) (*model.PostView, error) {
	source, err := p.deps.Posts.GetPost(ctx, sourceID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewRetrievalError("source post", err)
	}

	if !visibility.CanView(viewerID, source, rel) {
		p.logger.Debug(ctx, "Source post hidden from viewer",
			logger.F("source_post_id", sourceID),
			logger.F("viewer_id", viewerID))
		return nil, nil
	}

	view := newPostView(source)
	view.Medias = p.medias(ctx, source)

	if source.ActivityID != nil {
		activity, err := p.activityView(ctx, viewerID, *source.ActivityID)
		if err != nil {
			return nil, err
		}
		view.Activity = activity
	}

	if source.PostType == model.PostTypeSharePlan && source.PlanID != nil {
		view.Plan = p.sourcePlanView(ctx, *source.PlanID)
	}

	view.Location = redactLocation(viewerID, source)
	return view, nil
}

// sourcePlanView 原帖的行程详情，失败时降级为不带行程
func (p *Pipeline) sourcePlanView(ctx context.Context, planID int64) *model.PlanView {
	plan, err := p.deps.Plans.GetPlanWithTasks(ctx, planID)
	if err != nil {
		p.logger.Warn(ctx, "Failed to load source plan, degrading",
			logger.F("plan_id", planID),
			logger.F("error", err.Error()))
		return nil
	}

	ids := lo.Uniq(lo.Map(plan.Tasks, func(t model.Task, _ int) int64 { return t.LocationID }))
	locations, err := p.loadLocationViews(ctx, ids)
	if err != nil {
		p.logger.Warn(ctx, "Failed to load source plan locations, degrading",
			logger.F("plan_id", planID),
			logger.F("error", err.Error()))
		return nil
	}

	return buildPlanView(plan, locations)
}

// activityView 参与人数与是否已加入并发查询
func (p *Pipeline) activityView(ctx context.Context, viewerID, activityID int64) (*model.ActivityView, error) {
	view := &model.ActivityView{ActivityID: activityID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := p.deps.Activities.CountParticipants(gctx, activityID)
		if err != nil {
			return model.NewRetrievalError("participant count", err)
		}
		view.ParticipantCount = count
		return nil
	})
	if viewerID > 0 {
		g.Go(func() error {
			joined, err := p.deps.Activities.HasJoined(gctx, activityID, viewerID)
			if err != nil {
				return model.NewRetrievalError("participant joined", err)
			}
			view.Joined = joined
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// medias 快照损坏时返回空列表并记录告警
func (p *Pipeline) medias(ctx context.Context, post *model.Post) []model.Media {
	medias, err := resolvePostMedias(post)
	if err != nil {
		p.logger.Warn(ctx, "Failed to resolve post medias",
			logger.F("post_id", post.ID),
			logger.F("error", err.Error()))
	}
	return medias
}

func (p *Pipeline) loadLocationViews(ctx context.Context, ids []int64) (map[int64]*model.MaterializedLocation, error) {
	if len(ids) == 0 {
		return map[int64]*model.MaterializedLocation{}, nil
	}

	views, err := p.deps.Locations.FindByIDs(ctx, ids)
	if err != nil {
		return nil, model.NewRetrievalError("location views", err)
	}
	return lo.KeyBy(views, func(v *model.MaterializedLocation) int64 { return v.LocationID }), nil
}

// planLocationIDs 收集所有分享行程帖任务中的地点
func planLocationIDs(posts []*model.Post) []int64 {
	var ids []int64
	for _, post := range posts {
		if post.PostType != model.PostTypeSharePlan || post.Plan == nil {
			continue
		}
		for _, task := range post.Plan.Tasks {
			ids = append(ids, task.LocationID)
		}
	}
	return lo.Uniq(ids)
}

func buildPlanView(plan *model.Plan, locations map[int64]*model.MaterializedLocation) *model.PlanView {
	tasks := make([]model.TaskView, 0, len(plan.Tasks))
	for _, task := range plan.Tasks {
		tasks = append(tasks, model.TaskView{
			ID:         task.ID,
			LocationID: task.LocationID,
			TaskDate:   task.TaskDate,
			Index:      task.Index,
			Status:     task.Status,
			Medias:     resolveTaskMedias(locations[task.LocationID]),
		})
	}
	return &model.PlanView{
		ID:        plan.ID,
		Name:      plan.Name,
		StartDate: plan.StartDate,
		EndDate:   plan.EndDate,
		Tasks:     tasks,
	}
}

// redactLocation 非公开地点只对创建者展示
func redactLocation(viewerID int64, post *model.Post) *model.Location {
	if post.Location == nil {
		return nil
	}
	if !post.Location.IsPublic && viewerID != post.CreatorID {
		return nil
	}
	location := *post.Location
	return &location
}

func newPostView(post *model.Post) *model.PostView {
	return &model.PostView{
		ID:           post.ID,
		CreatorID:    post.CreatorID,
		Content:      post.Content,
		AccessType:   post.AccessType,
		PostType:     post.PostType,
		Status:       post.Status,
		IsPublicPlan: post.IsPublicPlan,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
	}
}
