package enrich

import (
	"encoding/json"
	"fmt"

	"tripfeed/apps/feed-service/internal/model"
)

// postMediaResolver 按帖子类型取媒体
type postMediaResolver func(post *model.Post) ([]model.Media, error)

// taskMediaResolver 按地点类型从物化视图取媒体
type taskMediaResolver func(view *model.MaterializedLocation) []model.Media

var postMediaResolvers = map[model.PostType]postMediaResolver{
	model.PostTypeSharePlan: snapshotMedias,
}

var taskMediaResolvers = map[model.LocationType]taskMediaResolver{
	model.LocationTypeWhere: func(v *model.MaterializedLocation) []model.Media { return cloneMedias(v.PostMedias) },
	model.LocationTypeTour:  func(v *model.MaterializedLocation) []model.Media { return cloneMedias(v.TourMedias) },
	model.LocationTypeFood:  backgroundMedias,
	model.LocationTypeStay:  backgroundMedias,
}

// resolvePostMedias 分享行程使用分享时的快照，其余使用实时媒体
func resolvePostMedias(post *model.Post) ([]model.Media, error) {
	if resolve, ok := postMediaResolvers[post.PostType]; ok {
		return resolve(post)
	}
	return liveMedias(post)
}

func liveMedias(post *model.Post) ([]model.Media, error) {
	medias := make([]model.Media, 0, len(post.Medias))
	for _, m := range post.Medias {
		medias = append(medias, m.Media())
	}
	return medias, nil
}

func snapshotMedias(post *model.Post) ([]model.Media, error) {
	medias := []model.Media{}
	if post.SharedMedias == "" || post.SharedMedias == "null" {
		return medias, nil
	}
	if err := json.Unmarshal([]byte(post.SharedMedias), &medias); err != nil {
		return []model.Media{}, fmt.Errorf("decode shared medias of post %d: %w", post.ID, err)
	}
	return medias, nil
}

// resolveTaskMedias 未知或缺失的地点类型返回空列表
func resolveTaskMedias(view *model.MaterializedLocation) []model.Media {
	if view == nil {
		return []model.Media{}
	}
	resolve, ok := taskMediaResolvers[view.LocationType]
	if !ok {
		return []model.Media{}
	}
	return resolve(view)
}

func backgroundMedias(v *model.MaterializedLocation) []model.Media {
	if v.BackgroundMedia == nil {
		return []model.Media{}
	}
	return []model.Media{*v.BackgroundMedia}
}

func cloneMedias(medias []model.Media) []model.Media {
	return append(make([]model.Media, 0, len(medias)), medias...)
}
