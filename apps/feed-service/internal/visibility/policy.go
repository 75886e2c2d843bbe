// Package visibility 帖子可见性判断：拥有者、可见范围、关注与拉黑关系。
//
// 同一套规则有两种形态：CanView 是权威的逐条判断，Scope 是下推到关系库的 where 条件。
// 关系库按条件查出的结果仍需经过 CanView 复核。
package visibility

import (
	"gorm.io/gorm"

	"tripfeed/apps/feed-service/internal/model"
)

// CanView 判断 viewer 是否可以看到 post，按顺序命中即返回
func CanView(viewerID int64, post *model.Post, rel *Relations) bool {
	if post == nil || post.IsDeleted() {
		return false
	}

	// 拉黑双向生效，无论可见范围
	if rel.IsBlocked(post.CreatorID) {
		return false
	}

	isOwner := viewerID > 0 && viewerID == post.CreatorID

	// 活动草稿只有创建者可见
	if post.PostType == model.PostTypeActivity && post.Status == model.PostStatusDraft && !isOwner {
		return false
	}

	switch post.AccessType {
	case model.AccessPrivate:
		return isOwner
	case model.AccessFollow:
		return isOwner || rel.IsFollowing(post.CreatorID)
	case model.AccessPublic:
		return true
	default:
		return false
	}
}

// Filter 对查询结果做权威复核，返回新切片，不修改入参
func Filter(viewerID int64, posts []*model.Post, rel *Relations) []*model.Post {
	visible := make([]*model.Post, 0, len(posts))
	for _, post := range posts {
		if CanView(viewerID, post, rel) {
			visible = append(visible, post)
		}
	}
	return visible
}

// Scope 将可见性规则转换为 gorm 查询条件。软删除由 gorm.DeletedAt 自动过滤。
func Scope(viewerID int64, rel *Relations) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		// NOT IN 空集合会被渲染成 NOT IN (NULL)，必须跳过
		if blocked := rel.BlockedIDs(); len(blocked) > 0 {
			db = db.Where("posts.creator_id NOT IN ?", blocked)
		}

		db = db.Where("NOT (posts.post_type = ? AND posts.status = ? AND posts.creator_id <> ?)",
			model.PostTypeActivity, model.PostStatusDraft, viewerID)

		return db.Where(
			"(posts.access_type = ?"+
				" OR (posts.access_type = ? AND posts.creator_id = ?)"+
				" OR (posts.access_type = ? AND (posts.creator_id = ? OR posts.creator_id IN ?)))",
			model.AccessPublic,
			model.AccessPrivate, viewerID,
			model.AccessFollow, viewerID, rel.FollowingIDs(),
		)
	}
}
