package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/pkg/database"
)

// postOrderColumns API 排序字段 -> 列名
var postOrderColumns = map[string]string{
	model.SortFieldCreatedAt: "created_at",
	model.SortFieldUpdatedAt: "updated_at",
}

// postDAO 帖子数据访问实现
type postDAO struct {
	db *database.PostgreSQL
}

// NewPostDAO 创建帖子DAO实例
func NewPostDAO(db *database.PostgreSQL) PostDAO {
	return &postDAO{db: db}
}

// FindPosts 按条件查询帖子
func (d *postDAO) FindPosts(ctx context.Context, filter *model.PostFilter, scopes ...Scope) ([]*model.Post, error) {
	var posts []*model.Post
	query := withPostRelations(d.db.WithContext(ctx).Model(&model.Post{}))
	query = applyPostFilter(query, filter).Scopes(scopes...)
	query = applyPostOrder(query, filter.Orders)

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	return posts, nil
}

// CountPosts 统计满足条件的帖子数
func (d *postDAO) CountPosts(ctx context.Context, filter *model.PostFilter, scopes ...Scope) (int64, error) {
	var total int64
	query := applyPostFilter(d.db.WithContext(ctx).Model(&model.Post{}), filter).Scopes(scopes...)
	if err := query.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

// GetPost 获取帖子及其关联数据
func (d *postDAO) GetPost(ctx context.Context, postID int64) (*model.Post, error) {
	var post model.Post
	err := withPostRelations(d.db.WithContext(ctx)).
		Where("posts.id = ?", postID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get post %d: %w", postID, err)
	}
	return &post, nil
}

// FindPostsByIDs 按ID批量获取帖子
func (d *postDAO) FindPostsByIDs(ctx context.Context, postIDs []int64) ([]*model.Post, error) {
	if len(postIDs) == 0 {
		return []*model.Post{}, nil
	}

	var posts []*model.Post
	err := withPostRelations(d.db.WithContext(ctx)).
		Where("posts.id IN ?", postIDs).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("find posts by ids: %w", err)
	}
	return posts, nil
}

// withPostRelations 预加载富化需要的关联
func withPostRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Medias", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Location").
		Preload("Plan.Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_date ASC, task_index ASC")
		})
}

func applyPostFilter(db *gorm.DB, filter *model.PostFilter) *gorm.DB {
	if filter == nil {
		return db
	}
	if filter.CreatorID > 0 {
		db = db.Where("posts.creator_id = ?", filter.CreatorID)
	}
	if len(filter.PostTypes) > 0 {
		db = db.Where("posts.post_type IN ?", filter.PostTypes)
	}
	if filter.LocationID > 0 {
		db = db.Where("posts.location_id = ?", filter.LocationID)
	}
	return db
}

// applyPostOrder 只接受白名单字段，最后按 id 倒序保证分页稳定
func applyPostOrder(db *gorm.DB, orders []model.Order) *gorm.DB {
	applied := false
	for _, o := range orders {
		column, ok := postOrderColumns[o.Field]
		if !ok {
			continue
		}
		db = db.Order(clause.OrderByColumn{
			Column: clause.Column{Table: "posts", Name: column},
			Desc:   o.Direction != model.SortOrderAsc,
		})
		applied = true
	}
	if !applied {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Table: "posts", Name: "created_at"}, Desc: true})
	}
	return db.Order(clause.OrderByColumn{Column: clause.Column{Table: "posts", Name: "id"}, Desc: true})
}
