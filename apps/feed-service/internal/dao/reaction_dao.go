package dao

import (
	"context"
	"fmt"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/pkg/database"
)

const reactionFlagsSQL = `SELECT
	EXISTS(SELECT 1 FROM likes WHERE user_id = @user AND post_id = @post) AS liked,
	EXISTS(SELECT 1 FROM bookmarks WHERE user_id = @user AND post_id = @post) AS marked,
	EXISTS(SELECT 1 FROM ratings WHERE user_id = @user AND post_id = @post) AS rated`

// reactionDAO 互动数据访问实现
type reactionDAO struct {
	db *database.PostgreSQL
}

// NewReactionDAO 创建互动DAO实例
func NewReactionDAO(db *database.PostgreSQL) ReactionDAO {
	return &reactionDAO{db: db}
}

// GetReactionFlags 一次查询得到点赞、收藏、评分三个标记
func (d *reactionDAO) GetReactionFlags(ctx context.Context, userID, postID int64) (*model.ReactionFlags, error) {
	var flags model.ReactionFlags
	err := d.db.WithContext(ctx).
		Raw(reactionFlagsSQL, map[string]interface{}{"user": userID, "post": postID}).
		Scan(&flags).Error
	if err != nil {
		return nil, fmt.Errorf("get reactions of user %d on post %d: %w", userID, postID, err)
	}
	return &flags, nil
}

// mapDAO 我的地图数据访问实现
type mapDAO struct {
	db *database.PostgreSQL
}

// NewMapDAO 创建我的地图DAO实例
func NewMapDAO(db *database.PostgreSQL) MapDAO {
	return &mapDAO{db: db}
}

// Exists 地点是否已保存到用户的地图
func (d *mapDAO) Exists(ctx context.Context, userID, locationID int64) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&model.MyMapLocation{}).
		Where("user_id = ? AND location_id = ?", userID, locationID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check my map of user %d: %w", userID, err)
	}
	return count > 0, nil
}
