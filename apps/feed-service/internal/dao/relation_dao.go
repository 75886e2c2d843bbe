package dao

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/pkg/database"
)

// relationDAO 社交关系数据访问实现
type relationDAO struct {
	db *database.PostgreSQL
}

// NewRelationDAO 创建关系DAO实例
func NewRelationDAO(db *database.PostgreSQL) RelationDAO {
	return &relationDAO{db: db}
}

// GetBlockedIDs 合并两个方向的拉黑记录：我拉黑的人和拉黑我的人
func (d *relationDAO) GetBlockedIDs(ctx context.Context, userID int64) ([]int64, error) {
	var blocking, blockedBy []int64

	err := d.db.WithContext(ctx).Model(&model.Block{}).
		Where("user_id = ?", userID).
		Pluck("creator_id", &blocking).Error
	if err != nil {
		return nil, fmt.Errorf("query blocking of user %d: %w", userID, err)
	}

	err = d.db.WithContext(ctx).Model(&model.Block{}).
		Where("creator_id = ?", userID).
		Pluck("user_id", &blockedBy).Error
	if err != nil {
		return nil, fmt.Errorf("query blockers of user %d: %w", userID, err)
	}

	return lo.Union(blocking, blockedBy), nil
}

// GetFollowingIDs 获取关注列表
func (d *relationDAO) GetFollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	var following []int64
	err := d.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &following).Error
	if err != nil {
		return nil, fmt.Errorf("query following of user %d: %w", userID, err)
	}
	return following, nil
}
