package dao

import (
	"context"
	"fmt"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/pkg/database"
)

// activityDAO 活动参与数据访问实现
type activityDAO struct {
	db *database.PostgreSQL
}

// NewActivityDAO 创建活动DAO实例
func NewActivityDAO(db *database.PostgreSQL) ActivityDAO {
	return &activityDAO{db: db}
}

// CountParticipants 统计参与人数，REMOVE 不计入，UNINVITED/INVITED/JOIN 均计入
func (d *activityDAO) CountParticipants(ctx context.Context, activityID int64) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&model.ActivityParticipant{}).
		Where("activity_id = ? AND status <> ?", activityID, model.ParticipantRemove).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count participants of activity %d: %w", activityID, err)
	}
	return count, nil
}

// HasJoined 用户是否有未被移除的参与记录
func (d *activityDAO) HasJoined(ctx context.Context, activityID, userID int64) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&model.ActivityParticipant{}).
		Where("activity_id = ? AND user_id = ? AND status <> ?", activityID, userID, model.ParticipantRemove).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check participant %d of activity %d: %w", userID, activityID, err)
	}
	return count > 0, nil
}
