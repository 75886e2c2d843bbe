package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/pkg/database"
)

// planDAO 行程数据访问实现
type planDAO struct {
	db *database.PostgreSQL
}

// NewPlanDAO 创建行程DAO实例
func NewPlanDAO(db *database.PostgreSQL) PlanDAO {
	return &planDAO{db: db}
}

// GetPlanWithTasks 获取行程及有序任务
func (d *planDAO) GetPlanWithTasks(ctx context.Context, planID int64) (*model.Plan, error) {
	var plan model.Plan
	err := d.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_date ASC, task_index ASC")
		}).
		Where("id = ?", planID).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get plan %d: %w", planID, err)
	}
	return &plan, nil
}
