package dao

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tripfeed/apps/feed-service/internal/model"
)

// LocationViewCollection 地点物化视图集合，由外部索引器维护
const LocationViewCollection = "location_views"

type locationViewDAO struct {
	db *mongo.Database
}

// NewLocationViewDAO 创建地点物化视图DAO实例
func NewLocationViewDAO(db *mongo.Database) LocationViewDAO {
	return &locationViewDAO{db: db}
}

// FindByIDs 批量读取地点物化视图，不存在的地点直接跳过
func (d *locationViewDAO) FindByIDs(ctx context.Context, locationIDs []int64) ([]*model.MaterializedLocation, error) {
	ids := lo.Uniq(locationIDs)
	if len(ids) == 0 {
		return []*model.MaterializedLocation{}, nil
	}

	collection := d.db.Collection(LocationViewCollection)
	cursor, err := collection.Find(ctx, bson.M{"locationId": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find location views: %w", err)
	}
	defer cursor.Close(ctx)

	views := make([]*model.MaterializedLocation, 0, len(ids))
	if err := cursor.All(ctx, &views); err != nil {
		return nil, fmt.Errorf("decode location views: %w", err)
	}
	return views, nil
}
