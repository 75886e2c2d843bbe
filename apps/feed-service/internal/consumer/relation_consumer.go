package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"tripfeed/apps/feed-service/internal/dao"
	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/pkg/kafka"
	"tripfeed/pkg/logger"
)

// RelationEventConsumer 消费社交关系变更事件，清除双方的关系缓存
// 拉黑是双向生效的，所以事件两端的用户都要清理
type RelationEventConsumer struct {
	invalidator dao.RelationInvalidator
	logger      logger.Logger
	consumer    *kafka.Consumer
}

// NewRelationEventConsumer 创建关系事件消费者
func NewRelationEventConsumer(invalidator dao.RelationInvalidator, log logger.Logger) *RelationEventConsumer {
	return &RelationEventConsumer{
		invalidator: invalidator,
		logger:      log,
	}
}

// Start 启动消费者
func (c *RelationEventConsumer) Start(ctx context.Context, brokers []string, groupID string) error {
	cfg := kafka.KafkaConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topics:  []string{model.TopicRelationChanged},
	}

	consumer, err := kafka.InitConsumer(cfg, c, c.logger)
	if err != nil {
		return fmt.Errorf("init relation event consumer: %w", err)
	}
	c.consumer = consumer

	c.logger.Info(ctx, "Relation event consumer started",
		logger.F("topic", model.TopicRelationChanged),
		logger.F("group_id", groupID))

	return c.consumer.StartConsuming(ctx)
}

// Stop 停止消费者
func (c *RelationEventConsumer) Stop() error {
	if c.consumer == nil {
		return nil
	}
	return c.consumer.Close()
}

// HandleMessage 实现 kafka.ConsumerHandler 接口
func (c *RelationEventConsumer) HandleMessage(msg *sarama.ConsumerMessage) error {
	ctx := context.Background()

	var event model.RelationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Warn(ctx, "Drop malformed relation event",
			logger.F("partition", msg.Partition),
			logger.F("offset", msg.Offset),
			logger.F("error", err.Error()))
		return nil // 返回nil避免重试
	}

	switch event.Type {
	case model.RelationEventBlock, model.RelationEventUnblock,
		model.RelationEventFollow, model.RelationEventUnfollow:
	default:
		c.logger.Debug(ctx, "Ignore relation event", logger.F("type", event.Type))
		return nil
	}

	if err := c.invalidator.Invalidate(ctx, event.UserID, event.TargetID); err != nil {
		c.logger.Error(ctx, "Failed to invalidate relation cache",
			logger.F("type", event.Type),
			logger.F("user_id", event.UserID),
			logger.F("target_id", event.TargetID),
			logger.F("error", err.Error()))
		return err
	}

	c.logger.Debug(ctx, "Relation cache invalidated",
		logger.F("type", event.Type),
		logger.F("user_id", event.UserID),
		logger.F("target_id", event.TargetID))
	return nil
}
