package kafka

import (
	"context"
	"sync"

	"github.com/IBM/sarama"

	"tripfeed/pkg/logger"
)

// KafkaConfig 配置
type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
}

// Consumer 消费者组
type Consumer struct {
	group     sarama.ConsumerGroup
	topics    []string
	ready     chan struct{}
	readyOnce sync.Once
	logger    logger.Logger
	Handler   ConsumerHandler
}

// ConsumerHandler 单条消息处理。返回 error 时该消息不提交 offset
type ConsumerHandler interface {
	HandleMessage(msg *sarama.ConsumerMessage) error
}

// InitConsumer 初始化消费者
func InitConsumer(cfg KafkaConfig, handler ConsumerHandler, log logger.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, err
	}
	return &Consumer{
		group:   group,
		topics:  cfg.Topics,
		ready:   make(chan struct{}),
		logger:  log,
		Handler: handler,
	}, nil
}

// StartConsuming 后台消费，首次完成分区分配后返回
func (c *Consumer) StartConsuming(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			c.logger.Error(ctx, "Kafka consumer group error", logger.F("error", err.Error()))
		}
	}()

	go func() {
		for {
			if err := c.group.Consume(ctx, c.topics, c); err != nil {
				c.logger.Error(ctx, "Error from consumer",
					logger.F("topics", c.topics),
					logger.F("error", err.Error()))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 关闭消费者组
func (c *Consumer) Close() error {
	return c.group.Close()
}

// Setup sarama.ConsumerGroupHandler
func (c *Consumer) Setup(_ sarama.ConsumerGroupSession) error {
	// rebalance 后会再次调用
	c.readyOnce.Do(func() { close(c.ready) })
	return nil
}

// Cleanup sarama.ConsumerGroupHandler
func (c *Consumer) Cleanup(_ sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim 消费消息
func (c *Consumer) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := c.Handler.HandleMessage(msg); err == nil {
			sess.MarkMessage(msg, "")
		}
	}
	return nil
}
