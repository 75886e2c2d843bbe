package database

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"tripfeed/pkg/config"
	"tripfeed/pkg/logger"
)

// ElasticSearch ElasticSearch客户端封装
type ElasticSearch struct {
	client *elasticsearch.Client
	logger logger.Logger
}

// NewElasticSearch 创建ElasticSearch连接
func NewElasticSearch(cfg config.ElasticsearchConfig, log logger.Logger) (*ElasticSearch, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ElasticSearch client: %w", err)
	}

	es := &ElasticSearch{client: client, logger: log}
	if err := es.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to ElasticSearch: %w", err)
	}

	log.Info(context.Background(), "ElasticSearch connected successfully",
		logger.F("addresses", cfg.Addresses))
	return es, nil
}

// GetClient 获取原生客户端
func (es *ElasticSearch) GetClient() *elasticsearch.Client {
	return es.client
}

// Ping 测试连接
func (es *ElasticSearch) Ping(ctx context.Context) error {
	res, err := es.client.Info(es.client.Info.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("ElasticSearch error: %s", res.String())
	}
	return nil
}
