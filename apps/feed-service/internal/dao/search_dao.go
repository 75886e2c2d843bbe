package dao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/apps/feed-service/internal/search"
	"tripfeed/pkg/logger"
)

// searchResponse ElasticSearch搜索响应（只解析需要的字段）
type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value    int64  `json:"value"`
			Relation string `json:"relation"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// elasticsearchDAO ElasticSearch数据访问对象
type elasticsearchDAO struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

// NewElasticsearchDAO 创建ElasticSearch DAO实例
func NewElasticsearchDAO(client *elasticsearch.Client, index string, log logger.Logger) SearchDAO {
	return &elasticsearchDAO{
		client: client,
		index:  index,
		logger: log,
	}
}

// Execute 执行查询，按命中顺序返回帖子ID
func (d *elasticsearchDAO) Execute(ctx context.Context, query *search.Query) (*search.Ranked, error) {
	body, err := json.Marshal(query.Source())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{d.index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		d.logger.Error(ctx, "Failed to execute search",
			logger.F("index", d.index),
			logger.F("error", err.Error()))
		return nil, model.NewRetrievalError("search index", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, model.NewRetrievalError("search index", fmt.Errorf("search failed: %s", res.String()))
	}

	var response searchResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, model.NewRetrievalError("search index", fmt.Errorf("decode search response: %w", err))
	}

	ids := make([]int64, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			d.logger.Warn(ctx, "Skip search hit with non-numeric id",
				logger.F("index", d.index),
				logger.F("doc_id", hit.ID))
			continue
		}
		ids = append(ids, id)
	}

	d.logger.Debug(ctx, "Search executed",
		logger.F("index", d.index),
		logger.F("took_ms", response.Took),
		logger.F("hits", len(ids)),
		logger.F("total", response.Hits.Total.Value))

	return &search.Ranked{IDs: ids, Total: response.Hits.Total.Value}, nil
}
