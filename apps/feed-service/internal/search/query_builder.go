// Package search 信息流检索：把可见性规则编译成 ElasticSearch bool 查询，并按索引排名还原关系库结果。
package search

import (
	"github.com/samber/lo"

	"tripfeed/apps/feed-service/internal/model"
)

// 索引字段名
const (
	FieldAccessType       = "accessType"
	FieldPostType         = "postType"
	FieldStatus           = "status"
	FieldCreatorID        = "creatorId"
	FieldIsPublicPlan     = "isPublicPlan"
	FieldLocationID       = "locationId"
	FieldIsPublicLocation = "isPublicLocation"
	FieldContent          = "content"
	FieldScore            = "_score"
)

var (
	// locationNameFields 地点名称相关字段
	locationNameFields = []string{"location.name^3", "location.localName^2"}
	// followTextFields 关注流关键词匹配名称与地址
	followTextFields = []string{"location.name^3", "location.localName^2", "location.address"}
)

// sortableFields API 排序字段 -> 索引字段
var sortableFields = map[string]string{
	model.SortFieldCreatedAt: "createdAt",
	model.SortFieldUpdatedAt: "updatedAt",
}

// IsSortable 字段是否允许排序
func IsSortable(field string) bool {
	_, ok := sortableFields[field]
	return ok
}

// CompileRequest 查询编译输入
type CompileRequest struct {
	Mode       model.FeedMode
	FreeText   string
	Scope      model.SearchScope
	FollowIDs  []int64
	BlockedIDs []int64
	Orders     []model.Order
	Limit      int
	Offset     int
}

// Query 编译后的结构化查询
type Query struct {
	Must    []map[string]interface{}
	MustNot []map[string]interface{}
	Should  []map[string]interface{} // 非空时至少命中一条
	Sort    []map[string]interface{}
	From    int
	Size    int
}

// Compile 根据信息流模式编译查询。scope 与模式不匹配时不报错，只是不附加范围条件。
func Compile(req CompileRequest) *Query {
	q := &Query{
		From: req.Offset,
		Size: req.Limit,
	}

	switch req.Mode {
	case model.FeedModeCommunity:
		compileCommunity(q, req)
	case model.FeedModeFollow:
		compileFollow(q, req)
	}

	// 两种模式共用的排除条件
	q.MustNot = append(q.MustNot,
		term(FieldStatus, model.PostStatusDraft),
		terms(FieldCreatorID, req.BlockedIDs),
	)

	q.Sort = buildSort(req.FreeText, req.Orders)
	return q
}

// compileCommunity 社区流：公开内容，限定帖子类型，分享行程必须是公开行程
func compileCommunity(q *Query, req CompileRequest) {
	q.Must = append(q.Must,
		term(FieldAccessType, model.AccessPublic),
		anyOf(
			terms(FieldPostType, model.CommunityPostTypes),
			allOf(
				term(FieldPostType, model.PostTypeSharePlan),
				term(FieldIsPublicPlan, true),
			),
		),
	)

	if req.FreeText == "" {
		return
	}

	switch req.Scope {
	case model.SearchScopeLocation:
		q.Must = append(q.Must,
			multiMatch(req.FreeText, locationNameFields),
			exists(FieldLocationID),
			term(FieldIsPublicLocation, true),
		)
	case model.SearchScopePost:
		q.Must = append(q.Must, multiMatch(req.FreeText, []string{FieldContent}))
	}
}

// compileFollow 关注流：只看关注对象的公开或关注可见内容
func compileFollow(q *Query, req CompileRequest) {
	if req.FreeText != "" {
		q.Must = append(q.Must, multiMatch(req.FreeText, followTextFields))
	}

	q.Should = append(q.Should,
		allOf(
			term(FieldAccessType, model.AccessPublic),
			terms(FieldCreatorID, req.FollowIDs),
		),
		allOf(
			term(FieldAccessType, model.AccessFollow),
			terms(FieldCreatorID, req.FollowIDs),
		),
	)
}

// buildSort 有关键词时先按相关性，再按显式排序兜底（默认 createdAt desc）
func buildSort(freeText string, orders []model.Order) []map[string]interface{} {
	sort := make([]map[string]interface{}, 0, len(orders)+1)
	if freeText != "" {
		sort = append(sort, sortBy(FieldScore, model.SortOrderDesc))
	}

	explicit := lo.Filter(orders, func(o model.Order, _ int) bool { return IsSortable(o.Field) })
	if len(explicit) == 0 {
		explicit = []model.Order{{Field: model.SortFieldCreatedAt, Direction: model.SortOrderDesc}}
	}
	for _, o := range explicit {
		sort = append(sort, sortBy(sortableFields[o.Field], o.Direction))
	}
	return sort
}

// Source 生成 ElasticSearch 请求体，只取文档 ID
func (q *Query) Source() map[string]interface{} {
	boolQuery := map[string]interface{}{}

	must := q.Must
	if len(must) == 0 {
		must = []map[string]interface{}{{"match_all": map[string]interface{}{}}}
	}
	boolQuery["must"] = must

	if len(q.MustNot) > 0 {
		boolQuery["must_not"] = q.MustNot
	}
	if len(q.Should) > 0 {
		boolQuery["should"] = q.Should
		boolQuery["minimum_should_match"] = 1
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"sort":             q.Sort,
		"from":             q.From,
		"size":             q.Size,
		"_source":          false,
		"track_total_hits": true,
	}
}

// ============ 子句构建 ============

func term(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{
			field: value,
		},
	}
}

func terms[T any](field string, values []T) map[string]interface{} {
	if values == nil {
		values = []T{}
	}
	return map[string]interface{}{
		"terms": map[string]interface{}{
			field: values,
		},
	}
}

func exists(field string) map[string]interface{} {
	return map[string]interface{}{
		"exists": map[string]interface{}{
			"field": field,
		},
	}
}

func multiMatch(text string, fields []string) map[string]interface{} {
	return map[string]interface{}{
		"multi_match": map[string]interface{}{
			"query":     text,
			"fields":    fields,
			"type":      "best_fields",
			"fuzziness": "AUTO",
		},
	}
}

func allOf(clauses ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"must": clauses,
		},
	}
}

func anyOf(clauses ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               clauses,
			"minimum_should_match": 1,
		},
	}
}

func sortBy(field, direction string) map[string]interface{} {
	if direction != model.SortOrderAsc {
		direction = model.SortOrderDesc
	}
	return map[string]interface{}{
		field: map[string]interface{}{
			"order": direction,
		},
	}
}
