package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripfeed/apps/feed-service/internal/model"
)

func TestCompile_CommunityLocationSearch(t *testing.T) {
	q := Compile(CompileRequest{
		Mode:       model.FeedModeCommunity,
		FreeText:   "beach",
		Scope:      model.SearchScopeLocation,
		BlockedIDs: []int64{4, 9},
		Limit:      20,
	})

	assert.Contains(t, q.Must, term(FieldAccessType, model.AccessPublic))
	assert.Contains(t, q.Must, exists(FieldLocationID))
	assert.Contains(t, q.Must, term(FieldIsPublicLocation, true))
	assert.Contains(t, q.Must, multiMatch("beach", locationNameFields))

	assert.Contains(t, q.MustNot, term(FieldStatus, model.PostStatusDraft))
	assert.Contains(t, q.MustNot, terms(FieldCreatorID, []int64{4, 9}))
	assert.Empty(t, q.Should)

	assert.Equal(t, []map[string]interface{}{
		sortBy(FieldScore, model.SortOrderDesc),
		sortBy("createdAt", model.SortOrderDesc),
	}, q.Sort)
	assert.Equal(t, 20, q.Size)
}

func TestCompile_CommunityPostTypes(t *testing.T) {
	q := Compile(CompileRequest{Mode: model.FeedModeCommunity})

	postTypes := anyOf(
		terms(FieldPostType, []model.PostType{
			model.PostTypeCreated, model.PostTypePage, model.PostTypeMyMap, model.PostTypeActivity,
		}),
		allOf(
			term(FieldPostType, model.PostTypeSharePlan),
			term(FieldIsPublicPlan, true),
		),
	)
	assert.Contains(t, q.Must, postTypes)
	assert.NotContains(t, q.Must, exists(FieldLocationID))
}

func TestCompile_CommunityPostScope(t *testing.T) {
	q := Compile(CompileRequest{
		Mode:     model.FeedModeCommunity,
		FreeText: "sunset",
		Scope:    model.SearchScopePost,
	})

	assert.Contains(t, q.Must, multiMatch("sunset", []string{FieldContent}))
	assert.NotContains(t, q.Must, exists(FieldLocationID))
}

func TestCompile_InvalidScopeIsLenient(t *testing.T) {
	q := Compile(CompileRequest{
		Mode:     model.FeedModeCommunity,
		FreeText: "sunset",
		Scope:    "USER",
	})

	// 只有可见性条件，没有范围相关的 must
	assert.Len(t, q.Must, 2)
	assert.Equal(t, FieldScore, firstKey(q.Sort[0]))
}

func TestCompile_FollowMode(t *testing.T) {
	q := Compile(CompileRequest{
		Mode:       model.FeedModeFollow,
		FreeText:   "kyoto",
		FollowIDs:  []int64{2, 3},
		BlockedIDs: []int64{5},
		Orders:     []model.Order{{Field: model.SortFieldUpdatedAt, Direction: model.SortOrderAsc}},
		Limit:      10,
		Offset:     30,
	})

	assert.Equal(t, []map[string]interface{}{multiMatch("kyoto", followTextFields)}, q.Must)
	assert.Equal(t, []map[string]interface{}{
		allOf(term(FieldAccessType, model.AccessPublic), terms(FieldCreatorID, []int64{2, 3})),
		allOf(term(FieldAccessType, model.AccessFollow), terms(FieldCreatorID, []int64{2, 3})),
	}, q.Should)
	assert.Contains(t, q.MustNot, term(FieldStatus, model.PostStatusDraft))
	assert.Contains(t, q.MustNot, terms(FieldCreatorID, []int64{5}))

	assert.Equal(t, []map[string]interface{}{
		sortBy(FieldScore, model.SortOrderDesc),
		sortBy("updatedAt", model.SortOrderAsc),
	}, q.Sort)
	assert.Equal(t, 30, q.From)
	assert.Equal(t, 10, q.Size)
}

func TestCompile_SortWithoutFreeText(t *testing.T) {
	cases := []struct {
		name   string
		orders []model.Order
		want   []map[string]interface{}
	}{
		{
			name: "default_created_desc",
			want: []map[string]interface{}{sortBy("createdAt", model.SortOrderDesc)},
		},
		{
			name:   "explicit_order",
			orders: []model.Order{{Field: model.SortFieldCreatedAt, Direction: model.SortOrderAsc}},
			want:   []map[string]interface{}{sortBy("createdAt", model.SortOrderAsc)},
		},
		{
			name:   "unknown_field_falls_back",
			orders: []model.Order{{Field: "likeCount", Direction: model.SortOrderAsc}},
			want:   []map[string]interface{}{sortBy("createdAt", model.SortOrderDesc)},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			q := Compile(CompileRequest{Mode: model.FeedModeFollow, Orders: tt.orders})
			assert.Equal(t, tt.want, q.Sort)
		})
	}
}

func TestQuery_Source(t *testing.T) {
	q := Compile(CompileRequest{
		Mode:       model.FeedModeFollow,
		FollowIDs:  []int64{2},
		BlockedIDs: nil,
		Limit:      5,
	})

	body, err := json.Marshal(q.Source())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))

	boolQuery := decoded["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Equal(t, float64(1), boolQuery["minimum_should_match"])
	assert.Len(t, boolQuery["should"], 2)
	assert.Len(t, boolQuery["must"], 1) // match_all
	assert.Len(t, boolQuery["must_not"], 2)
	assert.Equal(t, false, decoded["_source"])
	assert.Equal(t, float64(5), decoded["size"])

	// 空拉黑集合也要渲染成空数组而不是 null
	assert.Contains(t, string(body), `{"terms":{"creatorId":[]}}`)
}

func firstKey(m map[string]interface{}) string {
	for k := range m {
		return k
	}
	return ""
}
