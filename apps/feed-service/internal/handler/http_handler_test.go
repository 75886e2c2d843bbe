package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/pkg/logger"
	"tripfeed/pkg/middleware"
)

// stubService 记录调用参数并返回预设结果
type stubService struct {
	viewerID int64
	postID   int64
	req      *model.FeedRequest
	err      error
}

func (s *stubService) GetFeed(ctx context.Context, viewerID int64, req *model.FeedRequest) (*model.FeedResult, error) {
	s.viewerID, s.req = viewerID, req
	if s.err != nil {
		return nil, s.err
	}
	return &model.FeedResult{Count: 1, Data: []*model.PostView{{ID: 7}}}, nil
}

func (s *stubService) GetPost(ctx context.Context, viewerID, postID int64) (*model.PostView, error) {
	s.viewerID, s.postID = viewerID, postID
	if s.err != nil {
		return nil, s.err
	}
	return &model.PostView{ID: postID}, nil
}

func (s *stubService) GetOwnPost(ctx context.Context, viewerID, postID int64) (*model.PostView, error) {
	return s.GetPost(ctx, viewerID, postID)
}

func newRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	log := logger.NewNopLogger()
	engine.Use(middleware.Identity(log))
	NewHTTPHandler(svc, log).RegisterRoutes(engine)
	return engine
}

func serve(engine *gin.Engine, target string, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestGetFeed_QueryMapping(t *testing.T) {
	svc := &stubService{}
	w := serve(newRouter(svc),
		"/api/v1/feed?mode=Community&q=+beach+&scope=location&creatorId=3&postType=created,page&postType=my_map&locationId=9&order=createdAt:ASC&order=updatedAt&limit=10&offset=20",
		"5")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, int64(5), svc.viewerID)
	assert.Equal(t, &model.FeedRequest{
		Mode:     model.FeedModeCommunity,
		FreeText: "beach",
		Scope:    model.SearchScopeLocation,
		Filter: model.PostFilter{
			CreatorID:  3,
			PostTypes:  []model.PostType{model.PostTypeCreated, model.PostTypePage, model.PostTypeMyMap},
			LocationID: 9,
			Orders: []model.Order{
				{Field: model.SortFieldCreatedAt, Direction: model.SortOrderAsc},
				{Field: model.SortFieldUpdatedAt, Direction: model.SortOrderDesc},
			},
			Limit:  10,
			Offset: 20,
		},
	}, svc.req)

	var result model.FeedResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, int64(1), result.Count)
	require.Len(t, result.Data, 1)
	assert.Equal(t, int64(7), result.Data[0].ID)
}

func TestGetFeed_Anonymous(t *testing.T) {
	svc := &stubService{}
	w := serve(newRouter(svc), "/api/v1/feed", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), svc.viewerID)
	assert.Equal(t, model.FeedModeNone, svc.req.Mode)
}

func TestGetFeed_BadQuery(t *testing.T) {
	cases := []struct {
		name   string
		target string
	}{
		{name: "non_numeric_limit", target: "/api/v1/feed?limit=ten"},
		{name: "empty_order_field", target: "/api/v1/feed?order=:asc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{}
			w := serve(newRouter(svc), tc.target, "1")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, svc.req)
		})
	}
}

func TestPostRoutes(t *testing.T) {
	cases := []struct {
		name       string
		target     string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "found", target: "/api/v1/posts/10", wantStatus: http.StatusOK},
		{name: "own_found", target: "/api/v1/posts/10/own", wantStatus: http.StatusOK},
		{name: "not_found", target: "/api/v1/posts/10", err: model.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "forbidden", target: "/api/v1/posts/10/own", err: model.ErrForbidden, wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN"},
		{name: "bad_id", target: "/api/v1/posts/abc", wantStatus: http.StatusBadRequest, wantCode: "INVALID_PARAMS"},
		{name: "retrieval_failure", target: "/api/v1/posts/10", err: model.NewRetrievalError("post store", errors.New("timeout")), wantStatus: http.StatusServiceUnavailable, wantCode: "RETRIEVAL_FAILED"},
		{name: "unexpected_failure", target: "/api/v1/posts/10", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{err: tc.err}
			w := serve(newRouter(svc), tc.target, "2")
			require.Equal(t, tc.wantStatus, w.Code)

			if tc.wantCode == "" {
				assert.Equal(t, int64(2), svc.viewerID)
				assert.Equal(t, int64(10), svc.postID)
				return
			}
			var body struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.wantCode, body.Code)
		})
	}
}
