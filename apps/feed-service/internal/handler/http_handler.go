package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/apps/feed-service/internal/service"
	tracecontext "tripfeed/pkg/context"
	"tripfeed/pkg/httpx"
	"tripfeed/pkg/logger"
)

// HTTPHandler HTTP处理器
type HTTPHandler struct {
	svc    service.FeedService
	logger logger.Logger
}

// NewHTTPHandler 创建HTTP处理器
func NewHTTPHandler(svc service.FeedService, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: log,
	}
}

// RegisterRoutes 注册HTTP路由
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/feed", h.GetFeed)             // 信息流
		api.GET("/posts/:id", h.GetPost)        // 单条帖子
		api.GET("/posts/:id/own", h.GetOwnPost) // 创建者读取自己的帖子
	}
}

// feedQuery 信息流查询参数
type feedQuery struct {
	Mode       string   `form:"mode"`
	Q          string   `form:"q"`
	Scope      string   `form:"scope"`
	CreatorID  int64    `form:"creatorId"`
	PostTypes  []string `form:"postType"`
	LocationID int64    `form:"locationId"`
	Orders     []string `form:"order"`
	Limit      int      `form:"limit"`
	Offset     int      `form:"offset"`
}

// GetFeed 获取信息流
func (h *HTTPHandler) GetFeed(c *gin.Context) {
	ctx := c.Request.Context()

	var q feedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.Warn(ctx, "Invalid feed query", logger.F("error", err.Error()))
		httpx.WriteObject(c, nil, fmt.Errorf("%w: %v", model.ErrInvalidParams, err))
		return
	}

	req, err := q.toRequest()
	if err != nil {
		h.logger.Warn(ctx, "Invalid feed query", logger.F("error", err.Error()))
		httpx.WriteObject(c, nil, err)
		return
	}

	result, err := h.svc.GetFeed(ctx, tracecontext.GetUserID(ctx), req)
	httpx.WriteObject(c, result, err)
}

// GetPost 获取单条帖子
func (h *HTTPHandler) GetPost(c *gin.Context) {
	ctx := c.Request.Context()

	postID, err := parseID(c.Param("id"))
	if err != nil {
		httpx.WriteObject(c, nil, err)
		return
	}

	view, err := h.svc.GetPost(ctx, tracecontext.GetUserID(ctx), postID)
	httpx.WriteObject(c, view, err)
}

// GetOwnPost 创建者读取自己的帖子
func (h *HTTPHandler) GetOwnPost(c *gin.Context) {
	ctx := c.Request.Context()

	postID, err := parseID(c.Param("id"))
	if err != nil {
		httpx.WriteObject(c, nil, err)
		return
	}

	view, err := h.svc.GetOwnPost(ctx, tracecontext.GetUserID(ctx), postID)
	httpx.WriteObject(c, view, err)
}

// toRequest 转换为服务层请求，枚举值大小写不敏感
func (q *feedQuery) toRequest() (*model.FeedRequest, error) {
	req := &model.FeedRequest{
		Mode:     model.FeedMode(strings.ToLower(q.Mode)),
		FreeText: strings.TrimSpace(q.Q),
		Scope:    model.SearchScope(strings.ToUpper(q.Scope)),
		Filter: model.PostFilter{
			CreatorID:  q.CreatorID,
			LocationID: q.LocationID,
			Limit:      q.Limit,
			Offset:     q.Offset,
		},
	}

	for _, raw := range splitValues(q.PostTypes) {
		req.Filter.PostTypes = append(req.Filter.PostTypes, model.PostType(strings.ToUpper(raw)))
	}

	for _, raw := range splitValues(q.Orders) {
		order, err := parseOrder(raw)
		if err != nil {
			return nil, err
		}
		req.Filter.Orders = append(req.Filter.Orders, order)
	}
	return req, nil
}

// parseOrder 解析 "field" 或 "field:direction"，方向缺省为降序
func parseOrder(raw string) (model.Order, error) {
	field, direction, found := strings.Cut(raw, ":")
	if field == "" {
		return model.Order{}, fmt.Errorf("%w: empty order field", model.ErrInvalidParams)
	}
	if !found {
		direction = model.SortOrderDesc
	}
	return model.Order{Field: field, Direction: strings.ToLower(direction)}, nil
}

// splitValues 同时支持重复参数和逗号分隔
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid post id %q", model.ErrInvalidParams, raw)
	}
	return id, nil
}
