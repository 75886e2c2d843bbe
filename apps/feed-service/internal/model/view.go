package model

import "time"

// PostView 富化后的帖子视图，直接返回给客户端
type PostView struct {
	ID           int64      `json:"id"`
	CreatorID    int64      `json:"creator_id"`
	Content      string     `json:"content"`
	AccessType   AccessType `json:"access_type"`
	PostType     PostType   `json:"post_type"`
	Status       PostStatus `json:"status"`
	IsPublicPlan bool       `json:"is_public_plan"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Medias     []Media       `json:"medias"`
	Location   *Location     `json:"location,omitempty"`
	Activity   *ActivityView `json:"activity,omitempty"`
	Plan       *PlanView     `json:"plan,omitempty"`
	SourcePost *PostView     `json:"source_post,omitempty"` // 被拦截时整体省略

	Liked      bool `json:"liked"`
	Marked     bool `json:"marked"`
	Rated      bool `json:"rated"`
	SavedToMap bool `json:"saved_to_map"`
}

// ActivityView 活动参与信息
type ActivityView struct {
	ActivityID       int64 `json:"activity_id"`
	ParticipantCount int64 `json:"participant_count"`
	Joined           bool  `json:"joined"`
}

// PlanView 行程视图
type PlanView struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Tasks     []TaskView `json:"tasks"`
}

// TaskView 行程任务视图，媒体来自地点物化视图
type TaskView struct {
	ID         int64     `json:"id"`
	LocationID int64     `json:"location_id"`
	TaskDate   time.Time `json:"task_date"`
	Index      int32     `json:"index"`
	Status     string    `json:"status"`
	Medias     []Media   `json:"medias"`
}

// ============ 请求/响应 ============

// Order 排序条件
type Order struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// PostFilter 关系库查询条件
type PostFilter struct {
	CreatorID  int64
	PostTypes  []PostType
	LocationID int64
	Orders     []Order
	Limit      int
	Offset     int
}

// FeedRequest 信息流请求
type FeedRequest struct {
	Mode     FeedMode
	FreeText string
	Scope    SearchScope
	Filter   PostFilter
}

// FeedResult 信息流结果
type FeedResult struct {
	Count int64       `json:"count"`
	Data  []*PostView `json:"data"`
}
