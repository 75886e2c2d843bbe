package model

import (
	"time"

	"gorm.io/gorm"
)

// Post 帖子（普通帖、活动帖、行程分享帖、转发帖）
type Post struct {
	ID           int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatorID    int64      `json:"creator_id" gorm:"not null;index"`
	Content      string     `json:"content" gorm:"type:text"`
	AccessType   AccessType `json:"access_type" gorm:"type:varchar(16);not null;index;default:'PUBLIC'"`
	PostType     PostType   `json:"post_type" gorm:"type:varchar(16);not null;index"`
	Status       PostStatus `json:"status" gorm:"type:varchar(16);not null;index;default:'PUBLIC'"`
	LocationID   *int64     `json:"location_id" gorm:"index"`
	PlanID       *int64     `json:"plan_id" gorm:"index"`
	ActivityID   *int64     `json:"activity_id" gorm:"index"`
	SourcePostID *int64     `json:"source_post_id" gorm:"index"`
	IsPublicPlan bool       `json:"is_public_plan" gorm:"default:false"`
	SharedMedias string     `json:"shared_medias" gorm:"type:jsonb"` // 分享行程时的媒体快照，之后不再变化
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"` // 软删除，终态

	// 关联数据
	Medias   []PostMedia `json:"medias" gorm:"foreignKey:PostID"`
	Location *Location   `json:"location" gorm:"foreignKey:LocationID"`
	Plan     *Plan       `json:"plan" gorm:"foreignKey:PlanID"`
}

// TableName .
func (Post) TableName() string {
	return "posts"
}

// IsDeleted 是否已软删除
func (p *Post) IsDeleted() bool {
	return p.DeletedAt.Valid
}

// Media 媒体信息（帖子媒体、快照、物化视图共用）
type Media struct {
	URL      string `json:"url" bson:"url"`
	MimeType string `json:"mime_type" bson:"mimeType"`
	Width    int32  `json:"width" bson:"width"`
	Height   int32  `json:"height" bson:"height"`
}

// PostMedia 帖子媒体文件
type PostMedia struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PostID    int64     `json:"post_id" gorm:"not null;index"`
	URL       string    `json:"url" gorm:"type:varchar(500);not null"`
	MimeType  string    `json:"mime_type" gorm:"type:varchar(100)"`
	Width     int32     `json:"width" gorm:"default:0"`
	Height    int32     `json:"height" gorm:"default:0"`
	SortOrder int32     `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName .
func (PostMedia) TableName() string {
	return "post_medias"
}

// Media 转换为媒体信息
func (m PostMedia) Media() Media {
	return Media{URL: m.URL, MimeType: m.MimeType, Width: m.Width, Height: m.Height}
}

// Location 地点
type Location struct {
	ID           int64        `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string       `json:"name" gorm:"type:varchar(200);not null"`
	Address      string       `json:"address" gorm:"type:varchar(500)"`
	LocationType LocationType `json:"location_type" gorm:"type:varchar(16);index"`
	IsPublic     bool         `json:"is_public" gorm:"default:true"`
}

// TableName .
func (Location) TableName() string {
	return "locations"
}

// Plan 行程
type Plan struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(200)"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Tasks     []Task    `json:"tasks" gorm:"foreignKey:PlanID"`
}

// TableName .
func (Plan) TableName() string {
	return "plans"
}

// Task 行程任务，按 (TaskDate, Index) 排序
type Task struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PlanID     int64     `json:"plan_id" gorm:"not null;index"`
	LocationID int64     `json:"location_id" gorm:"index"`
	TaskDate   time.Time `json:"task_date"`
	Index      int32     `json:"index" gorm:"column:task_index;default:0"`
	Status     string    `json:"status" gorm:"type:varchar(16)"`
}

// TableName .
func (Task) TableName() string {
	return "tasks"
}

// Activity 活动
type Activity struct {
	ID         int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	PostID     int64  `json:"post_id" gorm:"index"`
	LocationID int64  `json:"location_id" gorm:"index"`
	Name       string `json:"name" gorm:"type:varchar(200)"`
}

// TableName .
func (Activity) TableName() string {
	return "activities"
}

// ActivityParticipant 活动参与者
type ActivityParticipant struct {
	ID         int64             `json:"id" gorm:"primaryKey;autoIncrement"`
	ActivityID int64             `json:"activity_id" gorm:"not null;uniqueIndex:idx_activity_user"`
	UserID     int64             `json:"user_id" gorm:"not null;uniqueIndex:idx_activity_user"`
	Status     ParticipantStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	UpdatedAt  time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName .
func (ActivityParticipant) TableName() string {
	return "activity_participants"
}

// Block 拉黑关系，方向性存储，可见性判断时视为双向
type Block struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_block_pair"`
	CreatorID int64     `json:"creator_id" gorm:"not null;uniqueIndex:idx_block_pair;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName .
func (Block) TableName() string {
	return "blocks"
}

// Follow 关注关系
type Follow struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	FollowerID  int64     `json:"follower_id" gorm:"not null;uniqueIndex:idx_follow_pair"`
	FollowingID int64     `json:"following_id" gorm:"not null;uniqueIndex:idx_follow_pair;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName .
func (Follow) TableName() string {
	return "follows"
}

// Like 点赞
type Like struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_like_user_post"`
	PostID    int64     `json:"post_id" gorm:"not null;uniqueIndex:idx_like_user_post;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName .
func (Like) TableName() string {
	return "likes"
}

// Bookmark 收藏
type Bookmark struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_bookmark_user_post"`
	PostID    int64     `json:"post_id" gorm:"not null;uniqueIndex:idx_bookmark_user_post;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName .
func (Bookmark) TableName() string {
	return "bookmarks"
}

// Rating 评分
type Rating struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_rating_user_post"`
	PostID    int64     `json:"post_id" gorm:"not null;uniqueIndex:idx_rating_user_post;index"`
	Score     int32     `json:"score" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName .
func (Rating) TableName() string {
	return "ratings"
}

// MyMapLocation 用户"我的地图"中保存的地点
type MyMapLocation struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_my_map_user_location"`
	LocationID int64     `json:"location_id" gorm:"not null;uniqueIndex:idx_my_map_user_location"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName .
func (MyMapLocation) TableName() string {
	return "my_map_locations"
}

// MaterializedLocation 地点媒体物化视图（MongoDB），由外部索引器异步刷新，本服务只读
type MaterializedLocation struct {
	LocationID      int64        `json:"location_id" bson:"locationId"`
	LocationType    LocationType `json:"location_type" bson:"locationType"`
	PostMedias      []Media      `json:"post_medias" bson:"postMedias"`
	TourMedias      []Media      `json:"tour_medias" bson:"tourMedias"`
	BackgroundMedia *Media       `json:"background_media" bson:"backgroundMedia"`
}

// RelationEvent 社交关系变更事件
type RelationEvent struct {
	Type     string `json:"type"`
	UserID   int64  `json:"userId"`
	TargetID int64  `json:"targetId"`
}

// ReactionFlags 当前用户对帖子的互动标记
type ReactionFlags struct {
	Liked  bool `json:"liked" gorm:"column:liked"`
	Marked bool `json:"marked" gorm:"column:marked"`
	Rated  bool `json:"rated" gorm:"column:rated"`
}
