package model

// 默认配置
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ============ 可见范围 ============

// AccessType 内容可见范围
type AccessType string

const (
	AccessPublic  AccessType = "PUBLIC"  // 所有人可见
	AccessFollow  AccessType = "FOLLOW"  // 关注者可见
	AccessPrivate AccessType = "PRIVATE" // 仅自己可见
)

// ============ 帖子类型 ============

// PostType 帖子类型
type PostType string

const (
	PostTypeCreated   PostType = "CREATED"    // 普通帖子
	PostTypePage      PostType = "PAGE"       // 页面
	PostTypeMyMap     PostType = "MY_MAP"     // 我的地图
	PostTypeSharePlan PostType = "SHARE_PLAN" // 分享行程
	PostTypeActivity  PostType = "ACTIVITY"   // 活动
	PostTypeShared    PostType = "SHARED"     // 转发
)

// CommunityPostTypes 社区流允许出现的帖子类型
var CommunityPostTypes = []PostType{
	PostTypeCreated,
	PostTypePage,
	PostTypeMyMap,
	PostTypeActivity,
}

// ============ 帖子状态 ============

// PostStatus 帖子状态
type PostStatus string

const (
	PostStatusDraft  PostStatus = "DRAFT"  // 草稿（仅活动）
	PostStatusPublic PostStatus = "PUBLIC" // 已发布
)

// ============ 活动参与状态 ============

// ParticipantStatus 活动参与状态
type ParticipantStatus string

const (
	ParticipantUninvited ParticipantStatus = "UNINVITED"
	ParticipantInvited   ParticipantStatus = "INVITED"
	ParticipantJoin      ParticipantStatus = "JOIN"
	ParticipantRemove    ParticipantStatus = "REMOVE" // 终态，不计入参与人数
)

// ============ 地点类型 ============

// LocationType 地点类型，决定物化视图中媒体的取法
type LocationType string

const (
	LocationTypeWhere LocationType = "where"
	LocationTypeTour  LocationType = "tour"
	LocationTypeFood  LocationType = "food"
	LocationTypeStay  LocationType = "stay"
)

// ============ 行程任务状态 ============

const (
	TaskStatusPending   = "PENDING"
	TaskStatusCompleted = "COMPLETED"
)

// ============ 信息流模式 ============

// FeedMode 信息流模式，非空时走搜索索引
type FeedMode string

const (
	FeedModeNone      FeedMode = ""
	FeedModeCommunity FeedMode = "community"
	FeedModeFollow    FeedMode = "follow"
)

// SearchScope 关键词搜索范围
type SearchScope string

const (
	SearchScopeLocation SearchScope = "LOCATION"
	SearchScopePost     SearchScope = "POST"
)

// ============ 排序 ============

const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// 可排序字段（索引字段名）
const (
	SortFieldCreatedAt = "createdAt"
	SortFieldUpdatedAt = "updatedAt"
)

// ============ 缓存 ============

// Redis缓存键前缀
const (
	CacheKeyBlocked   = "feed:relation:blocked"
	CacheKeyFollowing = "feed:relation:following"
)

// ============ 消息主题 ============

const (
	TopicRelationChanged = "social.relation.changed"
)

// 关系变更事件类型
const (
	RelationEventBlock    = "block"
	RelationEventUnblock  = "unblock"
	RelationEventFollow   = "follow"
	RelationEventUnfollow = "unfollow"
)
