package enrich

import (
	"context"
	"errors"
	"sync"

	"tripfeed/apps/feed-service/internal/dao"
	"tripfeed/apps/feed-service/internal/model"
	"tripfeed/apps/feed-service/internal/visibility"
	"tripfeed/pkg/logger"
)

var errStore = errors.New("store unavailable")

type fakeStore struct {
	mu sync.Mutex

	posts        map[int64]*model.Post
	participants map[int64][]model.ActivityParticipant
	plans        map[int64]*model.Plan
	locations    map[int64]*model.MaterializedLocation
	reactions    map[int64]model.ReactionFlags // postID -> 当前用户的标记
	myMap        map[int64]bool                // locationID -> 已保存
	blocked      map[int64][]int64
	following    map[int64][]int64

	planErr     error
	locationErr error
	reactionErr error
	locationHit int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts:        make(map[int64]*model.Post),
		participants: make(map[int64][]model.ActivityParticipant),
		plans:        make(map[int64]*model.Plan),
		locations:    make(map[int64]*model.MaterializedLocation),
		reactions:    make(map[int64]model.ReactionFlags),
		myMap:        make(map[int64]bool),
		blocked:      make(map[int64][]int64),
		following:    make(map[int64][]int64),
	}
}

func (s *fakeStore) pipeline() *Pipeline {
	return NewPipeline(Dependencies{
		Relations:  s,
		Posts:      s,
		Locations:  s,
		Activities: s,
		Plans:      s,
		Reactions:  s,
		Maps:       s,
	}, 4, logger.NewNopLogger())
}

func (s *fakeStore) relations(viewerID int64) *visibility.Relations {
	return visibility.NewRelations(s.blocked[viewerID], s.following[viewerID])
}

func (s *fakeStore) GetBlockedIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.blocked[userID], nil
}

func (s *fakeStore) GetFollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.following[userID], nil
}

func (s *fakeStore) FindPosts(ctx context.Context, filter *model.PostFilter, scopes ...dao.Scope) ([]*model.Post, error) {
	return nil, errors.New("not supported")
}

func (s *fakeStore) CountPosts(ctx context.Context, filter *model.PostFilter, scopes ...dao.Scope) (int64, error) {
	return 0, errors.New("not supported")
}

func (s *fakeStore) GetPost(ctx context.Context, postID int64) (*model.Post, error) {
	post, ok := s.posts[postID]
	if !ok || post.IsDeleted() {
		return nil, model.ErrNotFound
	}
	return post, nil
}

func (s *fakeStore) FindPostsByIDs(ctx context.Context, postIDs []int64) ([]*model.Post, error) {
	posts := make([]*model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if post, err := s.GetPost(ctx, id); err == nil {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (s *fakeStore) FindByIDs(ctx context.Context, locationIDs []int64) ([]*model.MaterializedLocation, error) {
	s.mu.Lock()
	s.locationHit++
	s.mu.Unlock()

	if s.locationErr != nil {
		return nil, s.locationErr
	}
	views := make([]*model.MaterializedLocation, 0, len(locationIDs))
	for _, id := range locationIDs {
		if v, ok := s.locations[id]; ok {
			views = append(views, v)
		}
	}
	return views, nil
}

// CountParticipants 与关系库实现一致：REMOVE 不计入
func (s *fakeStore) CountParticipants(ctx context.Context, activityID int64) (int64, error) {
	var count int64
	for _, p := range s.participants[activityID] {
		if p.Status != model.ParticipantRemove {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) HasJoined(ctx context.Context, activityID, userID int64) (bool, error) {
	for _, p := range s.participants[activityID] {
		if p.UserID == userID && p.Status != model.ParticipantRemove {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) GetPlanWithTasks(ctx context.Context, planID int64) (*model.Plan, error) {
	if s.planErr != nil {
		return nil, s.planErr
	}
	plan, ok := s.plans[planID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return plan, nil
}

func (s *fakeStore) GetReactionFlags(ctx context.Context, userID, postID int64) (*model.ReactionFlags, error) {
	if s.reactionErr != nil {
		return nil, s.reactionErr
	}
	flags := s.reactions[postID]
	return &flags, nil
}

func (s *fakeStore) Exists(ctx context.Context, userID, locationID int64) (bool, error) {
	return s.myMap[locationID], nil
}

func int64Ptr(v int64) *int64 {
	return &v
}
