package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tripfeed/apps/feed-service/internal/model"
)

func publicPost(id, creatorID int64) *model.Post {
	return &model.Post{
		ID:         id,
		CreatorID:  creatorID,
		AccessType: model.AccessPublic,
		PostType:   model.PostTypeCreated,
		Status:     model.PostStatusPublic,
	}
}

func TestEnrich_SharePlanUsesSnapshot(t *testing.T) {
	store := newFakeStore()
	p := store.pipeline()

	post := publicPost(1, 10)
	post.PostType = model.PostTypeSharePlan
	post.SharedMedias = `[{"url":"snap.jpg","mime_type":"image/jpeg","width":640,"height":480}]`
	post.Medias = []model.PostMedia{{ID: 1, PostID: 1, URL: "live.jpg"}}

	view, err := p.Enrich(context.Background(), 20, post)
	require.NoError(t, err)
	want := []model.Media{{URL: "snap.jpg", MimeType: "image/jpeg", Width: 640, Height: 480}}
	assert.Equal(t, want, view.Medias)

	// 分享之后实时媒体变化不影响视图
	post.Medias = append(post.Medias, model.PostMedia{ID: 2, PostID: 1, URL: "later.jpg"})
	view, err = p.Enrich(context.Background(), 20, post)
	require.NoError(t, err)
	assert.Equal(t, want, view.Medias)
}

func TestEnrich_Medias(t *testing.T) {
	cases := []struct {
		name     string
		postType model.PostType
		shared   string
		live     []model.PostMedia
		want     []model.Media
	}{
		{
			name:     "created_uses_live_medias",
			postType: model.PostTypeCreated,
			live:     []model.PostMedia{{URL: "a.jpg"}, {URL: "b.jpg"}},
			want:     []model.Media{{URL: "a.jpg"}, {URL: "b.jpg"}},
		},
		{
			name:     "created_without_medias",
			postType: model.PostTypeCreated,
			want:     []model.Media{},
		},
		{
			name:     "share_plan_without_snapshot",
			postType: model.PostTypeSharePlan,
			live:     []model.PostMedia{{URL: "live.jpg"}},
			want:     []model.Media{},
		},
		{
			name:     "corrupt_snapshot_degrades_to_empty",
			postType: model.PostTypeSharePlan,
			shared:   `{not json`,
			want:     []model.Media{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			post := publicPost(1, 10)
			post.PostType = tc.postType
			post.SharedMedias = tc.shared
			post.Medias = tc.live

			view, err := newFakeStore().pipeline().Enrich(context.Background(), 0, post)
			require.NoError(t, err)
			assert.Equal(t, tc.want, view.Medias)
		})
	}
}

func TestEnrich_ActivityFlags(t *testing.T) {
	store := newFakeStore()
	store.participants[5] = []model.ActivityParticipant{
		{ActivityID: 5, UserID: 2, Status: model.ParticipantJoin},
		{ActivityID: 5, UserID: 3, Status: model.ParticipantRemove},
		{ActivityID: 5, UserID: 4, Status: model.ParticipantInvited},
		{ActivityID: 5, UserID: 6, Status: model.ParticipantJoin},
	}
	p := store.pipeline()

	post := publicPost(1, 10)
	post.PostType = model.PostTypeActivity
	post.ActivityID = int64Ptr(5)

	cases := []struct {
		name       string
		viewerID   int64
		wantJoined bool
	}{
		{name: "joined_viewer", viewerID: 2, wantJoined: true},
		{name: "invited_viewer_counts_as_joined", viewerID: 4, wantJoined: true},
		{name: "removed_viewer", viewerID: 3, wantJoined: false},
		{name: "anonymous_viewer", viewerID: 0, wantJoined: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view, err := p.Enrich(context.Background(), tc.viewerID, post)
			require.NoError(t, err)
			require.NotNil(t, view.Activity)
			assert.Equal(t, int64(5), view.Activity.ActivityID)
			assert.Equal(t, int64(3), view.Activity.ParticipantCount)
			assert.Equal(t, tc.wantJoined, view.Activity.Joined)
		})
	}
}

func TestEnrich_SharedSource(t *testing.T) {
	const viewer = 20

	newStore := func() *fakeStore {
		store := newFakeStore()
		source := publicPost(100, 30)
		source.Medias = []model.PostMedia{{URL: "source.jpg"}}
		source.ActivityID = int64Ptr(7)
		store.posts[100] = source
		store.participants[7] = []model.ActivityParticipant{{ActivityID: 7, UserID: viewer, Status: model.ParticipantJoin}}
		return store
	}

	sharing := publicPost(1, 10)
	sharing.PostType = model.PostTypeShared
	sharing.SourcePostID = int64Ptr(100)

	t.Run("visible_source_is_enriched", func(t *testing.T) {
		view, err := newStore().pipeline().Enrich(context.Background(), viewer, sharing)
		require.NoError(t, err)
		require.NotNil(t, view.SourcePost)
		assert.Equal(t, int64(100), view.SourcePost.ID)
		assert.Equal(t, []model.Media{{URL: "source.jpg"}}, view.SourcePost.Medias)
		require.NotNil(t, view.SourcePost.Activity)
		assert.Equal(t, int64(1), view.SourcePost.Activity.ParticipantCount)
		assert.True(t, view.SourcePost.Activity.Joined)
	})

	t.Run("blocked_source_is_omitted", func(t *testing.T) {
		store := newStore()
		store.blocked[viewer] = []int64{30}
		view, err := store.pipeline().Enrich(context.Background(), viewer, sharing)
		require.NoError(t, err)
		assert.Nil(t, view.SourcePost)
	})

	t.Run("private_source_is_omitted", func(t *testing.T) {
		store := newStore()
		store.posts[100].AccessType = model.AccessPrivate
		view, err := store.pipeline().Enrich(context.Background(), viewer, sharing)
		require.NoError(t, err)
		assert.Nil(t, view.SourcePost)
	})

	t.Run("deleted_source_is_omitted", func(t *testing.T) {
		store := newStore()
		store.posts[100].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		view, err := store.pipeline().Enrich(context.Background(), viewer, sharing)
		require.NoError(t, err)
		assert.Nil(t, view.SourcePost)
	})

	t.Run("nested_source_is_not_followed", func(t *testing.T) {
		store := newStore()
		store.posts[100].PostType = model.PostTypeShared
		store.posts[100].SourcePostID = int64Ptr(200)
		store.posts[200] = publicPost(200, 40)

		view, err := store.pipeline().Enrich(context.Background(), viewer, sharing)
		require.NoError(t, err)
		require.NotNil(t, view.SourcePost)
		assert.Nil(t, view.SourcePost.SourcePost)
	})
}

func TestEnrich_SharedSourcePlan(t *testing.T) {
	newStore := func() *fakeStore {
		store := newFakeStore()
		source := publicPost(100, 30)
		source.PostType = model.PostTypeSharePlan
		source.PlanID = int64Ptr(9)
		store.posts[100] = source
		store.plans[9] = &model.Plan{
			ID:   9,
			Name: "Kyoto",
			Tasks: []model.Task{
				{ID: 1, PlanID: 9, LocationID: 50, Index: 0},
				{ID: 2, PlanID: 9, LocationID: 51, Index: 1},
			},
		}
		store.locations[50] = &model.MaterializedLocation{
			LocationID:   50,
			LocationType: model.LocationTypeTour,
			TourMedias:   []model.Media{{URL: "tour.jpg"}},
		}
		return store
	}

	sharing := publicPost(1, 10)
	sharing.PostType = model.PostTypeShared
	sharing.SourcePostID = int64Ptr(100)

	t.Run("plan_detail_is_folded_in", func(t *testing.T) {
		view, err := newStore().pipeline().Enrich(context.Background(), 20, sharing)
		require.NoError(t, err)
		require.NotNil(t, view.SourcePost)
		require.NotNil(t, view.SourcePost.Plan)
		assert.Equal(t, "Kyoto", view.SourcePost.Plan.Name)
		require.Len(t, view.SourcePost.Plan.Tasks, 2)
		assert.Equal(t, []model.Media{{URL: "tour.jpg"}}, view.SourcePost.Plan.Tasks[0].Medias)
		assert.Equal(t, []model.Media{}, view.SourcePost.Plan.Tasks[1].Medias)
	})

	t.Run("plan_failure_degrades", func(t *testing.T) {
		store := newStore()
		store.planErr = errStore
		view, err := store.pipeline().Enrich(context.Background(), 20, sharing)
		require.NoError(t, err)
		require.NotNil(t, view.SourcePost)
		assert.Nil(t, view.SourcePost.Plan)
	})
}

func TestEnrichBatch_SharePlanTasks(t *testing.T) {
	store := newFakeStore()
	store.locations[50] = &model.MaterializedLocation{
		LocationID:   50,
		LocationType: model.LocationTypeWhere,
		PostMedias:   []model.Media{{URL: "where-1.jpg"}, {URL: "where-2.jpg"}},
	}
	store.locations[51] = &model.MaterializedLocation{
		LocationID:      51,
		LocationType:    model.LocationTypeStay,
		BackgroundMedia: &model.Media{URL: "hotel.jpg"},
	}

	sharePlan := func(id int64, locationIDs ...int64) *model.Post {
		post := publicPost(id, 10)
		post.PostType = model.PostTypeSharePlan
		post.Plan = &model.Plan{ID: id}
		for i, locationID := range locationIDs {
			post.Plan.Tasks = append(post.Plan.Tasks, model.Task{ID: id*10 + int64(i), LocationID: locationID, Index: int32(i)})
		}
		return post
	}
	posts := []*model.Post{sharePlan(1, 50, 51), publicPost(2, 11), sharePlan(3, 51)}
	original := *posts[0].Plan

	views, err := store.pipeline().EnrichBatch(context.Background(), 20, posts, store.relations(20))
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, []int64{1, 2, 3}, []int64{views[0].ID, views[1].ID, views[2].ID})
	assert.Equal(t, 1, store.locationHit)

	require.NotNil(t, views[0].Plan)
	assert.Equal(t, []model.Media{{URL: "where-1.jpg"}, {URL: "where-2.jpg"}}, views[0].Plan.Tasks[0].Medias)
	assert.Equal(t, []model.Media{{URL: "hotel.jpg"}}, views[0].Plan.Tasks[1].Medias)
	assert.Nil(t, views[1].Plan)
	assert.Equal(t, []model.Media{{URL: "hotel.jpg"}}, views[2].Plan.Tasks[0].Medias)

	assert.Equal(t, original, *posts[0].Plan)
}

func TestEnrichBatch_RequiredFailures(t *testing.T) {
	t.Run("location_views", func(t *testing.T) {
		store := newFakeStore()
		store.locationErr = errStore

		post := publicPost(1, 10)
		post.PostType = model.PostTypeSharePlan
		post.Plan = &model.Plan{ID: 1, Tasks: []model.Task{{ID: 1, LocationID: 50}}}

		_, err := store.pipeline().EnrichBatch(context.Background(), 20, []*model.Post{post}, nil)
		require.Error(t, err)
		var retrieval *model.RetrievalError
		require.ErrorAs(t, err, &retrieval)
		assert.ErrorIs(t, err, errStore)
	})

	t.Run("reaction_flags", func(t *testing.T) {
		store := newFakeStore()
		store.reactionErr = errStore

		_, err := store.pipeline().EnrichBatch(context.Background(), 20, []*model.Post{publicPost(1, 10)}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, errStore)
	})
}

func TestEnrich_ViewerFlags(t *testing.T) {
	store := newFakeStore()
	store.reactions[1] = model.ReactionFlags{Liked: true, Rated: true}
	store.myMap[50] = true

	post := publicPost(1, 10)
	post.LocationID = int64Ptr(50)
	post.Location = &model.Location{ID: 50, Name: "Harbor", IsPublic: true}

	t.Run("signed_in_viewer", func(t *testing.T) {
		view, err := store.pipeline().Enrich(context.Background(), 20, post)
		require.NoError(t, err)
		assert.True(t, view.Liked)
		assert.False(t, view.Marked)
		assert.True(t, view.Rated)
		assert.True(t, view.SavedToMap)
	})

	t.Run("anonymous_viewer", func(t *testing.T) {
		view, err := store.pipeline().Enrich(context.Background(), 0, post)
		require.NoError(t, err)
		assert.False(t, view.Liked)
		assert.False(t, view.Rated)
		assert.False(t, view.SavedToMap)
	})
}

func TestEnrich_LocationRedaction(t *testing.T) {
	cases := []struct {
		name     string
		viewerID int64
		public   bool
		wantNil  bool
	}{
		{name: "public_location_for_others", viewerID: 20, public: true, wantNil: false},
		{name: "private_location_for_owner", viewerID: 10, public: false, wantNil: false},
		{name: "private_location_for_others", viewerID: 20, public: false, wantNil: true},
		{name: "private_location_for_anonymous", viewerID: 0, public: false, wantNil: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			post := publicPost(1, 10)
			post.LocationID = int64Ptr(50)
			post.Location = &model.Location{ID: 50, Name: "Secret Cove", IsPublic: tc.public}

			view, err := newFakeStore().pipeline().Enrich(context.Background(), tc.viewerID, post)
			require.NoError(t, err)
			if tc.wantNil {
				assert.Nil(t, view.Location)
				return
			}
			require.NotNil(t, view.Location)
			assert.Equal(t, "Secret Cove", view.Location.Name)
			assert.NotSame(t, post.Location, view.Location)
		})
	}
}

func TestResolveTaskMedias(t *testing.T) {
	medias := []model.Media{{URL: "1.jpg"}}
	background := &model.Media{URL: "bg.jpg"}

	cases := []struct {
		name string
		view *model.MaterializedLocation
		want []model.Media
	}{
		{name: "where", view: &model.MaterializedLocation{LocationType: model.LocationTypeWhere, PostMedias: medias}, want: medias},
		{name: "tour", view: &model.MaterializedLocation{LocationType: model.LocationTypeTour, TourMedias: medias}, want: medias},
		{name: "food", view: &model.MaterializedLocation{LocationType: model.LocationTypeFood, BackgroundMedia: background}, want: []model.Media{*background}},
		{name: "stay_without_background", view: &model.MaterializedLocation{LocationType: model.LocationTypeStay}, want: []model.Media{}},
		{name: "unknown_type", view: &model.MaterializedLocation{LocationType: "museum", PostMedias: medias}, want: []model.Media{}},
		{name: "missing_view", view: nil, want: []model.Media{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveTaskMedias(tc.view))
		})
	}
}
