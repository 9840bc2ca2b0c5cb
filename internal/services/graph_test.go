package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories/memory"
)

func TestGraphService_ToggleFollow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "anna")
	b := f.register(t, "ben")

	res, err := f.graph.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, res.IsFollowing)
	assert.Equal(t, 1, res.FollowersCount)

	actor, err := f.users.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	target, err := f.users.GetUserByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{b.ID}, actor.Following)
	assert.Equal(t, []primitive.ObjectID{a.ID}, target.Followers)

	res, err = f.graph.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, res.IsFollowing)
	assert.Equal(t, 0, res.FollowersCount)

	actor, err = f.users.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	target, err = f.users.GetUserByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, actor.Following)
	assert.Empty(t, target.Followers)
}

func TestGraphService_TogglePairRestoresState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "carl")
	b := f.register(t, "dina")
	c := f.register(t, "eve")
	f.follow(t, c.ID, b.ID)
	f.follow(t, b.ID, a.ID)

	connectedBefore, err := f.graph.IsConnected(ctx, a.ID, b.ID)
	require.NoError(t, err)
	before, err := f.users.GetUserByID(ctx, b.ID)
	require.NoError(t, err)

	first, err := f.graph.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, len(before.Followers)+1, first.FollowersCount)

	second, err := f.graph.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, len(before.Followers), second.FollowersCount)

	connectedAfter, err := f.graph.IsConnected(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, connectedBefore, connectedAfter)

	after, err := f.users.GetUserByID(ctx, b.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, before.Followers, after.Followers)
	assert.ElementsMatch(t, before.Following, after.Following)
}

func TestGraphService_ToggleFollow_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "fred")

	_, err := f.graph.ToggleFollow(ctx, a.ID, a.ID)
	require.ErrorIs(t, err, apperror.ErrSelfFollowForbidden)

	_, err = f.graph.ToggleFollow(ctx, a.ID, primitive.NewObjectID())
	require.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestGraphService_SetFollowIsRetrySafe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "gus")
	b := f.register(t, "hal")

	for i := 0; i < 3; i++ {
		res, err := f.graph.SetFollow(ctx, a.ID, b.ID, true)
		require.NoError(t, err)
		assert.True(t, res.IsFollowing)
		assert.Equal(t, 1, res.FollowersCount)
	}

	for i := 0; i < 2; i++ {
		res, err := f.graph.SetFollow(ctx, a.ID, b.ID, false)
		require.NoError(t, err)
		assert.False(t, res.IsFollowing)
		assert.Equal(t, 0, res.FollowersCount)
	}
}

func TestGraphService_IsConnected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "ida")
	b := f.register(t, "jon")
	c := f.register(t, "kim")
	f.follow(t, a.ID, b.ID)

	tt := []struct {
		name string
		x, y primitive.ObjectID
		want bool
	}{
		{name: "follower to followee", x: a.ID, y: b.ID, want: true},
		{name: "followee to follower", x: b.ID, y: a.ID, want: true},
		{name: "self", x: c.ID, y: c.ID, want: true},
		{name: "no edge", x: a.ID, y: c.ID, want: false},
		{name: "no edge reversed", x: c.ID, y: b.ID, want: false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.graph.IsConnected(ctx, tc.x, tc.y)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// flakyUsers fails the follower-side write so the rollback path runs.
type flakyUsers struct {
	*memory.UserRepository
	failFollowerWrites bool
}

func (r *flakyUsers) AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) (*models.User, error) {
	if r.failFollowerWrites {
		return nil, errors.New("connection reset")
	}
	return r.UserRepository.AddFollower(ctx, userID, followerID)
}

func (r *flakyUsers) RemoveFollower(ctx context.Context, userID, followerID primitive.ObjectID) (*models.User, error) {
	if r.failFollowerWrites {
		return nil, apperror.ErrTransient
	}
	return r.UserRepository.RemoveFollower(ctx, userID, followerID)
}

func TestGraphService_RollsBackOneSidedWrite(t *testing.T) {
	ctx := context.Background()
	users := &flakyUsers{UserRepository: memory.NewUserRepository()}
	f := newFixtureWithUsers(t, users)
	a := f.register(t, "lea")
	b := f.register(t, "max")

	users.failFollowerWrites = true
	_, err := f.graph.ToggleFollow(ctx, a.ID, b.ID)
	require.ErrorIs(t, err, apperror.ErrTransient)

	actor, err := users.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, actor.Following, "actor side is rolled back")

	users.failFollowerWrites = false
	f.follow(t, a.ID, b.ID)

	users.failFollowerWrites = true
	_, err = f.graph.ToggleFollow(ctx, a.ID, b.ID)
	require.ErrorIs(t, err, apperror.ErrTransient)

	actor, err = users.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	target, err := users.GetUserByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{b.ID}, actor.Following, "failed unfollow leaves the edge intact")
	assert.Equal(t, []primitive.ObjectID{a.ID}, target.Followers)
}

func TestGraphService_RepairsOneSidedEdge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "ned")
	b := f.register(t, "ola")

	_, err := f.users.AddFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)

	res, err := f.graph.SetFollow(ctx, a.ID, b.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FollowersCount)

	target, err := f.users.GetUserByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a.ID}, target.Followers)
}

// gatedUsers parks the first follower-side write until release is closed.
type gatedUsers struct {
	*memory.UserRepository
	once    sync.Once
	parked  chan struct{}
	release chan struct{}
}

func (r *gatedUsers) AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) (*models.User, error) {
	r.once.Do(func() {
		close(r.parked)
		<-r.release
	})
	return r.UserRepository.AddFollower(ctx, userID, followerID)
}

type followOutcome struct {
	res *models.FollowResult
	err error
}

func TestGraphService_InterleavedTogglesKeepEdgeSymmetric(t *testing.T) {
	ctx := context.Background()
	users := &gatedUsers{
		UserRepository: memory.NewUserRepository(),
		parked:         make(chan struct{}),
		release:        make(chan struct{}),
	}
	f := newFixtureWithUsers(t, users)
	a := f.register(t, "pia")
	b := f.register(t, "quin")

	first := make(chan followOutcome, 1)
	go func() {
		res, err := f.graph.ToggleFollow(ctx, a.ID, b.ID)
		first <- followOutcome{res, err}
	}()
	<-users.parked

	second := make(chan followOutcome, 1)
	go func() {
		res, err := f.graph.ToggleFollow(ctx, a.ID, b.ID)
		second <- followOutcome{res, err}
	}()

	select {
	case <-second:
		t.Fatal("second toggle finished while the first was between its writes")
	case <-time.After(50 * time.Millisecond):
	}
	close(users.release)

	r1, r2 := <-first, <-second
	require.NoError(t, r1.err)
	require.NoError(t, r2.err)
	assert.True(t, r1.res.IsFollowing)
	assert.False(t, r2.res.IsFollowing)
	assert.Equal(t, 0, r2.res.FollowersCount)

	actor, err := users.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	target, err := users.GetUserByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, actor.Following)
	assert.Empty(t, target.Followers)

	for _, pair := range [][2]primitive.ObjectID{{a.ID, b.ID}, {b.ID, a.ID}} {
		connected, err := f.graph.IsConnected(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.False(t, connected)
	}
}

// racingUsers runs interfere once, just before the first follower-side
// write, standing in for another instance changing the actor side.
type racingUsers struct {
	*memory.UserRepository
	interfere func()
}

func (r *racingUsers) AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) (*models.User, error) {
	if fn := r.interfere; fn != nil {
		r.interfere = nil
		fn()
	}
	return r.UserRepository.AddFollower(ctx, userID, followerID)
}

func TestGraphService_AlignsFollowerSideWithActorSide(t *testing.T) {
	ctx := context.Background()
	users := &racingUsers{UserRepository: memory.NewUserRepository()}
	f := newFixtureWithUsers(t, users)
	a := f.register(t, "rae")
	b := f.register(t, "sol")

	users.interfere = func() {
		_, err := users.UserRepository.RemoveFollowing(ctx, a.ID, b.ID)
		require.NoError(t, err)
	}

	res, err := f.graph.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, res.IsFollowing)
	assert.Equal(t, 0, res.FollowersCount)

	actor, err := users.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	target, err := users.GetUserByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, actor.Following)
	assert.Empty(t, target.Followers)
}

func TestGraphService_IsConnectedIsSymmetricOnOneSidedEdge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "tea")
	b := f.register(t, "uma")

	_, err := f.users.AddFollower(ctx, b.ID, a.ID)
	require.NoError(t, err)

	ab, err := f.graph.IsConnected(ctx, a.ID, b.ID)
	require.NoError(t, err)
	ba, err := f.graph.IsConnected(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ab)
	assert.Equal(t, ab, ba)
}
