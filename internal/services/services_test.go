package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/circle/backend/internal/auth"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"github.com/anonto42/circle/backend/internal/repositories/memory"
)

type fixture struct {
	users    repositories.UserRepository
	identity *IdentityService
	graph    *GraphService
	posts    *PostService
	notes    *NoteService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithUsers(t, memory.NewUserRepository())
}

func newFixtureWithUsers(t *testing.T, users repositories.UserRepository) *fixture {
	t.Helper()

	graph := NewGraphService(users)
	return &fixture{
		users:    users,
		identity: NewIdentityService(users, auth.NewBcryptHasher(4), auth.NewJWTManager("test-secret", time.Hour)),
		graph:    graph,
		posts:    NewPostService(memory.NewPostRepository(), users, graph),
		notes:    NewNoteService(memory.NewNoteRepository()),
	}
}

func (f *fixture) register(t *testing.T, username string) *models.User {
	t.Helper()

	session, err := f.identity.Register(context.Background(), username, username+"@example.com", "password1")
	require.NoError(t, err)
	return session.User
}

func (f *fixture) follow(t *testing.T, actor, target primitive.ObjectID) {
	t.Helper()

	res, err := f.graph.SetFollow(context.Background(), actor, target, true)
	require.NoError(t, err)
	require.True(t, res.IsFollowing)
}
