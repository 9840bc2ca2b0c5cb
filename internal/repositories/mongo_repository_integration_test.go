//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
)

// setupMongo starts a MongoDB container and returns a fresh database
func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err, "failed to start MongoDB container")
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	return client.Database("circle_test")
}

func newUser(name string, createdAt time.Time) *models.User {
	return &models.User{
		Username:  name,
		Email:     name + "@example.com",
		Password:  "$2a$10$hash-of-" + name,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestMongoUserRepository(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()

	repo := NewMongoUserRepository(db, 5*time.Second)
	require.NoError(t, repo.EnsureIndexes(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	anna := newUser("anna", now.Add(-time.Hour))
	ben := newUser("ben", now)
	cleo := newUser("cleo", now.Add(-2*time.Hour))
	for _, u := range []*models.User{anna, ben, cleo} {
		require.NoError(t, repo.CreateUser(ctx, u))
	}

	t.Run("duplicate email", func(t *testing.T) {
		dup := newUser("anna2", now)
		dup.Email = anna.Email
		assert.ErrorIs(t, repo.CreateUser(ctx, dup), apperror.ErrDuplicateIdentity)
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := newUser("anna", now)
		dup.Email = "other@example.com"
		assert.ErrorIs(t, repo.CreateUser(ctx, dup), apperror.ErrDuplicateIdentity)
	})

	t.Run("profile update to a taken username", func(t *testing.T) {
		_, err := repo.UpdateProfile(ctx, ben.ID, models.ProfileUpdate{Username: "anna"})
		assert.ErrorIs(t, err, apperror.ErrUsernameTaken)
	})

	t.Run("credential lookups", func(t *testing.T) {
		u, err := repo.GetUserByEmail(ctx, anna.Email)
		require.NoError(t, err)
		assert.Equal(t, anna.Password, u.Password)

		_, err = repo.GetUserByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)

		exists, err := repo.ExistsByUsernameOrEmail(ctx, "nobody", ben.Email)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("listing never carries the hash and is newest first", func(t *testing.T) {
		users, err := repo.GetUsers(ctx, anna.ID)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, ben.ID, users[0].ID)
		assert.Equal(t, cleo.ID, users[1].ID)
		for _, u := range users {
			assert.Empty(t, u.Password)
		}

		found, err := repo.FindByUsernameContains(ctx, "AN", cleo.ID, 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, anna.ID, found[0].ID)
		assert.Empty(t, found[0].Password)

		refs, err := repo.GetUsersByIDs(ctx, []primitive.ObjectID{anna.ID, primitive.NewObjectID()})
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Empty(t, refs[0].Password)
	})

	t.Run("search treats the query literally", func(t *testing.T) {
		found, err := repo.FindByUsernameContains(ctx, ".*", primitive.NilObjectID, 10)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("follow sets are idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			u, err := repo.AddFollowing(ctx, anna.ID, ben.ID)
			require.NoError(t, err)
			assert.Equal(t, []primitive.ObjectID{ben.ID}, u.Following)

			u, err = repo.AddFollower(ctx, ben.ID, anna.ID)
			require.NoError(t, err)
			assert.Equal(t, []primitive.ObjectID{anna.ID}, u.Followers)
		}

		for i := 0; i < 2; i++ {
			u, err := repo.RemoveFollowing(ctx, anna.ID, ben.ID)
			require.NoError(t, err)
			assert.Empty(t, u.Following)

			u, err = repo.RemoveFollower(ctx, ben.ID, anna.ID)
			require.NoError(t, err)
			assert.Empty(t, u.Followers)
		}

		_, err := repo.AddFollowing(ctx, primitive.NewObjectID(), ben.ID)
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
	})

	t.Run("firebase link", func(t *testing.T) {
		require.NoError(t, repo.SetFirebaseUID(ctx, cleo.ID, "fb-uid-1"))
		u, err := repo.GetUserByFirebaseUID(ctx, "fb-uid-1")
		require.NoError(t, err)
		assert.Equal(t, cleo.ID, u.ID)
	})
}

func TestMongoPostRepository(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()

	repo := NewMongoPostRepository(db, 5*time.Second)
	require.NoError(t, repo.EnsureIndexes(ctx))

	author := primitive.NewObjectID()
	reader := primitive.NewObjectID()
	now := time.Now().UTC().Truncate(time.Millisecond)

	older := &models.Post{Author: author, Content: "first", CreatedAt: now.Add(-time.Minute), UpdatedAt: now}
	newer := &models.Post{Author: reader, Content: "second", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreatePost(ctx, older))
	require.NoError(t, repo.CreatePost(ctx, newer))

	t.Run("listing is newest first", func(t *testing.T) {
		posts, err := repo.GetPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, newer.ID, posts[0].ID)
		assert.Equal(t, older.ID, posts[1].ID)

		posts, err = repo.GetPostsByAuthor(ctx, author)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, older.ID, posts[0].ID)
	})

	t.Run("like writes are conditional", func(t *testing.T) {
		post, applied, err := repo.AddLike(ctx, older.ID, reader)
		require.NoError(t, err)
		require.True(t, applied)
		assert.Equal(t, []primitive.ObjectID{reader}, post.Likes)

		post, applied, err = repo.AddLike(ctx, older.ID, reader)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Nil(t, post)

		post, applied, err = repo.RemoveLike(ctx, older.ID, reader)
		require.NoError(t, err)
		require.True(t, applied)
		assert.Empty(t, post.Likes)

		_, applied, err = repo.RemoveLike(ctx, older.ID, reader)
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("comments", func(t *testing.T) {
		comment := models.Comment{ID: primitive.NewObjectID(), User: reader, Content: "nice", CreatedAt: now}
		post, err := repo.AddComment(ctx, older.ID, comment)
		require.NoError(t, err)
		require.Len(t, post.Comments, 1)

		removed, err := repo.RemoveComment(ctx, older.ID, comment.ID, author)
		require.NoError(t, err)
		assert.False(t, removed, "only the comment's author matches the filter")

		stored, err := repo.GetPostByID(ctx, older.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Comments, 1)

		removed, err = repo.RemoveComment(ctx, older.ID, comment.ID, reader)
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = repo.AddComment(ctx, primitive.NewObjectID(), comment)
		assert.ErrorIs(t, err, apperror.ErrPostNotFound)
	})

	t.Run("stored field names", func(t *testing.T) {
		var raw bson.M
		require.NoError(t, db.Collection("posts").FindOne(ctx, bson.M{"_id": older.ID}).Decode(&raw))
		assert.Contains(t, raw, "created_at")
		assert.Contains(t, raw, "likes")
		assert.Contains(t, raw, "comments")
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeletePost(ctx, newer.ID))
		assert.ErrorIs(t, repo.DeletePost(ctx, newer.ID), apperror.ErrPostNotFound)
	})
}
