package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

// maxLikeAttempts bounds the re-read/recompute loop of a like change that
// keeps losing to concurrent writers.
const maxLikeAttempts = 3

// Connectivity answers whether two users may interact.
type Connectivity interface {
	IsConnected(ctx context.Context, a, b primitive.ObjectID) (bool, error)
}

// PostService owns posts and the likes and comments inside them.
type PostService struct {
	posts repositories.PostRepository
	users repositories.UserRepository
	graph Connectivity
	now   func() time.Time
}

func NewPostService(posts repositories.PostRepository, users repositories.UserRepository, graph Connectivity) *PostService {
	return &PostService{
		posts: posts,
		users: users,
		graph: graph,
		now:   time.Now,
	}
}

// Create publishes a post by authorID.
func (s *PostService) Create(ctx context.Context, authorID primitive.ObjectID, content string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ErrEmptyContent
	}

	now := s.now()
	post := &models.Post{
		Author:    authorID,
		Content:   content,
		Likes:     []primitive.ObjectID{},
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Get returns a single post.
func (s *PostService) Get(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	return s.posts.GetPostByID(ctx, postID)
}

// Update replaces the content of a post owned by actorID.
func (s *PostService) Update(ctx context.Context, postID, actorID primitive.ObjectID, content string) (*models.Post, error) {
	post, err := s.owned(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ErrEmptyContent
	}

	return s.posts.UpdateContent(ctx, post.ID, content)
}

// Delete removes a post owned by actorID.
func (s *PostService) Delete(ctx context.Context, postID, actorID primitive.ObjectID) error {
	post, err := s.owned(ctx, postID, actorID)
	if err != nil {
		return err
	}
	return s.posts.DeletePost(ctx, post.ID)
}

func (s *PostService) owned(ctx context.Context, postID, actorID primitive.ObjectID) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Author != actorID {
		return nil, apperror.ErrNotAuthorized
	}
	return post, nil
}

// ToggleLike adds actorID to the post's likes, or removes it if present.
func (s *PostService) ToggleLike(ctx context.Context, postID, actorID primitive.ObjectID) (*models.Post, error) {
	return s.changeLike(ctx, postID, actorID, func(liked bool) bool { return !liked })
}

// SetLike drives actorID's like on the post to the wanted state. Unlike
// ToggleLike it is safe to retry.
func (s *PostService) SetLike(ctx context.Context, postID, actorID primitive.ObjectID, want bool) (*models.Post, error) {
	return s.changeLike(ctx, postID, actorID, func(bool) bool { return want })
}

// changeLike applies decide to the current like state with conditional
// writes, re-reading the post whenever a concurrent change wins.
func (s *PostService) changeLike(ctx context.Context, postID, actorID primitive.ObjectID, decide func(liked bool) bool) (*models.Post, error) {
	post, err := s.interactable(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxLikeAttempts; attempt++ {
		liked := post.LikedBy(actorID)
		want := decide(liked)
		if want == liked {
			return post, nil
		}

		var (
			updated *models.Post
			applied bool
		)
		if want {
			updated, applied, err = s.posts.AddLike(ctx, post.ID, actorID)
		} else {
			updated, applied, err = s.posts.RemoveLike(ctx, post.ID, actorID)
		}
		if err != nil {
			return nil, err
		}
		if applied {
			return updated, nil
		}

		if post, err = s.posts.GetPostByID(ctx, postID); err != nil {
			return nil, err
		}
	}

	return nil, apperror.ErrTransient
}

// AddComment appends a comment by actorID to the post.
func (s *PostService) AddComment(ctx context.Context, postID, actorID primitive.ObjectID, content string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ErrEmptyContent
	}

	post, err := s.interactable(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		User:      actorID,
		Content:   content,
		CreatedAt: s.now(),
	}
	return s.posts.AddComment(ctx, post.ID, comment)
}

// DeleteComment removes a comment. Only the comment's author may do so; the
// post's author has no extra rights over other users' comments.
func (s *PostService) DeleteComment(ctx context.Context, postID, commentID, actorID primitive.ObjectID) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}

	comment, ok := post.FindComment(commentID)
	if !ok {
		return apperror.ErrCommentNotFound
	}
	if comment.User != actorID {
		return apperror.ErrNotAuthorized
	}

	removed, err := s.posts.RemoveComment(ctx, postID, commentID, actorID)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.ErrCommentNotFound
	}
	return nil
}

// ListAll returns every post, newest first.
func (s *PostService) ListAll(ctx context.Context) ([]models.Post, error) {
	return s.posts.GetPosts(ctx)
}

// ListByAuthor returns the posts of one author, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Post, error) {
	return s.posts.GetPostsByAuthor(ctx, authorID)
}

// interactable loads the post and checks that actorID exists and is
// connected to its author.
func (s *PostService) interactable(ctx context.Context, postID, actorID primitive.ObjectID) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, actorID); err != nil {
		return nil, err
	}

	connected, err := s.graph.IsConnected(ctx, actorID, post.Author)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, apperror.ErrNotConnected
	}
	return post, nil
}
