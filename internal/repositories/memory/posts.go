package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostRepository is an in-memory repositories.PostRepository.
type PostRepository struct {
	mu    sync.RWMutex
	posts map[primitive.ObjectID]*models.Post
}

var _ repositories.PostRepository = (*PostRepository)(nil)

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[primitive.ObjectID]*models.Post)}
}

func (r *PostRepository) CreatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *PostRepository) GetPostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, apperror.ErrPostNotFound
	}
	return clonePost(p), nil
}

func (r *PostRepository) GetPosts(_ context.Context) ([]models.Post, error) {
	return r.list(func(*models.Post) bool { return true }), nil
}

func (r *PostRepository) GetPostsByAuthor(_ context.Context, authorID primitive.ObjectID) ([]models.Post, error) {
	return r.list(func(p *models.Post) bool { return p.Author == authorID }), nil
}

func (r *PostRepository) list(match func(*models.Post) bool) []models.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := []models.Post{}
	for _, p := range r.posts {
		if match(p) {
			posts = append(posts, *clonePost(p))
		}
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts
}

func (r *PostRepository) UpdateContent(_ context.Context, id primitive.ObjectID, content string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, apperror.ErrPostNotFound
	}
	p.Content = content
	p.UpdatedAt = time.Now()
	return clonePost(p), nil
}

func (r *PostRepository) DeletePost(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return apperror.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *PostRepository) AddLike(_ context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok || slices.Contains(p.Likes, userID) {
		return nil, false, nil
	}
	p.Likes = append(p.Likes, userID)
	return clonePost(p), true, nil
}

func (r *PostRepository) RemoveLike(_ context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok || !slices.Contains(p.Likes, userID) {
		return nil, false, nil
	}
	p.Likes = removeID(p.Likes, userID)
	return clonePost(p), true, nil
}

func (r *PostRepository) AddComment(_ context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok {
		return nil, apperror.ErrPostNotFound
	}
	p.Comments = append(p.Comments, comment)
	return clonePost(p), nil
}

func (r *PostRepository) RemoveComment(_ context.Context, postID, commentID, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok {
		return false, nil
	}
	i := slices.IndexFunc(p.Comments, func(c models.Comment) bool { return c.ID == commentID && c.User == userID })
	if i < 0 {
		return false, nil
	}
	p.Comments = slices.Delete(p.Comments, i, i+1)
	return true, nil
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = slices.Clone(p.Likes)
	c.Comments = slices.Clone(p.Comments)
	return &c
}
