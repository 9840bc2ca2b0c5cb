// Package memory provides in-process repositories used for local runs and
// tests. Each collection is guarded by its own lock and every value crosses
// the boundary as a copy.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository is an in-memory repositories.UserRepository.
type UserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *UserRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return apperror.ErrDuplicateIdentity
		}
		if user.FirebaseUID != "" && u.FirebaseUID == user.FirebaseUID {
			return apperror.ErrDuplicateIdentity
		}
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepository) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return r.findOne(func(u *models.User) bool { return u.Email == email })
}

func (r *UserRepository) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return r.findOne(func(u *models.User) bool { return u.Username == username })
}

func (r *UserRepository) GetUserByFirebaseUID(_ context.Context, firebaseUID string) (*models.User, error) {
	return r.findOne(func(u *models.User) bool { return u.FirebaseUID != "" && u.FirebaseUID == firebaseUID })
}

func (r *UserRepository) findOne(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

func (r *UserRepository) GetUsers(_ context.Context, excludeID primitive.ObjectID) ([]models.User, error) {
	users := r.filter(func(u *models.User) bool { return u.ID != excludeID })
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (r *UserRepository) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	return r.filter(func(u *models.User) bool { return slices.Contains(ids, u.ID) }), nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	users := r.filter(func(u *models.User) bool { return u.Username == username || u.Email == email })
	return len(users) > 0, nil
}

func (r *UserRepository) FindByUsernameContains(_ context.Context, query string, excludeID primitive.ObjectID, limit int64) ([]models.User, error) {
	q := strings.ToLower(query)
	users := r.filter(func(u *models.User) bool {
		return u.ID != excludeID && strings.Contains(strings.ToLower(u.Username), q)
	})
	sort.SliceStable(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	if int64(len(users)) > limit {
		users = users[:limit]
	}
	return users, nil
}

// filter returns copies of the matching users with the password stripped.
func (r *UserRepository) filter(match func(*models.User) bool) []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []models.User{}
	for _, u := range r.users {
		if match(u) {
			c := cloneUser(u)
			c.Password = ""
			users = append(users, *c)
		}
	}
	return users
}

func (r *UserRepository) UpdateProfile(_ context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	if update.Username != "" {
		for _, other := range r.users {
			if other.ID != id && other.Username == update.Username {
				return nil, apperror.ErrUsernameTaken
			}
		}
		u.Username = update.Username
	}
	if update.Bio != "" {
		u.Bio = update.Bio
	}
	if update.Avatar != "" {
		u.Avatar = update.Avatar
	}
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (r *UserRepository) SetFirebaseUID(_ context.Context, id primitive.ObjectID, firebaseUID string) error {
	_, err := r.mutate(id, func(u *models.User) { u.FirebaseUID = firebaseUID })
	return err
}

func (r *UserRepository) AddFollowing(_ context.Context, userID, targetID primitive.ObjectID) (*models.User, error) {
	return r.mutate(userID, func(u *models.User) { u.Following = addID(u.Following, targetID) })
}

func (r *UserRepository) RemoveFollowing(_ context.Context, userID, targetID primitive.ObjectID) (*models.User, error) {
	return r.mutate(userID, func(u *models.User) { u.Following = removeID(u.Following, targetID) })
}

func (r *UserRepository) AddFollower(_ context.Context, userID, followerID primitive.ObjectID) (*models.User, error) {
	return r.mutate(userID, func(u *models.User) { u.Followers = addID(u.Followers, followerID) })
}

func (r *UserRepository) RemoveFollower(_ context.Context, userID, followerID primitive.ObjectID) (*models.User, error) {
	return r.mutate(userID, func(u *models.User) { u.Followers = removeID(u.Followers, followerID) })
}

func (r *UserRepository) mutate(id primitive.ObjectID, fn func(*models.User)) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Followers = slices.Clone(u.Followers)
	c.Following = slices.Clone(u.Following)
	return &c
}

func addID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	return slices.DeleteFunc(ids, func(v primitive.ObjectID) bool { return v == id })
}
