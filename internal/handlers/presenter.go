package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/circle/backend/internal/models"
)

// RefResolver maps user ids to lightweight references.
type RefResolver interface {
	ResolveRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error)
}

// presenter turns stored records into response shapes. Relation resolution
// happens here and nowhere in the services.
type presenter struct {
	refs RefResolver
}

func (p presenter) profile(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	ids := make([]primitive.ObjectID, 0, len(user.Followers)+len(user.Following))
	ids = append(ids, user.Followers...)
	ids = append(ids, user.Following...)

	refs, err := p.refs.ResolveRefs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &models.UserProfile{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Bio:       user.Bio,
		Avatar:    user.Avatar,
		Followers: lookupRefs(refs, user.Followers),
		Following: lookupRefs(refs, user.Following),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}, nil
}

func (p presenter) followSummary(ctx context.Context, followers, following []primitive.ObjectID) (*models.FollowSummary, error) {
	ids := make([]primitive.ObjectID, 0, len(followers)+len(following))
	ids = append(ids, followers...)
	ids = append(ids, following...)

	refs, err := p.refs.ResolveRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &models.FollowSummary{
		Followers: lookupRefs(refs, followers),
		Following: lookupRefs(refs, following),
	}, nil
}

func (p presenter) post(ctx context.Context, post *models.Post) (*models.PostView, error) {
	views, err := p.posts(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// posts resolves the authors and commenters of every post in one lookup.
func (p presenter) posts(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	var ids []primitive.ObjectID
	for i := range posts {
		ids = append(ids, posts[i].ParticipantIDs()...)
	}

	refs, err := p.refs.ResolveRefs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, 0, len(posts))
	for _, post := range posts {
		comments := make([]models.CommentView, 0, len(post.Comments))
		for _, c := range post.Comments {
			comments = append(comments, models.CommentView{
				ID:        c.ID,
				User:      refOrBare(refs, c.User),
				Content:   c.Content,
				CreatedAt: c.CreatedAt,
			})
		}

		likes := post.Likes
		if likes == nil {
			likes = []primitive.ObjectID{}
		}

		views = append(views, models.PostView{
			ID:         post.ID,
			Author:     refOrBare(refs, post.Author),
			Content:    post.Content,
			Likes:      likes,
			LikesCount: len(likes),
			Comments:   comments,
			CreatedAt:  post.CreatedAt,
			UpdatedAt:  post.UpdatedAt,
		})
	}
	return views, nil
}

// lookupRefs keeps the order of ids and drops ids of users that no longer exist.
func lookupRefs(refs map[primitive.ObjectID]models.UserRef, ids []primitive.ObjectID) []models.UserRef {
	out := make([]models.UserRef, 0, len(ids))
	for _, id := range ids {
		if ref, ok := refs[id]; ok {
			out = append(out, ref)
		}
	}
	return out
}

func refOrBare(refs map[primitive.ObjectID]models.UserRef, id primitive.ObjectID) models.UserRef {
	if ref, ok := refs[id]; ok {
		return ref
	}
	return models.UserRef{ID: id}
}
