package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a post stored in MongoDB together with its likes and
// comments. Author and CreatedAt never change after creation.
type Post struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Author    primitive.ObjectID   `json:"author" bson:"author"`
	Content   string               `json:"content" bson:"content"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments  []Comment            `json:"comments" bson:"comments"`
	CreatedAt time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updated_at"`
}

// LikedBy reports whether userID is in the like set.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	return slices.Contains(p.Likes, userID)
}

// FindComment returns the comment with the given id.
func (p *Post) FindComment(id primitive.ObjectID) (*Comment, bool) {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i], true
		}
	}
	return nil, false
}

// ParticipantIDs returns the author and every commenter, without duplicates.
func (p *Post) ParticipantIDs() []primitive.ObjectID {
	ids := []primitive.ObjectID{p.Author}
	for _, c := range p.Comments {
		if !slices.Contains(ids, c.User) {
			ids = append(ids, c.User)
		}
	}
	return ids
}

// PostView is a post with its author and commenters resolved.
type PostView struct {
	ID         primitive.ObjectID   `json:"id"`
	Author     UserRef              `json:"author"`
	Content    string               `json:"content"`
	Likes      []primitive.ObjectID `json:"likes"`
	LikesCount int                  `json:"likesCount"`
	Comments   []CommentView        `json:"comments"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}
