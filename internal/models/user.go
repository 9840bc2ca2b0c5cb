package models

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account stored in the users collection. Followers and Following
// are the two halves of every follow edge and are kept in step by the graph
// service.
type User struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Username    string               `json:"username" bson:"username"`
	Email       string               `json:"email" bson:"email"`
	Password    string               `json:"-" bson:"password"` // bcrypt hash
	Bio         string               `json:"bio" bson:"bio"`
	Avatar      string               `json:"avatar" bson:"avatar"`
	Followers   []primitive.ObjectID `json:"followers" bson:"followers"`
	Following   []primitive.ObjectID `json:"following" bson:"following"`
	FirebaseUID string               `json:"-" bson:"firebase_uid,omitempty"`
	CreatedAt   time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updated_at"`
}

// IsFollowing reports whether u follows id.
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	return slices.Contains(u.Following, id)
}

// HasFollower reports whether id follows u.
func (u *User) HasFollower(id primitive.ObjectID) bool {
	return slices.Contains(u.Followers, id)
}

// ToRef returns the lightweight reference used when embedding users in other
// resources.
func (u *User) ToRef() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// UserRef is a resolved reference to a user.
type UserRef struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Avatar   string             `json:"avatar"`
}

// UserProfile is a user with follow relations resolved to references.
type UserProfile struct {
	ID        primitive.ObjectID `json:"id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	Bio       string             `json:"bio"`
	Avatar    string             `json:"avatar"`
	Followers []UserRef          `json:"followers"`
	Following []UserRef          `json:"following"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ProfileUpdate holds the editable profile fields. Empty strings mean the
// field was not provided.
type ProfileUpdate struct {
	Username string
	Bio      string
	Avatar   string
}

// IsEmpty reports whether no field was provided.
func (p ProfileUpdate) IsEmpty() bool {
	return p.Username == "" && p.Bio == "" && p.Avatar == ""
}

// Session is the result of a successful registration or login.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ExternalIdentity is an identity asserted by a verified third-party ID token.
type ExternalIdentity struct {
	UID   string
	Email string
	Name  string
}

// RegisterRequest defines the request body for registering a local account
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// UpdateUserRequest defines the request body for updating the own profile
type UpdateUserRequest struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=30,username"`
	Bio      string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Avatar   string `json:"avatar,omitempty" validate:"omitempty,url,max=2048"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
