package repositories

import (
	"context"
	"regexp"
	"time"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsers(ctx context.Context, excludeID primitive.ObjectID) ([]models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	FindByUsernameContains(ctx context.Context, query string, excludeID primitive.ObjectID, limit int64) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error)
	SetFirebaseUID(ctx context.Context, id primitive.ObjectID, firebaseUID string) error

	// Follow set mutations are idempotent: adding a present member or
	// removing an absent one leaves the document unchanged.
	AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (*models.User, error)
	RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (*models.User, error)
	AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) (*models.User, error)
	RemoveFollower(ctx context.Context, userID, followerID primitive.ObjectID) (*models.User, error)
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongoUserRepository creates a new MongoUserRepository. Every call is
// bounded by timeout.
func NewMongoUserRepository(db *mongo.Database, timeout time.Duration) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users"), timeout: timeout}
}

var withoutPassword = bson.M{"password": 0}

// EnsureIndexes creates the unique indexes backing username and email
// uniqueness.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "firebase_uid", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	return translate(err, apperror.ErrUserNotFound)
}

// CreateUser inserts a new user
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	// $addToSet and $pull fail on null fields, so both sets start empty.
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}

	_, err := r.collection.InsertOne(ctx, user)
	return translate(err, apperror.ErrUserNotFound)
}

// GetUserByID retrieves a user by ID
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by exact email
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetUserByUsername retrieves a user by exact username
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// GetUserByFirebaseUID retrieves a user linked to a Firebase account
func (r *MongoUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"firebase_uid": firebaseUID})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err, apperror.ErrUserNotFound)
	}
	return &user, nil
}

// GetUsers retrieves every user except excludeID, newest first
func (r *MongoUserRepository) GetUsers(ctx context.Context, excludeID primitive.ObjectID) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetProjection(withoutPassword)
	return r.find(ctx, bson.M{"_id": bson.M{"$ne": excludeID}}, opts)
}

// GetUsersByIDs retrieves the users with the given ids; missing ids are skipped
func (r *MongoUserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(withoutPassword))
}

// ExistsByUsernameOrEmail reports whether username or email is already in use
func (r *MongoUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"$or": []bson.M{{"username": username}, {"email": email}}}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err, apperror.ErrUserNotFound)
	}
	return count > 0, nil
}

// FindByUsernameContains searches usernames case-insensitively
func (r *MongoUserRepository) FindByUsernameContains(ctx context.Context, query string, excludeID primitive.ObjectID, limit int64) ([]models.User, error) {
	filter := bson.M{
		"username": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"},
		"_id":      bson.M{"$ne": excludeID},
	}
	opts := options.Find().SetLimit(limit).SetProjection(withoutPassword)
	return r.find(ctx, filter, opts)
}

func (r *MongoUserRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, apperror.ErrUserNotFound)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, translate(err, apperror.ErrUserNotFound)
	}
	return users, nil
}

// UpdateProfile sets the provided profile fields and returns the new document
func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	if update.Username != "" {
		set["username"] = update.Username
	}
	if update.Bio != "" {
		set["bio"] = update.Bio
	}
	if update.Avatar != "" {
		set["avatar"] = update.Avatar
	}

	user, err := r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
	if apperror.KindOf(err) == apperror.DuplicateIdentity {
		return nil, apperror.ErrUsernameTaken.WithCause(err)
	}
	return user, err
}

// SetFirebaseUID links a user to a Firebase account
func (r *MongoUserRepository) SetFirebaseUID(ctx context.Context, id primitive.ObjectID, firebaseUID string) error {
	_, err := r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"firebase_uid": firebaseUID, "updated_at": time.Now()}})
	return err
}

// AddFollowing adds targetID to the user's following set
func (r *MongoUserRepository) AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (*models.User, error) {
	return r.updateFollowSet(ctx, userID, "$addToSet", "following", targetID)
}

// RemoveFollowing removes targetID from the user's following set
func (r *MongoUserRepository) RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (*models.User, error) {
	return r.updateFollowSet(ctx, userID, "$pull", "following", targetID)
}

// AddFollower adds followerID to the user's followers set
func (r *MongoUserRepository) AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) (*models.User, error) {
	return r.updateFollowSet(ctx, userID, "$addToSet", "followers", followerID)
}

// RemoveFollower removes followerID from the user's followers set
func (r *MongoUserRepository) RemoveFollower(ctx context.Context, userID, followerID primitive.ObjectID) (*models.User, error) {
	return r.updateFollowSet(ctx, userID, "$pull", "followers", followerID)
}

func (r *MongoUserRepository) updateFollowSet(ctx context.Context, userID primitive.ObjectID, op, field string, member primitive.ObjectID) (*models.User, error) {
	update := bson.M{
		op:     bson.M{field: member},
		"$set": bson.M{"updated_at": time.Now()},
	}
	return r.findOneAndUpdate(ctx, userID, update)
}

func (r *MongoUserRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user); err != nil {
		return nil, translate(err, apperror.ErrUserNotFound)
	}
	return &user, nil
}
