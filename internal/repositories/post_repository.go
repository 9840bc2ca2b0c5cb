package repositories

import (
	"context"
	"time"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	GetPosts(ctx context.Context) ([]models.Post, error)
	GetPostsByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Post, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*models.Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error

	// AddLike and RemoveLike are conditional writes. They report false
	// without error when the post is missing or the like set already has
	// the requested membership.
	AddLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error)
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error)

	AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error)
	// RemoveComment deletes the comment only if it was written by userID.
	RemoveComment(ctx context.Context, postID, commentID, userID primitive.ObjectID) (bool, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database, timeout time.Duration) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts"), timeout: timeout}
}

// EnsureIndexes creates the indexes used by the listing queries.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "author", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return translate(err, apperror.ErrPostNotFound)
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}

	_, err := r.collection.InsertOne(ctx, post)
	return translate(err, apperror.ErrPostNotFound)
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var post models.Post
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, translate(err, apperror.ErrPostNotFound)
	}
	return &post, nil
}

// GetPosts retrieves all posts, newest first
func (r *MongoPostRepository) GetPosts(ctx context.Context) ([]models.Post, error) {
	return r.find(ctx, bson.M{})
}

// GetPostsByAuthor retrieves the posts of one author, newest first
func (r *MongoPostRepository) GetPostsByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Post, error) {
	return r.find(ctx, bson.M{"author": authorID})
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M) ([]models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, translate(err, apperror.ErrPostNotFound)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, translate(err, apperror.ErrPostNotFound)
	}
	return posts, nil
}

// UpdateContent replaces the content of a post
func (r *MongoPostRepository) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (*models.Post, error) {
	update := bson.M{"$set": bson.M{"content": content, "updated_at": time.Now()}}
	post, _, err := r.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperror.ErrPostNotFound
	}
	return post, nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, apperror.ErrPostNotFound)
	}
	if res.DeletedCount == 0 {
		return apperror.ErrPostNotFound
	}
	return nil
}

// AddLike adds userID to the like set if it is not there yet
func (r *MongoPostRepository) AddLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error) {
	filter := bson.M{"_id": postID, "likes": bson.M{"$ne": userID}}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$addToSet": bson.M{"likes": userID}})
}

// RemoveLike removes userID from the like set if it is there
func (r *MongoPostRepository) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error) {
	filter := bson.M{"_id": postID, "likes": userID}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$pull": bson.M{"likes": userID}})
}

// AddComment appends a comment to the end of the post's comment list
func (r *MongoPostRepository) AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	post, _, err := r.findOneAndUpdate(ctx, bson.M{"_id": postID}, bson.M{"$push": bson.M{"comments": comment}})
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperror.ErrPostNotFound
	}
	return post, nil
}

// RemoveComment pulls a comment owned by userID
func (r *MongoPostRepository) RemoveComment(ctx context.Context, postID, commentID, userID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{
		"_id":      postID,
		"comments": bson.M{"$elemMatch": bson.M{"_id": commentID, "user": userID}},
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}})
	if err != nil {
		return false, translate(err, apperror.ErrCommentNotFound)
	}
	return res.ModifiedCount > 0, nil
}

// findOneAndUpdate applies update to the document matching filter. A filter
// that matches nothing yields (nil, false, nil).
func (r *MongoPostRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Post, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, translate(err, apperror.ErrPostNotFound)
	}
	return &post, true, nil
}
