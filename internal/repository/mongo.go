package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/notification-service/internal/model"
)

const (
	NotificationsCollection = "notifications"
	UsersCollection         = "users"
	PostsCollection         = "posts"
)

type MongoNotificationRepo struct {
	col *mongo.Collection
}

func NewMongoNotificationRepo(ctx context.Context, db *mongo.Database) (*MongoNotificationRepo, error) {
	col := db.Collection(NotificationsCollection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "recipient_id", Value: 1}, {Key: "is_read", Value: 1}},
			Options: options.Index().SetName("recipient_unread_idx"),
		},
		{
			Keys:    bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("recipient_created_idx"),
		},
	})
	if err != nil {
		return nil, err
	}
	return &MongoNotificationRepo{col: col}, nil
}

func (r *MongoNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	_, err := r.col.InsertOne(ctx, n)
	return err
}

func (r *MongoNotificationRepo) GetForRecipient(ctx context.Context, id, recipientID string) (*model.Notification, error) {
	var n model.Notification
	err := r.col.FindOne(ctx, bson.M{"_id": id, "recipient_id": recipientID}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *MongoNotificationRepo) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	filter := bson.M{"_id": id, "recipient_id": recipientID, "is_read": false}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoNotificationRepo) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"recipient_id": recipientID, "is_read": false})
}

// newestFirst breaks created_at ties on the id, like MemoryNotificationRepo.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (r *MongoNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit int64, before time.Time) ([]*model.Notification, error) {
	filter := bson.M{"recipient_id": recipientID}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": before}
	}
	opts := options.Find().SetSort(newestFirst).SetLimit(limit)
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*model.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type MongoUserRepo struct {
	col *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{col: db.Collection(UsersCollection)}
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u model.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = &u
	}
	return out, cur.Err()
}

type MongoPostRepo struct {
	col *mongo.Collection
}

func NewMongoPostRepo(db *mongo.Database) *MongoPostRepo {
	return &MongoPostRepo{col: db.Collection(PostsCollection)}
}

func (r *MongoPostRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.Post, error) {
	out := make(map[string]*model.Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "author_id": 1, "content": 1})
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var p model.Post
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.ID] = &p
	}
	return out, cur.Err()
}
