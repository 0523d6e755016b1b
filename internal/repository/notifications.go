package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/khalteck/Rooms/internal/models"
)

type mongoNotificationStore struct {
	col *mongo.Collection
}

func NewNotificationStore(db *mongo.Database) NotificationStore {
	return &mongoNotificationStore{col: db.Collection("notifications")}
}

func (s *mongoNotificationStore) Insert(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now().UTC()
	res, err := s.col.InsertOne(ctx, n)
	if err != nil {
		return err
	}
	n.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *mongoNotificationStore) ListForUser(ctx context.Context, userID string, limit, skip int64) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip)
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var notifications []models.Notification
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *mongoNotificationStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

func (s *mongoNotificationStore) MarkRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	var n models.Notification
	after := options.After
	err = s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (s *mongoNotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

func (s *mongoNotificationStore) Delete(ctx context.Context, id, userID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoNotificationStore) DeleteAll(ctx context.Context, userID string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
