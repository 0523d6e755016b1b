package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/khalteck/Rooms/internal/models"
)

type mongoMessageStore struct {
	col *mongo.Collection
}

func NewMessageStore(db *mongo.Database) MessageStore {
	return &mongoMessageStore{col: db.Collection("messages")}
}

func (s *mongoMessageStore) Insert(ctx context.Context, m *models.Message) error {
	res, err := s.col.InsertOne(ctx, m)
	if err != nil {
		return err
	}
	m.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *mongoMessageStore) ListByRoom(ctx context.Context, roomID, cursor string, limit int64) ([]models.Message, error) {
	filter := bson.M{"room_id": roomID}
	if cursor != "" {
		oid, err := primitive.ObjectIDFromHex(cursor)
		if err != nil {
			return nil, ErrInvalidID
		}
		filter["_id"] = bson.M{"$lt": oid}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var messages []models.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *mongoMessageStore) MarkRead(ctx context.Context, roomID, userID string) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"room_id": roomID, "sender_id": bson.M{"$ne": userID}, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
