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

type mongoRoomStore struct {
	col *mongo.Collection
}

func NewRoomStore(db *mongo.Database) RoomStore {
	return &mongoRoomStore{col: db.Collection("rooms")}
}

func (s *mongoRoomStore) Create(ctx context.Context, r *models.Room) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	res, err := s.col.InsertOne(ctx, r)
	if err != nil {
		return err
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *mongoRoomStore) GetByID(ctx context.Context, id string) (*models.Room, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	var r models.Room
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *mongoRoomStore) ListForUser(ctx context.Context, userID, search string) ([]models.Room, error) {
	filter := bson.M{"participants._id": userID}
	if search != "" {
		rx := primitive.Regex{Pattern: search, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"participants.first_name": rx},
			bson.M{"participants.last_name": rx},
			bson.M{"participants.username": rx},
		}
	}

	// Rooms without a last message have no timestamp field; mongo sorts
	// them after all rooms that do on a descending sort.
	opts := options.Find().SetSort(bson.D{{Key: "last_message.timestamp", Value: -1}})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rooms []models.Room
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *mongoRoomStore) SetLastMessage(ctx context.Context, roomID string, lm models.LastMessage) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return ErrInvalidID
	}
	res, err := s.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"last_message": lm,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoRoomStore) ResetUnread(ctx context.Context, roomID string) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return ErrInvalidID
	}
	_, err = s.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"unread_count": 0}})
	return err
}

func (s *mongoRoomStore) RemoveParticipant(ctx context.Context, roomID, userID string) error {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return ErrInvalidID
	}
	res, err := s.col.UpdateByID(ctx, oid, bson.M{
		"$pull": bson.M{"participants": bson.M{"_id": userID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
