package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/khalteck/Rooms/internal/apperr"
	"github.com/khalteck/Rooms/internal/models"
	"github.com/khalteck/Rooms/internal/repository"
)

type RoomService struct {
	rooms    repository.RoomStore
	users    repository.UserStore
	messages repository.MessageStore
	log      *zap.SugaredLogger
}

func NewRoomService(rooms repository.RoomStore, users repository.UserStore, messages repository.MessageStore, log *zap.SugaredLogger) *RoomService {
	return &RoomService{rooms: rooms, users: users, messages: messages, log: log}
}

// List returns the caller's rooms, newest last-message first, optionally
// filtered by a case-insensitive substring over room name and participant
// names.
func (s *RoomService) List(ctx context.Context, userID, search string) ([]models.Room, error) {
	rooms, err := s.rooms.ListForUser(ctx, userID, search)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}

// Create starts a direct-message room between the caller and the user behind
// participantEmail. Both participants are embedded as denormalized snapshots
// and a system message announcing the room becomes its first lastMessage.
func (s *RoomService) Create(ctx context.Context, userID, participantEmail string) (*models.Room, error) {
	if participantEmail == "" {
		return nil, apperr.BadRequest("Bad Request", "Participant email is required")
	}

	counterpart, err := s.users.GetByEmail(ctx, participantEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Not Found", "User with this email does not exist")
		}
		return nil, err
	}

	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, apperr.Unauthorized("Unauthorized", "Current user not found")
		}
		return nil, err
	}

	room := &models.Room{
		Participants: []models.Participant{
			snapshot(current),
			snapshot(counterpart),
		},
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}

	// The system message and the lastMessage update are separate writes;
	// a failure between them leaves a room without a lastMessage, which
	// the list view tolerates.
	sys := &models.Message{
		RoomID:    room.ID.Hex(),
		SenderID:  current.ID.Hex(),
		Content:   fmt.Sprintf("%s created the room with %s.", current.DisplayName(), counterpart.DisplayName()),
		Timestamp: time.Now().UTC(),
		Read:      false,
		Type:      models.MessageTypeSystem,
	}
	if err := s.messages.Insert(ctx, sys); err != nil {
		return nil, err
	}

	lm := models.LastMessage{
		ID:        sys.ID.Hex(),
		Content:   sys.Content,
		Timestamp: sys.Timestamp,
	}
	if err := s.rooms.SetLastMessage(ctx, room.ID.Hex(), lm); err != nil {
		return nil, err
	}
	room.LastMessage = &lm

	return room, nil
}

// Get returns a room the caller participates in.
func (s *RoomService) Get(ctx context.Context, userID, roomID string) (*models.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, roomLookupError(err)
	}
	if !room.HasParticipant(userID) {
		return nil, apperr.Forbidden("Forbidden", "User is not a participant in this room")
	}
	return room, nil
}

// Authorize checks that the caller may subscribe to a room's broadcast
// group. A missing room and a non-participant caller fail identically.
func (s *RoomService) Authorize(ctx context.Context, userID, roomID string) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return apperr.Forbidden("Not authorized to join this room", "")
		}
		return err
	}
	if !room.HasParticipant(userID) {
		return apperr.Forbidden("Not authorized to join this room", "")
	}
	return nil
}

// Leave permanently removes the caller from the room's participant list. The
// room document itself persists; it simply stops appearing in the leaver's
// room list.
func (s *RoomService) Leave(ctx context.Context, userID, roomID string) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return roomLookupError(err)
	}
	if !room.HasParticipant(userID) {
		return apperr.Forbidden("Forbidden", "User is not a participant in this room")
	}
	return s.rooms.RemoveParticipant(ctx, roomID, userID)
}

func snapshot(u *models.User) models.Participant {
	return models.Participant{
		ID:        u.ID.Hex(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Avatar:    u.Avatar,
	}
}

// roomLookupError maps store errors from a room fetch. A missing room and a
// malformed id both surface without confirming whether the room exists.
func roomLookupError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("Not Found", "Room not found")
	case errors.Is(err, repository.ErrInvalidID):
		return apperr.BadRequest("Invalid ID format", "The provided ID is not valid")
	default:
		return err
	}
}
