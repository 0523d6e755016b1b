package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khalteck/Rooms/internal/apperr"
	"github.com/khalteck/Rooms/internal/events"
	"github.com/khalteck/Rooms/internal/models"
	"github.com/khalteck/Rooms/internal/repository"
)

const defaultPageSize = 20

// MessageService is the message pipeline: validation, persistence, room
// summary maintenance, real-time fan-out and notification creation. The
// multi-document effects of Send are a best-effort sequence with no
// cross-document transaction; a step failure stops the sequence and is
// reported to the sender, already-completed steps stay committed.
type MessageService struct {
	rooms         repository.RoomStore
	messages      repository.MessageStore
	notifications repository.NotificationStore
	broadcast     Broadcaster
	publisher     *events.Publisher
	log           *zap.SugaredLogger
}

func NewMessageService(
	rooms repository.RoomStore,
	messages repository.MessageStore,
	notifications repository.NotificationStore,
	broadcast Broadcaster,
	publisher *events.Publisher,
	log *zap.SugaredLogger,
) *MessageService {
	if broadcast == nil {
		broadcast = noopBroadcaster{}
	}
	return &MessageService{
		rooms:         rooms,
		messages:      messages,
		notifications: notifications,
		broadcast:     broadcast,
		publisher:     publisher,
		log:           log,
	}
}

// Send persists a user message and fans it out:
//
//  1. insert the message
//  2. overwrite the room's lastMessage summary
//  3. newMessage to the room group, roomUpdated to every participant's
//     personal group
//  4. one notification per non-sender participant, pushed to their
//     personal group
func (s *MessageService) Send(ctx context.Context, userID, roomID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.BadRequest("Bad Request", "Message content is required")
	}

	room, err := s.participantRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		RoomID:    roomID,
		SenderID:  userID,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Read:      false,
		Type:      models.MessageTypeUser,
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}

	lm := models.LastMessage{
		ID:        msg.ID.Hex(),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
	if err := s.rooms.SetLastMessage(ctx, roomID, lm); err != nil {
		// the message is already persisted; no rollback
		return nil, err
	}
	room.LastMessage = &lm
	room.UpdatedAt = lm.Timestamp

	s.broadcast.EmitToRoom(roomID, "newMessage", map[string]any{
		"roomId":  roomID,
		"message": msg,
	})
	for _, p := range room.Participants {
		s.broadcast.EmitToUser(p.ID, "roomUpdated", map[string]any{"room": room})
	}

	sender, _ := room.FindParticipant(userID)
	for _, p := range room.Participants {
		if p.ID == userID {
			continue
		}
		n := &models.Notification{
			UserID:  p.ID,
			Type:    models.NotificationTypeMessage,
			Title:   sender.DisplayName(),
			Message: content,
			RoomID:  roomID,
			Read:    false,
		}
		if err := s.notifications.Insert(ctx, n); err != nil {
			return nil, err
		}
		s.broadcast.EmitToUser(p.ID, "newNotification", map[string]any{"notification": n})
	}

	if err := s.publisher.MessageSent(ctx, msg); err != nil {
		s.log.Warnw("kafka publish failed", "room", roomID, "err", err)
	}

	return msg, nil
}

// GetMessages pages backward through a room's history. cursor is the id of
// the oldest previously-seen message; the page holds up to limit messages
// older than it, returned oldest-first. Messages are immutable and ids are
// creation-ordered, so repeating a cursor reproduces the same page.
func (s *MessageService) GetMessages(ctx context.Context, userID, roomID string, limit int64, cursor string) ([]models.Message, Pagination, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	if _, err := s.participantRoom(ctx, userID, roomID); err != nil {
		return nil, Pagination{}, err
	}

	msgs, err := s.messages.ListByRoom(ctx, roomID, cursor, limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return nil, Pagination{}, apperr.BadRequest("Invalid ID format", "The provided cursor is not valid")
		}
		return nil, Pagination{}, err
	}

	page := Pagination{HasMore: int64(len(msgs)) == limit}
	if len(msgs) > 0 {
		oldest := msgs[len(msgs)-1].ID.Hex()
		page.NextCursor = &oldest
	}

	// store order is newest-first; flip to chronological for display
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, page, nil
}

// MarkRead flips every unread message not authored by the caller to read and
// resets the room's unread counter. Idempotent.
func (s *MessageService) MarkRead(ctx context.Context, userID, roomID string) error {
	if _, err := s.participantRoom(ctx, userID, roomID); err != nil {
		return err
	}
	if _, err := s.messages.MarkRead(ctx, roomID, userID); err != nil {
		return err
	}
	return s.rooms.ResetUnread(ctx, roomID)
}

// participantRoom loads the room and checks the caller against its
// denormalized participant list. A missing room and a non-participant caller
// produce the same error so callers can't probe for room existence.
func (s *MessageService) participantRoom(ctx context.Context, userID, roomID string) (*models.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidID):
			return nil, apperr.NotFound("Room not found", "User is not a participant of the room")
		default:
			return nil, err
		}
	}
	if !room.HasParticipant(userID) {
		return nil, apperr.NotFound("Room not found", "User is not a participant of the room")
	}
	return room, nil
}
