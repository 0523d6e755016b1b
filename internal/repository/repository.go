// Package repository is the persistence gateway. The rest of the service
// depends on these interfaces only; the mongo implementations live alongside
// them and tests substitute in-memory fakes.
package repository

import (
	"context"
	"errors"

	"github.com/khalteck/Rooms/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist (or is not
	// owned by the caller, for owner-scoped lookups).
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for malformed document ids.
	ErrInvalidID = errors.New("invalid id")
	// ErrDuplicate is returned on unique index violations.
	ErrDuplicate = errors.New("duplicate key")
)

// ProfileUpdate carries the mutable user profile/preference fields. Nil
// pointers mean "leave unchanged".
type ProfileUpdate struct {
	FirstName            *string
	LastName             *string
	Avatar               *string
	Theme                *string
	NotificationsEnabled *bool
	SoundEnabled         *bool
	OnboardingCompleted  *bool
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	SetStatus(ctx context.Context, id, status string) error
	SetPassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.User, error)
}

type RoomStore interface {
	Create(ctx context.Context, r *models.Room) error
	GetByID(ctx context.Context, id string) (*models.Room, error)
	// ListForUser returns rooms the user participates in, newest
	// last-message first. search filters by case-insensitive substring on
	// room name or any participant's first/last/username.
	ListForUser(ctx context.Context, userID, search string) ([]models.Room, error)
	SetLastMessage(ctx context.Context, roomID string, lm models.LastMessage) error
	ResetUnread(ctx context.Context, roomID string) error
	RemoveParticipant(ctx context.Context, roomID, userID string) error
}

type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) error
	// ListByRoom returns up to limit messages with id strictly less than
	// cursor (all newest messages when cursor is empty), sorted by id
	// descending.
	ListByRoom(ctx context.Context, roomID, cursor string, limit int64) ([]models.Message, error)
	// MarkRead flips read=true on every unread message in the room not
	// authored by userID and returns the number of messages updated.
	MarkRead(ctx context.Context, roomID, userID string) (int64, error)
}

type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, limit, skip int64) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id, userID string) error
	DeleteAll(ctx context.Context, userID string) error
}
