package service

import (
	"context"
	"errors"

	"github.com/khalteck/Rooms/internal/apperr"
	"github.com/khalteck/Rooms/internal/models"
	"github.com/khalteck/Rooms/internal/repository"
)

// NotificationService exposes the read/unread queries and mutations over a
// user's notifications. Every operation is scoped to the caller: a
// notification owned by someone else behaves as if it did not exist.
type NotificationService struct {
	notifications repository.NotificationStore
}

func NewNotificationService(notifications repository.NotificationStore) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns the caller's notifications newest-first plus their total
// unread count.
func (s *NotificationService) List(ctx context.Context, userID string, limit, skip int64) ([]models.Notification, int64, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if skip < 0 {
		skip = 0
	}
	notifications, err := s.notifications.ListForUser(ctx, userID, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (*models.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, notificationLookupError(err)
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	if err := s.notifications.Delete(ctx, id, userID); err != nil {
		return notificationLookupError(err)
	}
	return nil
}

func (s *NotificationService) DeleteAll(ctx context.Context, userID string) error {
	return s.notifications.DeleteAll(ctx, userID)
}

func notificationLookupError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("Not Found", "Notification not found")
	case errors.Is(err, repository.ErrInvalidID):
		return apperr.BadRequest("Invalid ID format", "The provided ID is not valid")
	default:
		return err
	}
}
