package service

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/khalteck/Rooms/internal/models"
	"github.com/khalteck/Rooms/internal/repository"
)

// In-memory store fakes. They keep the same contracts as the mongo
// implementations: owner-scoped lookups return ErrNotFound, malformed ids
// return ErrInvalidID, and reads hand back copies so callers can't mutate
// stored documents.

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.users {
		if ex.Email == u.Email || ex.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	s.users[u.ID.Hex()] = &cp
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) SetStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = status
	return nil
}

func (s *fakeUserStore) SetPassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, id string, upd repository.ProfileUpdate) (*models.User, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	if upd.Theme != nil {
		u.Theme = *upd.Theme
	}
	if upd.NotificationsEnabled != nil {
		u.NotificationsEnabled = *upd.NotificationsEnabled
	}
	if upd.SoundEnabled != nil {
		u.SoundEnabled = *upd.SoundEnabled
	}
	if upd.OnboardingCompleted != nil {
		u.OnboardingCompleted = *upd.OnboardingCompleted
	}
	cp := *u
	return &cp, nil
}

type fakeRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*models.Room
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{rooms: make(map[string]*models.Room)}
}

func (s *fakeRoomStore) Create(_ context.Context, r *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = primitive.NewObjectID()
	cp := *r
	cp.Participants = append([]models.Participant(nil), r.Participants...)
	s.rooms[r.ID.Hex()] = &cp
	return nil
}

func (s *fakeRoomStore) GetByID(_ context.Context, id string) (*models.Room, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	cp.Participants = append([]models.Participant(nil), r.Participants...)
	return &cp, nil
}

func (s *fakeRoomStore) ListForUser(_ context.Context, userID, search string) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Room
	for _, r := range s.rooms {
		if !r.HasParticipant(userID) {
			continue
		}
		if search != "" && !roomMatches(r, search) {
			continue
		}
		cp := *r
		cp.Participants = append([]models.Participant(nil), r.Participants...)
		out = append(out, cp)
	}
	// newest last-message first; rooms without one sort last
	sort.Slice(out, func(i, j int) bool {
		var ti, tj time.Time
		if out[i].LastMessage != nil {
			ti = out[i].LastMessage.Timestamp
		}
		if out[j].LastMessage != nil {
			tj = out[j].LastMessage.Timestamp
		}
		return tj.Before(ti)
	})
	return out, nil
}

func roomMatches(r *models.Room, search string) bool {
	q := strings.ToLower(search)
	if strings.Contains(strings.ToLower(r.Name), q) {
		return true
	}
	for _, p := range r.Participants {
		if strings.Contains(strings.ToLower(p.FirstName), q) ||
			strings.Contains(strings.ToLower(p.LastName), q) ||
			strings.Contains(strings.ToLower(p.Username), q) {
			return true
		}
	}
	return false
}

func (s *fakeRoomStore) SetLastMessage(_ context.Context, roomID string, lm models.LastMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrNotFound
	}
	r.LastMessage = &lm
	r.UpdatedAt = lm.Timestamp
	return nil
}

func (s *fakeRoomStore) ResetUnread(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrNotFound
	}
	r.UnreadCount = 0
	return nil
}

func (s *fakeRoomStore) RemoveParticipant(_ context.Context, roomID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := r.Participants[:0]
	for _, p := range r.Participants {
		if p.ID != userID {
			kept = append(kept, p)
		}
	}
	r.Participants = kept
	return nil
}

type fakeMessageStore struct {
	mu       sync.Mutex
	messages []models.Message
}

func newFakeMessageStore() *fakeMessageStore { return &fakeMessageStore{} }

func (s *fakeMessageStore) Insert(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = primitive.NewObjectID()
	s.messages = append(s.messages, *m)
	return nil
}

func (s *fakeMessageStore) ListByRoom(_ context.Context, roomID, cursor string, limit int64) ([]models.Message, error) {
	var before primitive.ObjectID
	hasCursor := cursor != ""
	if hasCursor {
		var err error
		before, err = primitive.ObjectIDFromHex(cursor)
		if err != nil {
			return nil, repository.ErrInvalidID
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.RoomID != roomID {
			continue
		}
		if hasCursor && bytes.Compare(m.ID[:], before[:]) >= 0 {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeMessageStore) MarkRead(_ context.Context, roomID, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.RoomID == roomID && m.SenderID != userID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (s *fakeMessageStore) byRoom(roomID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	return out
}

type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func newFakeNotificationStore() *fakeNotificationStore { return &fakeNotificationStore{} }

func (s *fakeNotificationStore) Insert(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = primitive.NewObjectID()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *fakeNotificationStore) ListForUser(_ context.Context, userID string, limit, skip int64) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	if skip >= int64(len(out)) {
		return nil, nil
	}
	out = out[skip:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeNotificationStore) CountUnread(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, x := range s.notifications {
		if x.UserID == userID && !x.Read {
			n++
		}
	}
	return n, nil
}

func (s *fakeNotificationStore) MarkRead(_ context.Context, id, userID string) (*models.Notification, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		n := &s.notifications[i]
		if n.ID.Hex() == id && n.UserID == userID {
			n.Read = true
			cp := *n
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeNotificationStore) MarkAllRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].UserID == userID {
			s.notifications[i].Read = true
		}
	}
	return nil
}

func (s *fakeNotificationStore) Delete(_ context.Context, id, userID string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return repository.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID.Hex() == id && n.UserID == userID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeNotificationStore) DeleteAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
	return nil
}

// recordingBroadcaster captures every emit so tests can assert on fan-out.

type emit struct {
	Scope  string // "user" or "room"
	Target string
	Event  string
	Data   any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []emit
}

func (b *recordingBroadcaster) EmitToUser(userID, event string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emit{Scope: "user", Target: userID, Event: event, Data: data})
}

func (b *recordingBroadcaster) EmitToRoom(roomID, event string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, emit{Scope: "room", Target: roomID, Event: event, Data: data})
}

func (b *recordingBroadcaster) byEvent(event string) []emit {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []emit
	for _, e := range b.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
