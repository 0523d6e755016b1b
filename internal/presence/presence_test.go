package presence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/khalteck/Rooms/internal/models"
	"github.com/khalteck/Rooms/internal/repository"
)

// statusStore records status transitions and can be made to fail.
type statusStore struct {
	mu       sync.Mutex
	statuses map[string]string
	fail     error
}

func newStatusStore() *statusStore {
	return &statusStore{statuses: make(map[string]string)}
}

func (s *statusStore) SetStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.statuses[id] = status
	return nil
}

func (s *statusStore) status(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[id]
}

func (s *statusStore) Create(context.Context, *models.User) error { return nil }
func (s *statusStore) GetByID(context.Context, string) (*models.User, error) {
	return nil, repository.ErrNotFound
}
func (s *statusStore) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, repository.ErrNotFound
}
func (s *statusStore) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, repository.ErrNotFound
}
func (s *statusStore) SetPassword(context.Context, string, string) error { return nil }
func (s *statusStore) UpdateProfile(context.Context, string, repository.ProfileUpdate) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func newTestTracker(users repository.UserStore) *Tracker {
	// nil redis client: mongo status is the only persisted side
	return NewTracker(users, nil, "rooms", zap.NewNop().Sugar())
}

func TestConnectSetsOnline(t *testing.T) {
	store := newStatusStore()
	tr := newTestTracker(store)

	tr.Connect(context.Background(), "u1", "c1")

	assert.Equal(t, models.StatusOnline, store.status("u1"))
}

func TestDisconnectWaitsForLastConnection(t *testing.T) {
	store := newStatusStore()
	tr := newTestTracker(store)
	ctx := context.Background()

	tr.Connect(ctx, "u1", "c1")
	tr.Connect(ctx, "u1", "c2")

	// one device left: the user stays online
	tr.Disconnect(ctx, "u1", "c1", 1)
	assert.Equal(t, models.StatusOnline, store.status("u1"))

	// last device gone: offline
	tr.Disconnect(ctx, "u1", "c2", 0)
	assert.Equal(t, models.StatusOffline, store.status("u1"))
}

func TestTrackerSwallowsStoreErrors(t *testing.T) {
	store := newStatusStore()
	store.fail = errors.New("db down")
	tr := newTestTracker(store)
	ctx := context.Background()

	// connection setup and teardown must never be blocked by presence
	// bookkeeping failures
	tr.Connect(ctx, "u1", "c1")
	tr.Disconnect(ctx, "u1", "c1", 0)

	assert.Empty(t, store.status("u1"))
}
