// Package presence flips users online/offline as their sockets come and go.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khalteck/Rooms/internal/models"
	"github.com/khalteck/Rooms/internal/repository"
)

// connTTL bounds how long a connection entry can outlive a crashed instance.
const connTTL = 24 * time.Hour

// Tracker persists presence in two places: the user document's status field
// (what the REST/profile surface reads) and a redis connection set per user
// (what survives across instances). Every update is fire-and-forget: failures
// are logged and never block connect/disconnect handling.
type Tracker struct {
	users  repository.UserStore
	rdb    *redis.Client
	prefix string
	log    *zap.SugaredLogger
}

func NewTracker(users repository.UserStore, rdb *redis.Client, prefix string, log *zap.SugaredLogger) *Tracker {
	return &Tracker{users: users, rdb: rdb, prefix: prefix, log: log}
}

func (t *Tracker) connKey(userID string) string {
	return fmt.Sprintf("%s:conn:%s", t.prefix, userID)
}

func (t *Tracker) presenceKey(userID string) string {
	return fmt.Sprintf("%s:presence:%s", t.prefix, userID)
}

// Connect marks the user online and records the connection id.
func (t *Tracker) Connect(ctx context.Context, userID, connID string) {
	if err := t.users.SetStatus(ctx, userID, models.StatusOnline); err != nil {
		t.log.Warnw("presence: set online failed", "user", userID, "err", err)
	}
	if t.rdb == nil {
		return
	}
	if err := t.rdb.SAdd(ctx, t.connKey(userID), connID).Err(); err != nil {
		t.log.Warnw("presence: redis conn add failed", "user", userID, "err", err)
		return
	}
	_ = t.rdb.Expire(ctx, t.connKey(userID), connTTL).Err()
	t.setPresence(ctx, userID, models.StatusOnline)
}

// Disconnect drops the connection id. The user only goes offline when no
// connections remain; remaining is supplied by the hub so a second device
// keeps the user online.
func (t *Tracker) Disconnect(ctx context.Context, userID, connID string, remaining int) {
	if t.rdb != nil {
		if err := t.rdb.SRem(ctx, t.connKey(userID), connID).Err(); err != nil {
			t.log.Warnw("presence: redis conn remove failed", "user", userID, "err", err)
		}
	}
	if remaining > 0 {
		return
	}
	if err := t.users.SetStatus(ctx, userID, models.StatusOffline); err != nil {
		t.log.Warnw("presence: set offline failed", "user", userID, "err", err)
	}
	if t.rdb != nil {
		t.setPresence(ctx, userID, models.StatusOffline)
	}
}

func (t *Tracker) setPresence(ctx context.Context, userID, status string) {
	b, _ := json.Marshal(map[string]any{
		"status":    status,
		"last_seen": time.Now().Unix(),
	})
	if err := t.rdb.Set(ctx, t.presenceKey(userID), b, connTTL).Err(); err != nil {
		t.log.Warnw("presence: redis presence set failed", "user", userID, "err", err)
	}
}
