// Package models holds the MongoDB document types.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User presence states.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAway    = "away"
)

// Message type discriminator.
const (
	MessageTypeUser   = "user"
	MessageTypeSystem = "system"
)

// Notification types.
const (
	NotificationTypeMessage    = "message"
	NotificationTypeRoomInvite = "room_invite"
	NotificationTypeSystem     = "system"
)

type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName            string             `bson:"first_name" json:"firstName"`
	LastName             string             `bson:"last_name" json:"lastName"`
	Username             string             `bson:"username" json:"username"`
	Email                string             `bson:"email" json:"email"`
	Password             string             `bson:"password" json:"-"`
	Avatar               string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Status               string             `bson:"status" json:"status"`
	NotificationsEnabled bool               `bson:"notifications_enabled" json:"notificationsEnabled"`
	SoundEnabled         bool               `bson:"sound_enabled" json:"soundEnabled"`
	Theme                string             `bson:"theme" json:"theme"`
	OnboardingCompleted  bool               `bson:"onboarding_completed" json:"onboardingCompleted"`
	CreatedAt            time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updatedAt"`
}

// DisplayName is the name shown in notification titles.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Participant is a denormalized snapshot of a user's display fields embedded
// in a room. It is a copy taken at room creation and goes stale if the user
// later edits their profile; there is no live sync.
type Participant struct {
	ID        string `bson:"_id" json:"id"`
	FirstName string `bson:"first_name" json:"firstName"`
	LastName  string `bson:"last_name" json:"lastName"`
	Username  string `bson:"username" json:"username"`
	Avatar    string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

func (p Participant) DisplayName() string {
	return p.FirstName + " " + p.LastName
}

// LastMessage is a summary copy of the newest message, owned by the room. It
// exists so room lists render and sort without joining the messages
// collection.
type LastMessage struct {
	ID        string    `bson:"id" json:"id"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

type Room struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	Participants []Participant      `bson:"participants" json:"participants"`
	LastMessage  *LastMessage       `bson:"last_message,omitempty" json:"lastMessage,omitempty"`
	UnreadCount  int                `bson:"unread_count" json:"unreadCount"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// HasParticipant reports whether the given user id appears in the room's
// participant snapshots.
func (r *Room) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// FindParticipant returns the snapshot for the given user id, if present.
func (r *Room) FindParticipant(userID string) (Participant, bool) {
	for _, p := range r.Participants {
		if p.ID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// Message documents are immutable after creation except for the read flag.
// The ObjectID doubles as the pagination cursor: ids are creation-ordered, so
// sorting by _id is sorting by send order.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID    string             `bson:"room_id" json:"roomId"`
	SenderID  string             `bson:"sender_id" json:"senderId"`
	Content   string             `bson:"content" json:"content"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Read      bool               `bson:"read" json:"read"`
	Type      string             `bson:"type" json:"type"`
}

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	RoomID    string             `bson:"room_id,omitempty" json:"roomId,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	Metadata  map[string]any     `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
