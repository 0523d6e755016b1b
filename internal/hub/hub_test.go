package hub

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	Event string
	Data  any
}

type recordSender struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (s *recordSender) Send(event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{Event: event, Data: data})
}

func (s *recordSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestEmitToUserReachesEveryDevice(t *testing.T) {
	h := New()
	phone, laptop, other := &recordSender{}, &recordSender{}, &recordSender{}

	h.Register("conn-phone", "alice", phone)
	h.Register("conn-laptop", "alice", laptop)
	h.Register("conn-other", "bob", other)

	h.EmitToUser("alice", "newNotification", "n1")

	assert.Equal(t, 1, phone.count())
	assert.Equal(t, 1, laptop.count())
	assert.Equal(t, 0, other.count())
}

func TestEmitToUnknownUserIsNoop(t *testing.T) {
	h := New()
	s := &recordSender{}
	h.Register("c1", "alice", s)

	h.EmitToUser("nobody", "event", nil)
	h.EmitToRoom("no-room", "event", nil)

	assert.Equal(t, 0, s.count())
}

func TestRoomGroupIsolation(t *testing.T) {
	h := New()
	a, b, c := &recordSender{}, &recordSender{}, &recordSender{}

	h.Register("ca", "alice", a)
	h.Register("cb", "bob", b)
	h.Register("cc", "cara", c)

	h.JoinRoom("ca", "room-1")
	h.JoinRoom("cb", "room-1")
	h.JoinRoom("cc", "room-2")

	h.EmitToRoom("room-1", "newMessage", "m1")

	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 0, c.count())
}

func TestEmitToRoomExceptSkipsOneConnection(t *testing.T) {
	h := New()
	typist, listener := &recordSender{}, &recordSender{}

	h.Register("ct", "alice", typist)
	h.Register("cl", "bob", listener)
	h.JoinRoom("ct", "room-1")
	h.JoinRoom("cl", "room-1")

	h.EmitToRoomExcept("room-1", "ct", "userTyping", nil)

	assert.Equal(t, 0, typist.count())
	assert.Equal(t, 1, listener.count())
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	h := New()
	s := &recordSender{}
	h.Register("c1", "alice", s)
	h.JoinRoom("c1", "room-1")

	h.LeaveRoom("c1", "room-1")
	h.EmitToRoom("room-1", "newMessage", nil)

	assert.Equal(t, 0, s.count())
	// personal group membership is untouched by a room leave
	h.EmitToUser("alice", "roomUpdated", nil)
	assert.Equal(t, 1, s.count())
}

func TestUnregisterRemovesAllGroups(t *testing.T) {
	h := New()
	s := &recordSender{}
	h.Register("c1", "alice", s)
	h.JoinRoom("c1", "room-1")
	require.Equal(t, 1, h.ConnectionCount("alice"))

	h.Unregister("c1")

	assert.Equal(t, 0, h.ConnectionCount("alice"))
	h.EmitToUser("alice", "e", nil)
	h.EmitToRoom("room-1", "e", nil)
	assert.Equal(t, 0, s.count())

	// unregistering twice is safe
	h.Unregister("c1")
}

func TestConnectionCountTracksDevices(t *testing.T) {
	h := New()
	h.Register("c1", "alice", &recordSender{})
	h.Register("c2", "alice", &recordSender{})
	assert.Equal(t, 2, h.ConnectionCount("alice"))

	h.Unregister("c1")
	assert.Equal(t, 1, h.ConnectionCount("alice"))
	h.Unregister("c2")
	assert.Equal(t, 0, h.ConnectionCount("alice"))
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("c%d", i)
			userID := fmt.Sprintf("u%d", i%5)
			h.Register(connID, userID, &recordSender{})
			h.JoinRoom(connID, "room-1")
			h.EmitToRoom("room-1", "e", nil)
			h.EmitToUser(userID, "e", nil)
			h.LeaveRoom(connID, "room-1")
			h.Unregister(connID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, h.ConnectionCount(fmt.Sprintf("u%d", i)))
	}
}
