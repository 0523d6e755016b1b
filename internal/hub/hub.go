// Package hub tracks live socket connections and their broadcast groups.
package hub

import "sync"

// Sender is the minimal surface the hub needs from a connection: the ability
// to push one named event with a JSON-encodable payload. Sends are
// best-effort; a closed connection is a no-op, not an error.
type Sender interface {
	Send(event string, data any)
}

type client struct {
	userID string
	sender Sender
	rooms  map[string]struct{}
}

// Hub is the explicit connection registry: connection id -> {user, joined
// rooms}, with reverse indexes for the personal group (all of a user's
// connections) and each room group. All methods are safe for concurrent use.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*client
	users map[string]map[string]*client
	rooms map[string]map[string]*client
}

func New() *Hub {
	return &Hub{
		conns: make(map[string]*client),
		users: make(map[string]map[string]*client),
		rooms: make(map[string]map[string]*client),
	}
}

// Register adds an authenticated connection and places it in its user's
// personal group.
func (h *Hub) Register(connID, userID string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &client{userID: userID, sender: s, rooms: make(map[string]struct{})}
	h.conns[connID] = c
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[string]*client)
	}
	h.users[userID][connID] = c
}

// Unregister removes a connection from every group it belongs to.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)

	if conns, ok := h.users[c.userID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.users, c.userID)
		}
	}
	for roomID := range c.rooms {
		if members, ok := h.rooms[roomID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// JoinRoom adds the connection to a room's broadcast group. Authorization is
// the caller's responsibility; the hub only tracks membership.
func (h *Hub) JoinRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return
	}
	c.rooms[roomID] = struct{}{}
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*client)
	}
	h.rooms[roomID][connID] = c
}

// LeaveRoom removes the connection from a room's broadcast group. Leaving is
// always safe, so there is nothing to authorize.
func (h *Hub) LeaveRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(c.rooms, roomID)
	if members, ok := h.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// EmitToUser pushes an event to every active connection of one user.
func (h *Hub) EmitToUser(userID, event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.users[userID] {
		c.sender.Send(event, data)
	}
}

// EmitToRoom pushes an event to every connection currently joined to a room.
func (h *Hub) EmitToRoom(roomID, event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.rooms[roomID] {
		c.sender.Send(event, data)
	}
}

// EmitToRoomExcept pushes an event to a room group, skipping one connection.
// Used for typing relay so the typist doesn't hear their own indicator.
func (h *Hub) EmitToRoomExcept(roomID, exceptConnID, event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID, c := range h.rooms[roomID] {
		if connID == exceptConnID {
			continue
		}
		c.sender.Send(event, data)
	}
}

// ConnectionCount reports how many active connections a user has. The
// presence tracker uses it to flip a user offline only when the last of their
// devices disconnects.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
