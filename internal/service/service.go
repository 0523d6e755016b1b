// Package service holds the business logic shared by the REST handlers and
// the socket event handlers. Both surfaces go through the same room, message
// and notification operations so their behaviour cannot drift apart.
package service

// Broadcaster delivers real-time events to broadcast groups. The hub
// implements it; tests substitute a recorder.
type Broadcaster interface {
	// EmitToUser pushes to every active connection of one user (the
	// personal group, i.e. all of that user's devices).
	EmitToUser(userID, event string, data any)
	// EmitToRoom pushes to every connection joined to the room group.
	EmitToRoom(roomID, event string, data any)
}

// Pagination describes one page of a backward message scan. NextCursor is the
// id of the oldest message in the page, or nil when the page was empty.
// HasMore is a heuristic: it compares the page size against the limit, so on
// an exact boundary it reports true once more than strictly necessary and the
// follow-up fetch comes back empty.
type Pagination struct {
	HasMore    bool    `json:"hasMore"`
	NextCursor *string `json:"nextCursor"`
}

// noopBroadcaster is used when a service is constructed without a live hub.
type noopBroadcaster struct{}

func (noopBroadcaster) EmitToUser(string, string, any) {}
func (noopBroadcaster) EmitToRoom(string, string, any) {}
