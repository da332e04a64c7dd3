package websocket

import (
	"log"
	"sync"
)

// Registry tracks room membership. Pure bookkeeping: rooms are created
// implicitly on first join and decay to empty as connections leave, and
// no business logic lives here. RWMutex favors the read-heavy lookup
// pattern of relay fan-out.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]map[string]*Connection // roomID -> connID -> Connection
	memberships map[string]map[string]bool        // connID -> set of roomIDs
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]map[string]*Connection),
		memberships: make(map[string]map[string]bool),
	}
}

// Join adds the connection to the room, creating the room if needed.
// Joining a room twice is a no-op.
func (r *Registry) Join(conn *Connection, room string) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]*Connection)
	}
	r.rooms[room][conn.ID()] = conn

	if r.memberships[conn.ID()] == nil {
		r.memberships[conn.ID()] = make(map[string]bool)
	}
	r.memberships[conn.ID()][room] = true
}

// Leave removes the connection from one room. Leaving a room the
// connection is not a member of is a no-op.
func (r *Registry) Leave(conn *Connection, room string) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeFromRoom(conn.ID(), room)
}

// RemoveConnection removes the connection from every room it joined and
// returns those room ids so the caller can announce the departure.
func (r *Registry) RemoveConnection(conn *Connection) []string {
	if conn == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var left []string
	for room := range r.memberships[conn.ID()] {
		r.removeFromRoom(conn.ID(), room)
		left = append(left, room)
	}
	delete(r.memberships, conn.ID())
	return left
}

// removeFromRoom must be called with the write lock held. Empty room maps
// are deleted to keep long-lived processes from leaking room keys.
func (r *Registry) removeFromRoom(connID, room string) {
	if members, exists := r.rooms[room]; exists {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, exists := r.memberships[connID]; exists {
		delete(rooms, room)
	}
}

// RoomMembers returns all current members of a room.
func (r *Registry) RoomMembers(room string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var connections []*Connection
	for _, conn := range r.rooms[room] {
		connections = append(connections, conn)
	}
	return connections
}

// RoomMembersExcept returns room members excluding one connection id.
// This is the relay's recipient set: everyone but the sender.
func (r *Registry) RoomMembersExcept(room, connID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var connections []*Connection
	for id, conn := range r.rooms[room] {
		if id == connID {
			continue
		}
		connections = append(connections, conn)
	}
	return connections
}

// IsMember reports whether the connection currently belongs to the room.
func (r *Registry) IsMember(room, connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.rooms[room][connID]
	return exists
}

// BroadcastToRoom sends a JSON message to every current member of the
// room and returns the delivery count. Per-recipient write failures are
// logged and skipped; a slow consumer never blocks the rest of the room.
func (r *Registry) BroadcastToRoom(room string, v interface{}) int {
	members := r.RoomMembers(room)

	delivered := 0
	for _, conn := range members {
		if err := conn.WriteJSON(v); err != nil {
			log.Printf("Failed to deliver broadcast: room=%s conn=%s err=%v", room, conn.ID(), err)
			continue
		}
		delivered++
	}
	return delivered
}

// GetStats returns registry statistics for monitoring.
func (r *Registry) GetStats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"total_connections": len(r.memberships),
		"active_rooms":      len(r.rooms),
	}
}
