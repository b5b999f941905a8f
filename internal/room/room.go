package room

import (
	"math/rand"
	"sync"
)

// The default room every connection lands in before an explicit join
const DefaultRoom = "default"

// A participant in a room, keyed by connection identity
type User struct {
	ID     string `json:"id"`
	Color  string `json:"color"`
	RoomID string `json:"roomId"`
}

// A collaborative drawing session
type Room struct {
	ID    string
	users map[string]*User
}

// The process-wide room table tracking which connection belongs to which room
type Registry struct {
	rooms map[string]*Room
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	r := &Registry{
		rooms: make(map[string]*Room),
	}
	// The default room always pre-exists
	r.EnsureRoom(DefaultRoom)
	return r
}

const hexLetters = "0123456789ABCDEF"

// Picks a random display color. Collisions are allowed; the color is
// cosmetic only and re-rolled on every join.
func randomColor() string {
	color := make([]byte, 7)
	color[0] = '#'
	for i := 1; i < 7; i++ {
		color[i] = hexLetters[rand.Intn(len(hexLetters))]
	}
	return string(color)
}

// Creates the room if absent. Idempotent.
func (r *Registry) EnsureRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureRoomLocked(roomID)
}

func (r *Registry) ensureRoomLocked(roomID string) *Room {
	rm, ok := r.rooms[roomID]
	if !ok {
		rm = &Room{
			ID:    roomID,
			users: make(map[string]*User),
		}
		r.rooms[roomID] = rm
	}
	return rm
}

// Records the connection as a member of the room, creating the room if
// needed, and assigns a fresh presence color.
func (r *Registry) AddUser(connID, roomID string) *User {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.ensureRoomLocked(roomID)
	user := &User{
		ID:     connID,
		Color:  randomColor(),
		RoomID: roomID,
	}
	rm.users[connID] = user
	return user
}

// Removes the connection from the room. No-op if either is absent.
func (r *Registry) RemoveUser(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rm, ok := r.rooms[roomID]; ok {
		delete(rm.users, connID)
	}
}

// Returns the room's current members for presence broadcast
func (r *Registry) RoomUsers(roomID string) []User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	users := make([]User, 0, len(rm.users))
	for _, u := range rm.users {
		users = append(users, *u)
	}
	return users
}

// Looks up a single member
func (r *Registry) GetUser(connID, roomID string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return User{}, false
	}
	u, ok := rm.users[connID]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Returns the IDs of all known rooms
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Returns the number of members in the room
func (r *Registry) RoomSize(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	return len(rm.users)
}

// Drops an empty, non-default room from the table. Returns true if removed.
func (r *Registry) RemoveRoomIfEmpty(roomID string) bool {
	if roomID == DefaultRoom {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok || len(rm.users) > 0 {
		return false
	}
	delete(r.rooms, roomID)
	return true
}
