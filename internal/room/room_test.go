package room

import (
	"strings"
	"sync"
	"testing"
)

func TestDefaultRoomPreExists(t *testing.T) {
	registry := NewRegistry()

	found := false
	for _, id := range registry.Rooms() {
		if id == DefaultRoom {
			found = true
		}
	}
	if !found {
		t.Error("Registry should pre-create the default room")
	}
}

func TestAddUser(t *testing.T) {
	registry := NewRegistry()

	user := registry.AddUser("c1", "room-a")

	if user.ID != "c1" || user.RoomID != "room-a" {
		t.Errorf("Unexpected user record: %+v", user)
	}
	if !strings.HasPrefix(user.Color, "#") || len(user.Color) != 7 {
		t.Errorf("Expected '#RRGGBB' color, got '%s'", user.Color)
	}

	got, ok := registry.GetUser("c1", "room-a")
	if !ok || got.ID != "c1" {
		t.Error("GetUser should find the added user")
	}
	if registry.RoomSize("room-a") != 1 {
		t.Errorf("Expected room size 1, got %d", registry.RoomSize("room-a"))
	}
}

func TestAddUserCreatesRoom(t *testing.T) {
	registry := NewRegistry()

	registry.AddUser("c1", "new-room")

	if registry.RoomSize("new-room") != 1 {
		t.Error("AddUser should create the room if absent")
	}
}

func TestRemoveUserIdempotent(t *testing.T) {
	registry := NewRegistry()

	registry.AddUser("c1", "room-a")
	registry.RemoveUser("c1", "room-a")
	registry.RemoveUser("c1", "room-a")
	registry.RemoveUser("c1", "never-existed")

	if _, ok := registry.GetUser("c1", "room-a"); ok {
		t.Error("User should be gone after removal")
	}
	if registry.RoomSize("room-a") != 0 {
		t.Error("Room should be empty after removal")
	}
}

func TestRoomUsers(t *testing.T) {
	registry := NewRegistry()

	registry.AddUser("c1", "room-a")
	registry.AddUser("c2", "room-a")
	registry.AddUser("c3", "room-b")

	users := registry.RoomUsers("room-a")
	if len(users) != 2 {
		t.Fatalf("Expected 2 users in room-a, got %d", len(users))
	}
	for _, u := range users {
		if u.RoomID != "room-a" {
			t.Errorf("User %s has wrong room: %s", u.ID, u.RoomID)
		}
	}

	if users := registry.RoomUsers("missing"); users != nil {
		t.Error("Unknown room should have no users")
	}
}

func TestColorReassignedOnRejoin(t *testing.T) {
	registry := NewRegistry()

	// Colors are random per join; over many joins at least two must differ
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		user := registry.AddUser("c1", "room-a")
		seen[user.Color] = true
	}
	if len(seen) < 2 {
		t.Error("Presence color should be re-rolled on every join")
	}
}

func TestRemoveRoomIfEmpty(t *testing.T) {
	registry := NewRegistry()

	registry.AddUser("c1", "room-a")
	if registry.RemoveRoomIfEmpty("room-a") {
		t.Error("Should not remove a room with members")
	}

	registry.RemoveUser("c1", "room-a")
	if !registry.RemoveRoomIfEmpty("room-a") {
		t.Error("Should remove an empty room")
	}

	if registry.RemoveRoomIfEmpty(DefaultRoom) {
		t.Error("The default room must never be reclaimed")
	}
}

func TestRegistryConcurrency(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := string(rune('a' + i%26))
			registry.AddUser(connID, "room-a")
			registry.RoomUsers("room-a")
			registry.RemoveUser(connID, "room-a")
		}(i)
	}
	wg.Wait()
}
