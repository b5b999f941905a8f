package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sketchsync/server/internal/engine"
	"github.com/sketchsync/server/internal/room"
)

type stubConn struct{ id string }

func (s *stubConn) ID() string { return s.id }

func (s *stubConn) Send(data []byte) error { return nil }

func setupTestAPI(t *testing.T) (*API, *engine.Engine) {
	t.Helper()

	registry := room.NewRegistry()
	eng := engine.New(registry)
	return New(eng, registry), eng
}

func drawStroke(eng *engine.Engine, conn engine.Conn, id string) {
	eng.HandleMessage(conn, []byte(fmt.Sprintf(
		`{"event":"start-stroke","data":{"id":%q,"x":0,"y":0,"color":"#336699","width":3}}`, id)))
	eng.HandleMessage(conn, []byte(`{"event":"draw-point","data":{"x":25,"y":40}}`))
	eng.HandleMessage(conn, []byte(`{"event":"end-stroke"}`))
}

func TestHealthHandler(t *testing.T) {
	api, _ := setupTestAPI(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	api.HealthHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", response["status"])
	}
}

func TestStatsHandler(t *testing.T) {
	api, eng := setupTestAPI(t)

	eng.Connect(&stubConn{id: "c1"})
	eng.Connect(&stubConn{id: "c2"})

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()

	api.StatsHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["active_clients"] != float64(2) {
		t.Errorf("Expected 2 active clients, got %v", response["active_clients"])
	}
	if response["active_rooms"] != float64(1) {
		t.Errorf("Expected 1 active room, got %v", response["active_rooms"])
	}
}

func TestListRooms(t *testing.T) {
	api, eng := setupTestAPI(t)

	c1 := &stubConn{id: "c1"}
	eng.Connect(c1)
	eng.HandleMessage(c1, []byte(`{"event":"join-room","data":{"roomId":"studio"}}`))
	drawStroke(eng, c1, "s1")

	req := httptest.NewRequest("GET", "/api/rooms", nil)
	w := httptest.NewRecorder()

	api.RoomsRouter(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Rooms []RoomResponse `json:"rooms"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(response.Rooms) != 2 {
		t.Fatalf("Expected 2 rooms (default + studio), got %d", len(response.Rooms))
	}
	// Sorted by ID: default, studio
	if response.Rooms[1].ID != "studio" || response.Rooms[1].ActiveUsers != 1 || response.Rooms[1].StrokeCount != 1 {
		t.Errorf("Unexpected studio entry: %+v", response.Rooms[1])
	}
}

func TestGetRoom(t *testing.T) {
	api, eng := setupTestAPI(t)

	c1 := &stubConn{id: "c1"}
	eng.Connect(c1)
	drawStroke(eng, c1, "s1")

	req := httptest.NewRequest("GET", "/api/rooms/default", nil)
	w := httptest.NewRecorder()

	api.RoomsRouter(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var detail RoomDetailResponse
	if err := json.NewDecoder(w.Body).Decode(&detail); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if detail.ID != "default" || detail.StrokeCount != 1 || detail.ActiveUsers != 1 {
		t.Errorf("Unexpected room detail: %+v", detail)
	}
	if len(detail.Users) != 1 || detail.Users[0].ID != "c1" {
		t.Errorf("Unexpected roster: %v", detail.Users)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	api, _ := setupTestAPI(t)

	req := httptest.NewRequest("GET", "/api/rooms/non-existent", nil)
	w := httptest.NewRecorder()

	api.RoomsRouter(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestExportPDF(t *testing.T) {
	api, eng := setupTestAPI(t)

	c1 := &stubConn{id: "c1"}
	eng.Connect(c1)
	drawStroke(eng, c1, "s1")

	req := httptest.NewRequest("GET", "/api/rooms/default/export.pdf", nil)
	w := httptest.NewRecorder()

	api.RoomsRouter(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Expected PDF content type, got '%s'", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("Response body should be a PDF document")
	}
}

func TestExportPDFRoomNotFound(t *testing.T) {
	api, _ := setupTestAPI(t)

	req := httptest.NewRequest("GET", "/api/rooms/ghost/export.pdf", nil)
	w := httptest.NewRecorder()

	api.RoomsRouter(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestRoomsRouterMethodNotAllowed(t *testing.T) {
	api, _ := setupTestAPI(t)

	req := httptest.NewRequest("POST", "/api/rooms", nil)
	w := httptest.NewRecorder()

	api.RoomsRouter(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b int
	}{
		{"#000000", 0, 0, 0},
		{"#FFFFFF", 255, 255, 255},
		{"#336699", 51, 102, 153},
		{"#f00", 255, 0, 0},
		{"#000", 0, 0, 0},
		{"red", 0, 0, 0},
		{"", 0, 0, 0},
		{"#GGGGGG", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, g, b := parseHexColor(tt.in)
			if r != tt.r || g != tt.g || b != tt.b {
				t.Errorf("parseHexColor(%q) = (%d,%d,%d), want (%d,%d,%d)",
					tt.in, r, g, b, tt.r, tt.g, tt.b)
			}
		})
	}
}
