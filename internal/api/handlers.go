package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sketchsync/server/internal/engine"
	"github.com/sketchsync/server/internal/room"
)

// Read-only HTTP surface over the live engine state. Rooms are created by
// the drawing protocol, never by this API.
type API struct {
	eng      *engine.Engine
	registry *room.Registry
}

func New(eng *engine.Engine, registry *room.Registry) *API {
	return &API{
		eng:      eng,
		registry: registry,
	}
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"active_rooms":   a.eng.RoomCount(),
		"active_clients": a.eng.ClientCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

type RoomResponse struct {
	ID          string `json:"id"`
	ActiveUsers int    `json:"active_users"`
	StrokeCount int    `json:"stroke_count"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

type RoomDetailResponse struct {
	ID          string         `json:"id"`
	ActiveUsers int            `json:"active_users"`
	StrokeCount int            `json:"stroke_count"`
	Users       []UserResponse `json:"users"`
}

// Routes /api/rooms, /api/rooms/{id} and /api/rooms/{id}/export.pdf
func (a *API) RoomsRouter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/rooms")
	path = strings.Trim(path, "/")

	switch {
	case path == "":
		a.listRooms(w, r)
	case strings.HasSuffix(path, "/export.pdf"):
		a.exportRoom(w, r, strings.TrimSuffix(path, "/export.pdf"))
	default:
		a.getRoom(w, r, path)
	}
}

func (a *API) listRooms(w http.ResponseWriter, r *http.Request) {
	occupancy := a.eng.ActiveRooms()

	rooms := make([]RoomResponse, 0, len(occupancy))
	for id, users := range occupancy {
		strokes := 0
		if history, ok := a.eng.HistoryOf(id); ok {
			strokes = len(history)
		}
		rooms = append(rooms, RoomResponse{
			ID:          id,
			ActiveUsers: users,
			StrokeCount: strokes,
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"rooms": rooms,
	})
}

func (a *API) getRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	history, ok := a.eng.HistoryOf(roomID)
	if !ok {
		errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	members := a.registry.RoomUsers(roomID)
	users := make([]UserResponse, 0, len(members))
	for _, u := range members {
		users = append(users, UserResponse{ID: u.ID, Color: u.Color})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	jsonResponse(w, http.StatusOK, RoomDetailResponse{
		ID:          roomID,
		ActiveUsers: len(members),
		StrokeCount: len(history),
		Users:       users,
	})
}

func (a *API) exportRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	history, ok := a.eng.HistoryOf(roomID)
	if !ok {
		errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+roomID+`.pdf"`)

	if err := WritePDF(w, history); err != nil {
		log.Printf("PDF export failed for room %s: %v", roomID, err)
	}
}
