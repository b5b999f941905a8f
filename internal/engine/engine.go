package engine

import (
	"log"
	"sync"
	"time"

	"github.com/sketchsync/server/internal/canvas"
	"github.com/sketchsync/server/internal/protocol"
	"github.com/sketchsync/server/internal/room"
)

// A connected client as the engine sees it. The websocket layer implements
// this; tests use in-memory fakes.
type Conn interface {
	ID() string
	Send(data []byte) error
}

// One room's live session: its drawing state plus the connections currently
// in it. All mutation and fan-out for a room happens under its mutex, so
// every member observes the same event order.
type session struct {
	state      *canvas.DrawingState
	conns      map[string]Conn
	emptySince time.Time
	mu         sync.Mutex
}

// Dispatches inbound protocol events to room state and registry mutations
// and fans out the resulting broadcasts
type Engine struct {
	registry *room.Registry

	sessions map[string]*session
	roomOf   map[string]string
	mu       sync.RWMutex
}

func New(registry *room.Registry) *Engine {
	e := &Engine{
		registry: registry,
		sessions: make(map[string]*session),
		roomOf:   make(map[string]string),
	}
	e.session(room.DefaultRoom)
	return e
}

// Returns the room's session, creating it on first reference
func (e *Engine) session(roomID string) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionLocked(roomID)
}

// Caller holds e.mu
func (e *Engine) sessionLocked(roomID string) *session {
	sess, ok := e.sessions[roomID]
	if !ok {
		sess = &session{
			state:      canvas.NewDrawingState(),
			conns:      make(map[string]Conn),
			emptySince: time.Now(),
		}
		e.sessions[roomID] = sess
		e.registry.EnsureRoom(roomID)
	}
	return sess
}

// Registers a new connection and lands it in the default room
func (e *Engine) Connect(conn Conn) {
	log.Printf("Client connected: %s", conn.ID())
	e.joinRoom(conn, room.DefaultRoom)
}

// Processes one inbound frame from the connection. Called from the
// connection's reader goroutine, so events from one connection arrive here
// in order. Malformed frames are dropped at the boundary.
func (e *Engine) HandleMessage(conn Conn, data []byte) {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		log.Printf("⚠️ Dropping invalid frame from %s: %v", conn.ID(), err)
		return
	}

	switch env.Event {
	case protocol.EventJoinRoom:
		e.handleJoinRoom(conn, env.Data)
	case protocol.EventStartStroke:
		e.handleStartStroke(conn, env.Data)
	case protocol.EventDrawPoint:
		e.handleDrawPoint(conn, env.Data)
	case protocol.EventEndStroke:
		e.handleEndStroke(conn)
	case protocol.EventUndo:
		e.handleUndo(conn)
	case protocol.EventRedo:
		e.handleRedo(conn)
	case protocol.EventClear:
		e.handleClear(conn)
	case protocol.EventPing:
		e.handlePing(conn, env.Data)
	default:
		log.Printf("⚠️ Unknown event '%s' from %s", env.Event, conn.ID())
	}
}

// Tears down all per-connection state. Any in-progress stroke is discarded,
// never committed. Must run before the connection's goroutines exit.
func (e *Engine) Disconnect(conn Conn) {
	e.mu.Lock()
	roomID, ok := e.roomOf[conn.ID()]
	delete(e.roomOf, conn.ID())
	e.mu.Unlock()

	if !ok {
		return
	}

	log.Printf("Client disconnected: %s", conn.ID())
	e.leaveRoom(conn, roomID)
}

// Removes the connection from the room and tells the remaining members
func (e *Engine) leaveRoom(conn Conn, roomID string) {
	sess := e.session(roomID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	delete(sess.conns, conn.ID())
	if len(sess.conns) == 0 {
		sess.emptySince = time.Now()
	}
	sess.state.RemoveUser(conn.ID())
	e.registry.RemoveUser(conn.ID(), roomID)
	e.emitUsers(sess, roomID)
}

// Adds the connection to the room, replays the room's history to it, and
// announces the new roster
func (e *Engine) joinRoom(conn Conn, roomID string) {
	// Session lookup and room assignment are one critical section so the
	// reaper never reclaims a room a connection is joining
	e.mu.Lock()
	sess := e.sessionLocked(roomID)
	e.roomOf[conn.ID()] = roomID
	e.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.conns[conn.ID()] = conn
	e.registry.AddUser(conn.ID(), roomID)

	e.sendTo(conn, protocol.EventHistory, sess.state.History())
	e.emitUsers(sess, roomID)
}

func (e *Engine) handleJoinRoom(conn Conn, data []byte) {
	p, err := protocol.DecodeJoinRoom(data)
	if err != nil {
		log.Printf("⚠️ Invalid join-room from %s: %v", conn.ID(), err)
		return
	}

	newRoom := p.RoomID
	if newRoom == "" {
		newRoom = room.DefaultRoom
	}

	e.mu.RLock()
	oldRoom, ok := e.roomOf[conn.ID()]
	e.mu.RUnlock()

	// Leave and join are independent critical sections; no invariant ties
	// the two rooms together.
	if ok {
		e.leaveRoom(conn, oldRoom)
	}
	e.joinRoom(conn, newRoom)
	e.sendTo(conn, protocol.EventRoomJoined, protocol.RoomJoinedPayload{RoomID: newRoom})

	log.Printf("Client %s moved to room %s", conn.ID(), newRoom)
}

func (e *Engine) handleStartStroke(conn Conn, data []byte) {
	p, err := protocol.DecodeStartStroke(data)
	if err != nil {
		log.Printf("⚠️ Invalid start-stroke from %s: %v", conn.ID(), err)
		return
	}

	sess, ok := e.sessionOf(conn)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.state.StartStroke(conn.ID(), p.ID, *p.X, *p.Y, p.Color, *p.Width)
	e.emitOthers(sess, conn.ID(), protocol.EventStartStroke, protocol.StartStrokeBroadcast{
		ID:     p.ID,
		X:      *p.X,
		Y:      *p.Y,
		Color:  p.Color,
		Width:  *p.Width,
		UserID: conn.ID(),
	})
}

func (e *Engine) handleDrawPoint(conn Conn, data []byte) {
	p, err := protocol.DecodeDrawPoint(data)
	if err != nil {
		log.Printf("⚠️ Invalid draw-point from %s: %v", conn.ID(), err)
		return
	}

	sess, ok := e.sessionOf(conn)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// No active stroke means a dropped or out-of-order start; not an error
	if !sess.state.AddPoint(conn.ID(), *p.X, *p.Y) {
		return
	}
	e.emitOthers(sess, conn.ID(), protocol.EventDrawPoint, protocol.DrawPointBroadcast{
		X:      *p.X,
		Y:      *p.Y,
		UserID: conn.ID(),
	})
}

func (e *Engine) handleEndStroke(conn Conn) {
	sess, ok := e.sessionOf(conn)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, committed := sess.state.EndStroke(conn.ID()); !committed {
		return
	}
	e.emitOthers(sess, conn.ID(), protocol.EventEndStroke, protocol.EndStrokeBroadcast{
		UserID: conn.ID(),
	})
}

func (e *Engine) handleUndo(conn Conn) {
	sess, ok := e.sessionOf(conn)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	removed, ok := sess.state.Undo()
	if !ok {
		return
	}
	e.emitAll(sess, protocol.EventUndoOp, protocol.UndoOpPayload{ID: removed.ID})
}

func (e *Engine) handleRedo(conn Conn) {
	sess, ok := e.sessionOf(conn)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	restored, ok := sess.state.Redo()
	if !ok {
		return
	}
	e.emitAll(sess, protocol.EventRedoOp, restored)
}

func (e *Engine) handleClear(conn Conn) {
	sess, ok := e.sessionOf(conn)
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.state.Clear()
	e.emitAll(sess, protocol.EventClear, nil)
}

func (e *Engine) handlePing(conn Conn, data []byte) {
	p, err := protocol.DecodePing(data)
	if err != nil {
		log.Printf("⚠️ Invalid ping from %s: %v", conn.ID(), err)
		return
	}
	e.sendTo(conn, protocol.EventPong, protocol.PongPayload{Timestamp: *p.Timestamp})
}

// Resolves the connection's current room session
func (e *Engine) sessionOf(conn Conn) (*session, bool) {
	e.mu.RLock()
	roomID, ok := e.roomOf[conn.ID()]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.session(roomID), true
}

// Delivers an event to a single connection
func (e *Engine) sendTo(conn Conn, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		log.Printf("Encode error for %s: %v", event, err)
		return
	}
	if err := conn.Send(frame); err != nil {
		// The transport pump notices the dead connection and disconnects it
		log.Printf("Send to %s failed: %v", conn.ID(), err)
	}
}

// Delivers an event to every member of the session. Caller holds sess.mu.
func (e *Engine) emitAll(sess *session, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		log.Printf("Encode error for %s: %v", event, err)
		return
	}
	for _, conn := range sess.conns {
		if err := conn.Send(frame); err != nil {
			log.Printf("Send to %s failed: %v", conn.ID(), err)
		}
	}
}

// Delivers an event to every member except the sender, who already rendered
// its own input locally. Caller holds sess.mu.
func (e *Engine) emitOthers(sess *session, senderID, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		log.Printf("Encode error for %s: %v", event, err)
		return
	}
	for id, conn := range sess.conns {
		if id == senderID {
			continue
		}
		if err := conn.Send(frame); err != nil {
			log.Printf("Send to %s failed: %v", conn.ID(), err)
		}
	}
}

// Broadcasts the room's presence roster. Caller holds sess.mu.
func (e *Engine) emitUsers(sess *session, roomID string) {
	users := e.registry.RoomUsers(roomID)
	roster := make([]protocol.UserInfo, 0, len(users))
	for _, u := range users {
		roster = append(roster, protocol.UserInfo{ID: u.ID, Color: u.Color})
	}
	e.emitAll(sess, protocol.EventUpdateUsers, roster)
}

// Stats and introspection for the HTTP surface

// Returns the number of rooms with at least one live connection
func (e *Engine) RoomCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	count := 0
	for _, sess := range e.sessions {
		sess.mu.Lock()
		if len(sess.conns) > 0 {
			count++
		}
		sess.mu.Unlock()
	}
	return count
}

// Returns the total number of live connections
func (e *Engine) ClientCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.roomOf)
}

// Returns connection counts per room, including idle rooms
func (e *Engine) ActiveRooms() map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rooms := make(map[string]int, len(e.sessions))
	for id, sess := range e.sessions {
		sess.mu.Lock()
		rooms[id] = len(sess.conns)
		sess.mu.Unlock()
	}
	return rooms
}

// Returns a snapshot of the room's committed history, or false if the room
// has never been referenced
func (e *Engine) HistoryOf(roomID string) ([]canvas.Stroke, bool) {
	e.mu.RLock()
	sess, ok := e.sessions[roomID]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return sess.state.History(), true
}

// Reclaims rooms that have had no members for at least maxIdle. The default
// room is never reclaimed. Returns the number of rooms removed.
func (e *Engine) ReapIdleRooms(maxIdle time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	inUse := make(map[string]bool, len(e.roomOf))
	for _, roomID := range e.roomOf {
		inUse[roomID] = true
	}

	reaped := 0
	for id, sess := range e.sessions {
		if id == room.DefaultRoom || inUse[id] {
			continue
		}
		sess.mu.Lock()
		idle := len(sess.conns) == 0 && time.Since(sess.emptySince) >= maxIdle
		sess.mu.Unlock()

		if idle {
			delete(e.sessions, id)
			e.registry.RemoveRoomIfEmpty(id)
			reaped++
		}
	}
	return reaped
}
