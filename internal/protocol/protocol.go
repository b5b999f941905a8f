package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound event names
const (
	EventJoinRoom    = "join-room"
	EventStartStroke = "start-stroke"
	EventDrawPoint   = "draw-point"
	EventEndStroke   = "end-stroke"
	EventUndo        = "undo"
	EventRedo        = "redo"
	EventClear       = "clear"
	EventPing        = "ping"
)

// Outbound event names
const (
	EventRoomJoined  = "room-joined"
	EventHistory     = "history"
	EventUndoOp      = "undo-op"
	EventRedoOp      = "redo-op"
	EventUpdateUsers = "update-users"
	EventPong        = "pong"
)

// The wire framing for every event: a name plus a JSON payload
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Parses an inbound frame into its envelope
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("missing event name")
	}
	return env, nil
}

// Builds an outbound frame
func Encode(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// Required inbound fields are pointers so a missing field is
// distinguishable from a zero value and can be rejected at the boundary.
type StartStrokePayload struct {
	ID    string   `json:"id"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Color string   `json:"color"`
	Width *float64 `json:"width"`
}

type DrawPointPayload struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type PingPayload struct {
	Timestamp *float64 `json:"timestamp"`
}

// Outbound payloads carrying the sender's identity
type StartStrokeBroadcast struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	UserID string  `json:"userId"`
}

type DrawPointBroadcast struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	UserID string  `json:"userId"`
}

type EndStrokeBroadcast struct {
	UserID string `json:"userId"`
}

type UndoOpPayload struct {
	ID string `json:"id"`
}

type RoomJoinedPayload struct {
	RoomID string `json:"roomId"`
}

// One presence roster entry
type UserInfo struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

type PongPayload struct {
	Timestamp float64 `json:"timestamp"`
}

// An empty roomId falls back to the default room, so there is nothing to
// validate beyond well-formed JSON.
func DecodeJoinRoom(data json.RawMessage) (JoinRoomPayload, error) {
	var p JoinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return JoinRoomPayload{}, err
	}
	return p, nil
}

func DecodeStartStroke(data json.RawMessage) (StartStrokePayload, error) {
	var p StartStrokePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return StartStrokePayload{}, err
	}
	if p.ID == "" {
		return StartStrokePayload{}, fmt.Errorf("start-stroke: missing id")
	}
	if p.X == nil || p.Y == nil {
		return StartStrokePayload{}, fmt.Errorf("start-stroke: missing coordinates")
	}
	if p.Color == "" {
		return StartStrokePayload{}, fmt.Errorf("start-stroke: missing color")
	}
	if p.Width == nil || *p.Width <= 0 {
		return StartStrokePayload{}, fmt.Errorf("start-stroke: invalid width")
	}
	return p, nil
}

func DecodeDrawPoint(data json.RawMessage) (DrawPointPayload, error) {
	var p DrawPointPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return DrawPointPayload{}, err
	}
	if p.X == nil || p.Y == nil {
		return DrawPointPayload{}, fmt.Errorf("draw-point: missing coordinates")
	}
	return p, nil
}

func DecodePing(data json.RawMessage) (PingPayload, error) {
	var p PingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return PingPayload{}, err
	}
	if p.Timestamp == nil {
		return PingPayload{}, fmt.Errorf("ping: missing timestamp")
	}
	return p, nil
}
