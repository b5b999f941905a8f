package canvas

import (
	"sync"
)

// A single sampled coordinate on the canvas
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// A pen stroke: an ordered run of points with a color and width
type Stroke struct {
	ID     string  `json:"id"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}

// Returns a deep copy so callers never share point slices
func (s *Stroke) clone() Stroke {
	points := make([]Point, len(s.Points))
	copy(points, s.Points)
	return Stroke{
		ID:     s.ID,
		Points: points,
		Color:  s.Color,
		Width:  s.Width,
	}
}

// The drawing state of one room: committed history, redo stack, and the
// in-progress stroke of each connection
type DrawingState struct {
	history       []Stroke
	redoStack     []Stroke
	activeStrokes map[string]*Stroke
	mu            sync.Mutex
}

func NewDrawingState() *DrawingState {
	return &DrawingState{
		history:       make([]Stroke, 0),
		redoStack:     make([]Stroke, 0),
		activeStrokes: make(map[string]*Stroke),
	}
}

// Begins a new active stroke for the connection. Always succeeds; any
// previous active stroke for the same connection is discarded. Starting a
// stroke invalidates forward history, so the redo stack is cleared.
func (d *DrawingState) StartStroke(connID, strokeID string, x, y float64, color string, width float64) Stroke {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.redoStack = d.redoStack[:0]

	stroke := &Stroke{
		ID:     strokeID,
		Points: []Point{{X: x, Y: y}},
		Color:  color,
		Width:  width,
	}
	d.activeStrokes[connID] = stroke
	return stroke.clone()
}

// Appends a point to the connection's active stroke. Returns false if the
// connection has no active stroke (dropped start, out-of-order point).
func (d *DrawingState) AddPoint(connID string, x, y float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	stroke, ok := d.activeStrokes[connID]
	if !ok {
		return false
	}
	stroke.Points = append(stroke.Points, Point{X: x, Y: y})
	return true
}

// Commits the connection's active stroke to the tail of history. Returns
// false if none is active.
func (d *DrawingState) EndStroke(connID string) (Stroke, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stroke, ok := d.activeStrokes[connID]
	if !ok {
		return Stroke{}, false
	}
	delete(d.activeStrokes, connID)
	d.history = append(d.history, *stroke)
	return stroke.clone(), true
}

// Moves the most recently committed stroke onto the redo stack. Returns
// false if history is empty.
func (d *DrawingState) Undo() (Stroke, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.history) == 0 {
		return Stroke{}, false
	}
	last := d.history[len(d.history)-1]
	d.history = d.history[:len(d.history)-1]
	d.redoStack = append(d.redoStack, last)
	return last.clone(), true
}

// Restores the most recently undone stroke to the tail of history. Returns
// false if the redo stack is empty.
func (d *DrawingState) Redo() (Stroke, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.redoStack) == 0 {
		return Stroke{}, false
	}
	last := d.redoStack[len(d.redoStack)-1]
	d.redoStack = d.redoStack[:len(d.redoStack)-1]
	d.history = append(d.history, last)
	return last.clone(), true
}

// Empties history and the redo stack. Active strokes are untouched.
func (d *DrawingState) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = d.history[:0]
	d.redoStack = d.redoStack[:0]
}

// Discards the connection's active stroke without committing it. An
// interrupted stroke is never rendered as final.
func (d *DrawingState) RemoveUser(connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.activeStrokes, connID)
}

// Returns a snapshot of the committed history for late-joiner replay
func (d *DrawingState) History() []Stroke {
	d.mu.Lock()
	defer d.mu.Unlock()

	history := make([]Stroke, len(d.history))
	for i := range d.history {
		history[i] = d.history[i].clone()
	}
	return history
}

// Returns the number of committed strokes
func (d *DrawingState) HistoryLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.history)
}

// Reports whether the connection has a stroke in progress
func (d *DrawingState) HasActiveStroke(connID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.activeStrokes[connID]
	return ok
}
