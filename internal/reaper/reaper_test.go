package reaper

import (
	"testing"
	"time"

	"github.com/sketchsync/server/internal/engine"
	"github.com/sketchsync/server/internal/room"
)

type stubConn struct{ id string }

func (s *stubConn) ID() string { return s.id }

func (s *stubConn) Send(data []byte) error { return nil }

func TestSweepReclaimsIdleRooms(t *testing.T) {
	eng := engine.New(room.NewRegistry())
	svc := New(eng, Config{Interval: time.Hour, MaxIdle: 0})

	conn := &stubConn{id: "c1"}
	eng.Connect(conn)
	eng.HandleMessage(conn, []byte(`{"event":"join-room","data":{"roomId":"scratch"}}`))
	eng.HandleMessage(conn, []byte(`{"event":"join-room","data":{"roomId":"default"}}`))

	svc.SweepNow()

	if _, ok := eng.HistoryOf("scratch"); ok {
		t.Error("Idle room should have been reclaimed")
	}
	if _, ok := eng.HistoryOf(room.DefaultRoom); !ok {
		t.Error("Default room must survive the sweep")
	}
}

func TestStartStop(t *testing.T) {
	eng := engine.New(room.NewRegistry())
	svc := New(eng, Config{Interval: 10 * time.Millisecond, MaxIdle: 0})

	svc.Start()
	time.Sleep(30 * time.Millisecond)
	svc.Stop()
}
