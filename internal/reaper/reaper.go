package reaper

import (
	"log"
	"sync"
	"time"

	"github.com/sketchsync/server/internal/engine"
)

type Config struct {
	Interval time.Duration
	MaxIdle  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Minute,
		MaxIdle:  30 * time.Minute,
	}
}

// Periodically reclaims rooms that have sat empty past the idle cutoff.
// The default room is left alone.
type Service struct {
	eng    *engine.Engine
	config Config
	stop   chan struct{}
	wg     sync.WaitGroup
}

func New(eng *engine.Engine, config Config) *Service {
	return &Service{
		eng:    eng,
		config: config,
		stop:   make(chan struct{}),
	}
}

func (s *Service) Start() {
	s.wg.Add(1)
	go s.run()
	log.Printf("🧹 Room reaper started (interval: %v, max idle: %v)",
		s.config.Interval, s.config.MaxIdle)
}

func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
	log.Println("🧹 Room reaper stopped")
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Service) sweep() {
	if reaped := s.eng.ReapIdleRooms(s.config.MaxIdle); reaped > 0 {
		log.Printf("🧹 Reclaimed %d idle rooms", reaped)
	}
}

// Runs one sweep immediately, outside the timer
func (s *Service) SweepNow() {
	s.sweep()
}
