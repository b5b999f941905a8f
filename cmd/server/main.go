package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sketchsync/server/internal/api"
	"github.com/sketchsync/server/internal/discovery"
	"github.com/sketchsync/server/internal/engine"
	"github.com/sketchsync/server/internal/reaper"
	"github.com/sketchsync/server/internal/room"
	"github.com/sketchsync/server/internal/ws"
)

func main() {
	registry := room.NewRegistry()
	eng := engine.New(registry)

	reaperConfig := reaper.DefaultConfig()
	if v := os.Getenv("SKETCHSYNC_ROOM_MAX_IDLE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			reaperConfig.MaxIdle = d
		} else {
			log.Printf("Ignoring invalid SKETCHSYNC_ROOM_MAX_IDLE %q: %v", v, err)
		}
	}
	reaperSvc := reaper.New(eng, reaperConfig)
	reaperSvc.Start()

	apiHandler := api.New(eng, registry)

	// WebSocket endpoint
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(eng, w, r)
	})

	http.HandleFunc("/health", apiHandler.HealthHandler)
	http.HandleFunc("/api/stats", apiHandler.StatsHandler)
	http.HandleFunc("/api/rooms", apiHandler.RoomsRouter)
	http.HandleFunc("/api/rooms/", apiHandler.RoomsRouter)

	// Apply CORS middleware
	handler := corsMiddleware(http.DefaultServeMux)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if os.Getenv("SKETCHSYNC_MDNS") == "1" {
		portNum, err := strconv.Atoi(port)
		if err != nil {
			log.Fatalf("Invalid port %q: %v", port, err)
		}
		mdnsServer, err := discovery.Advertise(portNum)
		if err != nil {
			log.Printf("⚠️ mDNS advertisement disabled: %v", err)
		} else {
			defer mdnsServer.Shutdown()
			log.Println("📡 Advertising on the local network via mDNS")
		}
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		reaperSvc.Stop()
		os.Exit(0)
	}()

	log.Printf("✏️ SketchSync server starting on :%s", port)
	log.Println("Endpoints:")
	log.Println("  - WebSocket: /ws")
	log.Println("  - Health:    GET /health")
	log.Println("  - Stats:     GET /api/stats")
	log.Println("  - Rooms:     GET /api/rooms")
	log.Println("  - Room:      GET /api/rooms/{id}")
	log.Println("  - Export:    GET /api/rooms/{id}/export.pdf")

	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
