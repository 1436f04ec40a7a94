package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/mudly/realtime/internal/realtime"
)

// Pinger checks a backing dependency, usually the database.
type Pinger func(ctx context.Context) error

// NewHealthHandler reports store reachability and live room counts.
func NewHealthHandler(ping Pinger, registries map[string]*realtime.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := make(map[string]int, len(registries))
		for name, reg := range registries {
			rooms[name] = reg.RoomCount()
		}

		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "rooms": rooms})
	}
}
