package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Billy-Davies-2/teamforge/internal/clickhouse"
	"github.com/Billy-Davies-2/teamforge/internal/dal"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// healthChecker serves the keep-alive and probe endpoints
type healthChecker struct {
	store      dal.RosterDAL
	power      clickhouse.PowerSource
	production bool
}

func writeHealth(w http.ResponseWriter, code int, body map[string]interface{}) {
	body["timestamp"] = time.Now().Unix()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func check(err error) map[string]interface{} {
	if err != nil {
		return map[string]interface{}{"status": "unhealthy", "error": err.Error()}
	}
	return map[string]interface{}{"status": "healthy"}
}

// health reports every dependency
func (h *healthChecker) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	_, err := h.store.ListPlayers()
	checks["database"] = check(err)
	if err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	// only the ClickHouse client can be pinged; the mock has nothing to check
	if p, ok := h.power.(pinger); ok && h.production {
		err := p.Ping(ctx)
		checks["clickhouse"] = check(err)
		if err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	writeHealth(w, httpStatus, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// liveness returns 200 while the process is running (doesn't check dependencies)
func (h *healthChecker) liveness(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, map[string]interface{}{"status": "alive"})
}

// readiness returns 200 once the roster store answers
func (h *healthChecker) readiness(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.ListPlayers(); err != nil {
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"reason": "database_unavailable",
		})
		return
	}
	writeHealth(w, http.StatusOK, map[string]interface{}{"status": "ready"})
}
