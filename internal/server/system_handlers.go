package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fxmartin/portfolio-management-sub002/internal/database"
)

// SystemHandlers serves process and database health endpoints.
type SystemHandlers struct {
	log zerolog.Logger
	dbs []*database.DB
}

// NewSystemHandlers creates system handlers over the given databases.
func NewSystemHandlers(log zerolog.Logger, dbs ...*database.DB) *SystemHandlers {
	return &SystemHandlers{
		log: log.With().Str("handler", "system").Logger(),
		dbs: dbs,
	}
}

// HandleSystemHealth reports process resource usage and per-database health.
// With ?deep=true each database also runs a SQLite integrity check.
// GET /api/system/health
func (h *SystemHandlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	cpuPct, ramPct := h.getSystemStats()
	deep, _ := strconv.ParseBool(r.URL.Query().Get("deep"))

	databases := make(map[string]string, len(h.dbs))
	healthy := true
	for _, db := range h.dbs {
		if db == nil {
			continue
		}
		check := db.QuickCheck
		if deep {
			check = db.HealthCheck
		}
		if err := check(r.Context()); err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Database health check failed")
			databases[db.Name()] = "unhealthy"
			healthy = false
			continue
		}
		databases[db.Name()] = "ok"
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, map[string]interface{}{
		"status":      status,
		"cpu_percent": cpuPct,
		"ram_percent": ramPct,
		"databases":   databases,
	})
}

// HandleDatabaseStats reports row counts and page usage per database.
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{}, len(h.dbs))
	for _, db := range h.dbs {
		if db == nil {
			continue
		}

		var pageCount, pageSize int64
		if err := db.Conn().QueryRowContext(r.Context(), "PRAGMA page_count").Scan(&pageCount); err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to read page count")
			continue
		}
		if err := db.Conn().QueryRowContext(r.Context(), "PRAGMA page_size").Scan(&pageSize); err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to read page size")
			continue
		}

		stats[db.Name()] = map[string]interface{}{
			"size_bytes": pageCount * pageSize,
			"pages":      pageCount,
		}
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a short interval so the endpoint stays responsive for pollers.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
