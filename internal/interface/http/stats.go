package http

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/afk-bro/discord-bot/internal/infrastructure/scheduler"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN STATS
// ══════════════════════════════════════════════════════════════════════════════

// StatsFunc reports one section of GET /api/stats.
type StatsFunc func(ctx context.Context) (interface{}, error)

// JobRunner runs a scheduled job out of band.
type JobRunner interface {
	RunNow(jobName string) (*scheduler.JobResult, error)
}

// handleStats handles GET /api/stats. A failing section reports its error
// and does not fail the response.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.deps.Stats))
	for name := range s.deps.Stats {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]interface{}, len(names)+1)
	out["uptime"] = s.Uptime().Round(time.Second).String()
	for _, name := range names {
		section, err := s.deps.Stats[name](r.Context())
		if err != nil {
			s.logger.Warn("stats section failed", "section", name, "error", err)
			out[name] = map[string]string{"error": err.Error()}
			continue
		}
		out[name] = section
	}
	writeJSON(w, r, http.StatusOK, out, nil)
}

// handleRunJob handles POST /api/jobs/{name}/run.
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Jobs == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Scheduler is disabled")
		return
	}
	name := chi.URLParam(r, "name")

	result, err := s.deps.Jobs.RunNow(name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown job "+name)
	case err != nil:
		s.logger.Error("manual job run failed", "job", name, "error", err)
		writeJSON(w, r, http.StatusInternalServerError, result, nil)
	default:
		s.logger.Info("manual job run", "job", name, "duration_ms", result.Duration.Milliseconds())
		writeJSON(w, r, http.StatusOK, result, nil)
	}
}
