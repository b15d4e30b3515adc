package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/afk-bro/discord-bot/internal/application/command"
	"github.com/afk-bro/discord-bot/internal/application/query"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth reports the process and its checks. Always 200 while the
// process serves requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().Round(time.Second).String(),
		"checks": status.Checks,
	}, nil)
}

// handleReady reports whether every backend is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	if !status.Ready {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"reason": status.Message,
			"checks": status.Checks,
		}, nil)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEVELING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleLeaderboard handles GET /api/guilds/{guildID}/leaderboard?limit=&weekly=
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.Leaderboard == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}
	limit, ok := getQueryParamInt(r, "limit", query.DefaultLeaderboardLimit)
	if !ok || limit < 1 || limit > query.MaxLeaderboardLimit {
		writeJSONError(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("limit must be between 1 and %d", query.MaxLeaderboardLimit))
		return
	}

	result, err := s.deps.Leaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		GuildID: chi.URLParam(r, "guildID"),
		Limit:   limit,
		Weekly:  getQueryParamBool(r, "weekly"),
	})
	if err != nil {
		s.writeDomainError(w, r, "leaderboard", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result, &ResponseMeta{TotalCount: result.TotalCount})
}

// handleProfile handles GET /api/guilds/{guildID}/users/{userID}
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if s.deps.Profile == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Profile handler not configured")
		return
	}
	profile, err := s.deps.Profile.Handle(r.Context(), query.GetProfileQuery{
		GuildID: chi.URLParam(r, "guildID"),
		UserID:  chi.URLParam(r, "userID"),
	})
	if err != nil {
		s.writeDomainError(w, r, "profile", err)
		return
	}
	if !profile.Found {
		writeJSONError(w, http.StatusNotFound, "not_found", "User has no XP on this server")
		return
	}
	writeJSON(w, r, http.StatusOK, profile, nil)
}

// handleUserRank handles GET /api/guilds/{guildID}/users/{userID}/rank?weekly=
func (s *Server) handleUserRank(w http.ResponseWriter, r *http.Request) {
	if s.deps.UserRank == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Rank handler not configured")
		return
	}
	rank, err := s.deps.UserRank.Handle(r.Context(), query.GetUserRankQuery{
		GuildID: chi.URLParam(r, "guildID"),
		UserID:  chi.URLParam(r, "userID"),
		Weekly:  getQueryParamBool(r, "weekly"),
	})
	if err != nil {
		s.writeDomainError(w, r, "rank", err)
		return
	}
	writeJSON(w, r, http.StatusOK, rank, nil)
}

// MaxBoosterMinutes caps the duration accepted by POST .../boosters.
const MaxBoosterMinutes = command.MaxBoosterMinutes

// AddBoosterRequest is the body of POST .../boosters.
type AddBoosterRequest struct {
	Multiplier float64 `json:"multiplier"`
	Minutes    int     `json:"minutes"`
}

// handleAddBooster handles POST /api/guilds/{guildID}/users/{userID}/boosters
func (s *Server) handleAddBooster(w http.ResponseWriter, r *http.Request) {
	if s.deps.AddBooster == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Booster handler not configured")
		return
	}

	var req AddBoosterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Body must be JSON with a multiplier")
		return
	}
	if req.Minutes < 0 || req.Minutes > MaxBoosterMinutes {
		writeJSONError(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("minutes must be between 0 and %d", MaxBoosterMinutes))
		return
	}

	booster, err := s.deps.AddBooster.Handle(r.Context(), command.AddBoosterCommand{
		GuildID:    chi.URLParam(r, "guildID"),
		UserID:     chi.URLParam(r, "userID"),
		Multiplier: req.Multiplier,
		Duration:   time.Duration(req.Minutes) * time.Minute,
		GrantedBy:  "api",
	})
	if err != nil {
		s.writeDomainError(w, r, "add booster", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, booster, nil)
}

// writeDomainError maps application errors to HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		s.logger.Error("request failed",
			"op", op,
			"path", r.URL.Path,
			"request_id", getRequestID(r.Context()),
			"error", err,
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to "+op)
	}
}
