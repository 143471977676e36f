package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/negotiation"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/quarter"
)

type createGameRequest struct {
	Character character.Sheet `json:"character"`
}

// handleCreateGame opens a quarter for a rolled, verifiable sheet.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req createGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	summary, err := s.service.CreateGame(r.Context(), player.Name, req.Character)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	summary, err := s.service.Game(r.Context(), chi.URLParam(r, "gameID"), player.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	audit, err := s.service.Audit(r.Context(), chi.URLParam(r, "gameID"), player.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, audit)
}

type commitRequest struct {
	Height     uint64 `json:"height"`
	Commitment string `json:"commitment"`
}

// handleCommit publishes a seed commitment for the next entropy bundle.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req commitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	state, err := s.service.Commit(r.Context(), chi.URLParam(r, "gameID"), player.Name, req.Height, req.Commitment)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

type revealRequest struct {
	ClientSeed string `json:"client_seed"`
}

// handleReveal discloses the committed seed once the target block is
// mined, completing the bundle.
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req revealRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.service.Reveal(r.Context(), chi.URLParam(r, "gameID"), player.Name, req.ClientSeed)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAssignTerritory(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := s.service.AssignTerritory(r.Context(), chi.URLParam(r, "gameID"), player.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type choiceRequest struct {
	Choice string `json:"choice"`
}

func (s *Server) handleTrip(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req choiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	choice, err := quarter.ParseTravelChoice(req.Choice)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := s.service.ResolveTrip(r.Context(), chi.URLParam(r, "gameID"), player.Name, choice)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBeginEncounter(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	opened, err := s.service.BeginEncounter(r.Context(), chi.URLParam(r, "gameID"), player.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opened)
}

type actionRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleNegotiate(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	action, err := negotiation.ParseAction(req.Action)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := s.service.Negotiate(r.Context(), chi.URLParam(r, "gameID"), player.Name, action)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCrossroads(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req choiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	choice, err := quarter.ParseCrossroadsChoice(req.Choice)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := s.service.ResolveCrossroads(r.Context(), chi.URLParam(r, "gameID"), player.Name, choice)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := s.service.ResolveQuarterEvent(r.Context(), chi.URLParam(r, "gameID"), player.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req choiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	choice, err := quarter.ParseStrategy(req.Choice)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := s.service.ChooseStrategy(r.Context(), chi.URLParam(r, "gameID"), player.Name, choice)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePrep(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := s.service.ResolvePrep(r.Context(), chi.URLParam(r, "gameID"), player.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := s.service.AdvancePhase(r.Context(), chi.URLParam(r, "gameID"), player.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTier rates the finished quarter; eligible runs land on the
// achievement board as a side effect.
func (s *Server) handleTier(w http.ResponseWriter, r *http.Request) {
	player, err := playerFromContext(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := s.service.ComputeTier(r.Context(), chi.URLParam(r, "gameID"), player.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleChainHeight reports the entropy chain tip so clients can pick
// a commitment target past it.
func (s *Server) handleChainHeight(w http.ResponseWriter, r *http.Request) {
	height, err := s.service.ChainHeight(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"height": height})
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	pageSize := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "page_size must be a non-negative integer")
			return
		}
		pageSize = parsed
	}
	page, err := s.service.Achievements(r.Context(), pageSize, r.URL.Query().Get("page_token"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetAchievement(w http.ResponseWriter, r *http.Request) {
	achievement, err := s.service.Achievement(r.Context(), chi.URLParam(r, "achievementID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, achievement)
}

// handleStream upgrades to a websocket following one game's events.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.stream == nil {
		writeError(w, http.StatusNotFound, "event stream is not enabled")
		return
	}
	s.stream.ServeGame(chi.URLParam(r, "gameID"), w, r)
}
