package handlers

import (
	"net/http"

	"redeploy/internal/apperr"
	"redeploy/internal/httpjson"
	"redeploy/internal/matching"
)

type suggestRequest struct {
	PositionID string `json:"positionId"`
}

// SuggestMatchesHandler: POST /api/matching {positionId}.
// Сбой оракула даёт 200 с пустым списком и degraded=true, UI переходит к ручному выбору.
func (h *Handler) SuggestMatchesHandler(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.Matching.Suggest(r.Context(), req.PositionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, result)
}

// ManualCandidatesHandler: GET /api/matching/candidates?q=
func (h *Handler) ManualCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Matching.ManualCandidates(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, agents)
}

type confirmRequest struct {
	AgentID    string          `json:"agentId"`
	PositionID string          `json:"positionId"`
	Score      *int            `json:"score"`
	Reasoning  string          `json:"reasoning"`
	Source     matching.Source `json:"source"`
}

// GetMatchesHandler: GET /api/matches
func (h *Handler) GetMatchesHandler(w http.ResponseWriter, r *http.Request) {
	params, err := parsePaginationParams(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	matches, err := h.Store.ListMatches(r.Context(), params.Limit, params.Offset)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, matches)
}

// CreateMatchHandler: POST /api/matches. Без score назначение считается ручным (балл 100);
// source=oracle без score отклоняется.
func (h *Handler) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	switch req.Source {
	case "", matching.SourceOracle, matching.SourceManual:
	default:
		h.respondError(w, r, apperr.Validation("source", "source must be oracle or manual"))
		return
	}

	match, err := h.Matching.Confirm(r.Context(), matching.ConfirmInput{
		AgentID:    req.AgentID,
		PositionID: req.PositionID,
		Score:      req.Score,
		Reasoning:  req.Reasoning,
		Source:     req.Source,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, match)
}

// DeleteMatchHandler отменяет назначение: DELETE /api/matches/{id}
func (h *Handler) DeleteMatchHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intURLParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	match, err := h.Matching.Revert(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, match)
}

func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.DashboardStats(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, stats)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler: POST /api/auth/login
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}
