package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"redeploy/internal/apperr"
	"redeploy/internal/auth"
	"redeploy/internal/httpjson"
	"redeploy/internal/matching"
	"redeploy/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type MatchingService interface {
	Suggest(ctx context.Context, positionID string) (*matching.Result, error)
	Confirm(ctx context.Context, in matching.ConfirmInput) (*models.Match, error)
	Revert(ctx context.Context, matchID int) (*models.Match, error)
	ManualCandidates(ctx context.Context, query string) ([]models.Agent, error)
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// Handler оборачивает хранилище и сценарии назначения
type Handler struct {
	Store    StorageInterface
	Matching MatchingService
	Auth     Authenticator
	Log      *zap.Logger
}

func NewHandler(store StorageInterface, matchingSvc MatchingService, authn Authenticator, log *zap.Logger) *Handler {
	return &Handler{Store: store, Matching: matchingSvc, Auth: authn, Log: log}
}

// PingHandler отвечает "ok", если база доступна
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Log.Error("ping failed", zap.Error(err))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// respondError пишет ошибку клиенту; внутренние ошибки дополнительно логируются
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		h.Log.Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	httpjson.Error(w, err)
}

type PaginationParams struct {
	Limit  int
	Offset int
}

const maxPageSize = 500

// parsePaginationParams парсит limit и offset из query. Limit 0 означает без ограничения.
func parsePaginationParams(r *http.Request) (PaginationParams, error) {
	var params PaginationParams
	if s := r.URL.Query().Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l <= 0 || l > maxPageSize {
			return params, apperr.Validation("limit", "limit must be between 1 and 500")
		}
		params.Limit = l
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		o, err := strconv.Atoi(s)
		if err != nil || o < 0 {
			return params, apperr.Validation("offset", "offset must be non-negative")
		}
		params.Offset = o
	}
	return params, nil
}

func intURLParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name, "invalid "+name)
	}
	return id, nil
}

func stringURLParam(r *http.Request, name string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, name))
	if id == "" {
		return "", apperr.Validation(name, "missing "+name)
	}
	return id, nil
}

// page применяет пагинацию к уже отфильтрованному списку
func page[T any](items []T, p PaginationParams) []T {
	if p.Offset >= len(items) {
		return items[:0]
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}
