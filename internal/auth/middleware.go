package auth

import (
	"net/http"
	"strings"

	"redeploy/internal/apperr"
	"redeploy/internal/httpjson"
)

// Middleware пропускает запрос дальше только с действующим bearer-токеном.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httpjson.Error(w, apperr.Auth("missing authorization header"))
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			httpjson.Error(w, apperr.Auth("invalid authorization header"))
			return
		}
		session, err := s.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			httpjson.Error(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}
