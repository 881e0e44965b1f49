// Package api implements the planning canvas REST API using chi.
package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"planboard/internal/domain"
	"planboard/internal/labels"
	"planboard/internal/service"
)

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			given, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	HeaderUserID = "X-User-ID"
	HeaderTier   = "X-Access-Tier"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	labelerKey
)

// SessionMiddleware resolves the caller's identity from the identity
// headers, opens their session and picks a labeler from Accept-Language.
// A session whose stored layout failed to load is still served, empty, and
// refuses saves until a reload succeeds.
func SessionMiddleware(sessions *service.SessionManager, bundle *labels.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
			if userID == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody("missing "+HeaderUserID+" header"))
				return
			}
			id := domain.Identity{UserID: userID, Tier: domain.ParseTier(r.Header.Get(HeaderTier))}
			s, err := sessions.Open(r.Context(), id)
			if err != nil {
				slog.Warn("layout load failed, serving empty board",
					slog.String("user_id", userID), slog.String("error", err.Error()))
			}

			var labeler domain.Labeler = domain.FallbackLabeler{}
			if bundle != nil {
				labeler = bundle.For(labels.ParseAcceptLanguage(r.Header.Get("Accept-Language"))...)
			}

			ctx := context.WithValue(r.Context(), sessionKey, s)
			ctx = context.WithValue(ctx, labelerKey, labeler)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) *service.Session {
	s, _ := r.Context().Value(sessionKey).(*service.Session)
	return s
}

func labelerFrom(r *http.Request) domain.Labeler {
	if l, ok := r.Context().Value(labelerKey).(domain.Labeler); ok {
		return l
	}
	return domain.FallbackLabeler{}
}
