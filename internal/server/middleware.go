package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sofianehd/linkup/internal/auth"
	"github.com/sofianehd/linkup/pkg/apperr"
)

type contextKey int

const claimsKey contextKey = iota

// claimsFrom returns the authenticated claims attached by requireAuth.
func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// requireAuth validates the bearer token and attaches its claims to the
// request context, rejecting with 401 otherwise.
func (a *App) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, apperr.Unauthorized("missing bearer token"))
			return
		}
		claims, err := auth.ParseToken(a.cfg.JWT, strings.TrimSpace(token))
		if err != nil {
			writeError(w, apperr.Unauthorized("invalid or expired token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

type statusRW struct {
	http.ResponseWriter
	status int
}

func (w *statusRW) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withAccessLog logs METHOD PATH -> STATUS (duration) for every request.
func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusRW{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, sw.status, time.Since(start).Truncate(time.Millisecond))
	})
}
