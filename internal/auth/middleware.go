package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JustinTDCT/flixcatalog/internal/httputil"
	"github.com/JustinTDCT/flixcatalog/internal/logging"
)

type contextKey string

const (
	ContextUser contextKey = "user"
)

type ContextUserData struct {
	UserID  string
	IsStaff bool
}

type Middleware struct {
	svc *Service
}

func NewMiddleware(svc *Service) *Middleware {
	return &Middleware{svc: svc}
}

func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		user, err := m.svc.Authenticate(r.Context(), token)
		switch {
		case errors.Is(err, ErrTokenExpired):
			httputil.WriteError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired")
			return
		case errors.Is(err, ErrInvalidToken):
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session")
			return
		case err != nil:
			httputil.WriteInternal(w, r, err)
			return
		}

		logging.SetUserID(r.Context(), user.UserID)
		ctx := context.WithValue(r.Context(), ContextUser, *user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserFromContext(ctx context.Context) *ContextUserData {
	if v, ok := ctx.Value(ContextUser).(ContextUserData); ok {
		return &v
	}
	return nil
}

// UserID returns the authenticated user's id, or "" outside RequireAuth.
func UserID(ctx context.Context) string {
	if u := UserFromContext(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// extractToken accepts both "Bearer <t>" and "Token <t>" authorization
// schemes.
func extractToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	for _, scheme := range []string{"Bearer ", "Token "} {
		if len(h) > len(scheme) && strings.EqualFold(h[:len(scheme)], scheme) {
			return strings.TrimSpace(h[len(scheme):])
		}
	}
	return ""
}
