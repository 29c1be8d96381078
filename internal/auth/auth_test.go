package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/flixcatalog/internal/db/dbtest"
	"github.com/JustinTDCT/flixcatalog/internal/users"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	d := dbtest.Open(t)
	return NewService(d.DB, users.NewRepository(d.DB), NewTokens("test-secret", time.Hour))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.ErrorIs(t, ValidatePassword("short"), ErrWeakPassword)
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	token, exp, err := tokens.Issue("user-1", time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	_, err = NewTokens("other-secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	old, _, err := tokens.Issue("user-1", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = tokens.Parse(old)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	u, token, err := svc.Register(ctx, "Ann@Example.COM", "Ann", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Ann@example.com", u.Email)
	assert.NotEmpty(t, token)

	_, _, err = svc.Register(ctx, "Ann@example.com", "Other", "password123")
	assert.ErrorIs(t, err, users.ErrEmailTaken)

	_, _, err = svc.Register(ctx, "  ", "Nobody", "password123")
	assert.ErrorIs(t, err, users.ErrEmailRequired)

	_, _, err = svc.Login(ctx, "Ann@example.com", "nope-nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, loginToken, err := svc.Login(ctx, "Ann@EXAMPLE.com", "password123")
	require.NoError(t, err)

	who, err := svc.Authenticate(ctx, loginToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, who.UserID)

	require.NoError(t, svc.Logout(ctx, loginToken))
	_, err = svc.Authenticate(ctx, loginToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Authenticate(ctx, token)
	assert.NoError(t, err, "other sessions survive a logout")
}

func TestAuthenticateRejectsInactiveUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	u, token, err := svc.Register(ctx, "bob@example.com", "Bob", "password123")
	require.NoError(t, err)

	_, err = svc.sessions.db.ExecContext(ctx, "UPDATE users SET is_active=$1 WHERE id=$2", false, u.ID)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPurgeExpiredSessions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, _, err := svc.Register(ctx, "carol@example.com", "Carol", "password123")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	n, err := svc.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRequireAuth(t *testing.T) {
	svc := newTestService(t)
	_, token, err := svc.Register(context.Background(), "dan@example.com", "Dan", "password123")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(NewMiddleware(svc).RequireAuth)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(UserID(r.Context())))
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"bearer", "Bearer " + token, http.StatusOK},
		{"token scheme", "Token " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(2)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"))

	unlimited := NewRateLimiter(0)
	for i := 0; i < 100; i++ {
		assert.True(t, unlimited.Allow("1.2.3.4"))
	}
}
