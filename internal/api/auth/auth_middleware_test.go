package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terramar-app/terramar-backend/config"
	"github.com/terramar-app/terramar-backend/internal/types"
)

const testSecret = "unit-test-secret"

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey:     testSecret,
		SessionCookie: "terramar_session",
	}
}

func signToken(t *testing.T, userID string, ttl time.Duration) string {
	claims := types.Claims{
		UserID: userID,
		Email:  "user@example.com",
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func identityEcho(t *testing.T, wantUserID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantUserID, userID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_BearerToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userID := uuid.New().String()
	mw := Authenticate(logger, testJWTConfig(), false)

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, time.Hour))
	rec := httptest.NewRecorder()

	mw(identityEcho(t, userID)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_SessionCookieFallback(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userID := uuid.New().String()
	mw := Authenticate(logger, testJWTConfig(), false)

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	req.AddCookie(&http.Cookie{Name: "terramar_session", Value: signToken(t, userID, time.Hour)})
	rec := httptest.NewRecorder()

	mw(identityEcho(t, userID)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_Rejections(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := Authenticate(logger, testJWTConfig(), false)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	tests := []struct {
		name    string
		prepare func(r *http.Request)
	}{
		{"no credentials", func(r *http.Request) {}},
		{"malformed header", func(r *http.Request) {
			r.Header.Set("Authorization", "Token abc")
		}},
		{"garbage token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not.a.jwt")
		}},
		{"expired token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New().String(), -time.Hour))
		}},
		{"wrong key", func(r *http.Request) {
			claims := types.Claims{UserID: uuid.New().String(), RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}}
			tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
			require.NoError(t, err)
			r.Header.Set("Authorization", "Bearer "+tok)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			mw(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

type stubAdminChecker struct {
	admins map[uuid.UUID]bool
}

func (s *stubAdminChecker) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.admins[userID], nil
}

func TestRequireAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	adminID := uuid.New()
	visitorID := uuid.New()
	checker := &stubAdminChecker{admins: map[uuid.UUID]bool{adminID: true}}
	mw := RequireAdmin(logger, checker)

	serve := func(ctx context.Context) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rec, req)
		return rec
	}

	t.Run("admin passes", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserIDKey, adminID.String())
		assert.Equal(t, http.StatusOK, serve(ctx).Code)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserIDKey, visitorID.String())
		assert.Equal(t, http.StatusForbidden, serve(ctx).Code)
	})

	t.Run("no identity unauthorized", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(context.Background()).Code)
	})
}

func TestUserUUIDFromContext(t *testing.T) {
	id := uuid.New()

	t.Run("valid", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserIDKey, id.String())
		got, err := UserUUIDFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("absent", func(t *testing.T) {
		_, err := UserUUIDFromContext(context.Background())
		assert.ErrorIs(t, err, types.ErrUnauthorized)
	})

	t.Run("malformed", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserIDKey, "not-a-uuid")
		_, err := UserUUIDFromContext(ctx)
		assert.ErrorIs(t, err, types.ErrUnauthorized)
	})
}
