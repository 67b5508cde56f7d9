package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/terramar-app/terramar-backend/config"
	"github.com/terramar-app/terramar-backend/internal/api"
	"github.com/terramar-app/terramar-backend/internal/types"
)

type contextKey string

const UserIDKey contextKey = "userID"
const UserEmailKey contextKey = "userEmail"
const UserRoleKey contextKey = "userRole"

// Authenticate resolves the caller's identity. A bearer token in the
// Authorization header wins; otherwise the session cookie is checked.
// Header diagnostics are only logged at debug level when debugHeaders is on.
func Authenticate(logger *slog.Logger, jwtCfg config.JWTConfig, debugHeaders bool) func(next http.Handler) http.Handler {
	secretKey := []byte(jwtCfg.SecretKey)
	if len(secretKey) == 0 {
		logger.Error("FATAL: JWT Secret Key is not configured!")
		panic("JWT Secret Key cannot be empty")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			tokenString, source, err := extractToken(r, jwtCfg.SessionCookie)
			if err != nil {
				l.WarnContext(ctx, "No credentials on request", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}

			if debugHeaders {
				l.DebugContext(ctx, "Resolved credential source",
					slog.String("source", source),
					slog.Bool("token_present", tokenString != ""),
				)
			}

			claims := &types.Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secretKey, nil
			})
			if err != nil {
				l.WarnContext(ctx, "Token parsing/validation failed", slog.Any("error", err))
				errMsg := "Invalid or expired token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					errMsg = "Token has expired"
				}
				api.ErrorResponse(w, r, http.StatusUnauthorized, errMsg)
				return
			}
			if !token.Valid {
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken prefers the Authorization header, falling back to the session
// cookie.
func extractToken(r *http.Request, cookieName string) (token, source string, err error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
			return "", "", fmt.Errorf("authorization header format must be Bearer {token}")
		}
		return headerParts[1], "bearer", nil
	}

	cookie, cerr := r.Cookie(cookieName)
	if cerr != nil || cookie.Value == "" {
		return "", "", fmt.Errorf("no bearer token and no session cookie")
	}
	return cookie.Value, "cookie", nil
}

// RequireAdmin gates dashboard routes: the resolved user must carry the
// admin flag on their profile.
func RequireAdmin(logger *slog.Logger, profiles AdminChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID, ok := GetUserIDFromContext(ctx)
			if !ok {
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}
			uid, err := uuid.Parse(userID)
			if err != nil {
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid user identity")
				return
			}
			isAdmin, err := profiles.IsAdmin(ctx, uid)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to check admin flag", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			if !isAdmin {
				api.ErrorResponse(w, r, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminChecker is satisfied by the profiles repository.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// UserUUIDFromContext parses the context identity into a uuid, returning
// ErrUnauthorized when absent or malformed.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, error) {
	userIDStr, ok := GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		return uuid.Nil, fmt.Errorf("%w: no identity on request", types.ErrUnauthorized)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed user id", types.ErrUnauthorized)
	}
	return userID, nil
}
