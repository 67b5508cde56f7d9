package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/terramar-app/terramar-backend/config"
	"github.com/terramar-app/terramar-backend/internal/api"
	"github.com/terramar-app/terramar-backend/internal/types"
)

type HandlerImpl struct {
	service  Service
	cfg      config.JWTConfig
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAuthHandlerImpl(service Service, cfg config.JWTConfig, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service:  service,
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(),
	}
}

func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Register", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/auth/register"),
	))
	defer span.End()

	var req types.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := h.service.Register(ctx, req)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, map[string]string{"id": userID.String()})
}

func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/auth/login"),
	))
	defer span.End()

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.service.Login(ctx, req, r.UserAgent())
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}

	// Web clients get the access token as a session cookie as well, so the
	// auth boundary can resolve identity without an Authorization header.
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.cfg.AccessTokenTTL.Seconds()),
	})

	api.WriteJSONResponse(w, r, http.StatusOK, tokens)
}

func (h *HandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Refresh")
	defer span.End()

	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, tokens)
}

func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Logout")
	defer span.End()

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.RefreshToken != "" {
		if err := h.service.Logout(ctx, req.RefreshToken); err != nil {
			span.RecordError(err)
			api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
			return
		}
	}

	// Clear the session cookie regardless.
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": "Logged out"})
}

// LogoutAll revokes every refresh token the authenticated user holds, across
// all devices.
func (h *HandlerImpl) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "LogoutAll")
	defer span.End()

	userID, err := UserUUIDFromContext(ctx)
	if err != nil {
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}

	if err := h.service.LogoutAll(ctx, userID); err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": "Logged out everywhere"})
}
