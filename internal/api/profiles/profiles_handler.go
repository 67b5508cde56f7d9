package profiles

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"

	"github.com/terramar-app/terramar-backend/internal/api"
	"github.com/terramar-app/terramar-backend/internal/api/auth"
	"github.com/terramar-app/terramar-backend/internal/types"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger}
}

// GetMyProfile returns the authenticated user's profile.
func (h *HandlerImpl) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProfileHandler").Start(r.Context(), "GetMyProfile")
	defer span.End()

	userID, err := auth.UserUUIDFromContext(ctx)
	if err != nil {
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}

	profile, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	if profile == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "Profile not found")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// UpdateMyProfile patches display name, avatar or preferences.
func (h *HandlerImpl) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ProfileHandler").Start(r.Context(), "UpdateMyProfile")
	defer span.End()

	userID, err := auth.UserUUIDFromContext(ctx)
	if err != nil {
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}

	var params types.UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.service.UpdateProfile(ctx, userID, params)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}
