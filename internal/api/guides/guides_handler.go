package guides

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/terramar-app/terramar-backend/internal/api"
	"github.com/terramar-app/terramar-backend/internal/types"
)

type HandlerImpl struct {
	service  Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, logger: logger, validate: validator.New()}
}

func (h *HandlerImpl) ListGuides(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GuideHandler").Start(r.Context(), "ListGuides", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/guides"),
	))
	defer span.End()

	q := r.URL.Query()
	filter := types.GuideFilter{
		Title:    q.Get("search"),
		Category: types.GuideCategory(q.Get("category")),
		Featured: q.Get("featured") == "true",
	}
	if tags := q.Get("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}
	filter.Limit = 50
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 200 {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		filter.Offset = v
	}

	guides, err := h.service.ListGuides(ctx, filter)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"guides": guides,
		"count":  len(guides),
	})
}

func (h *HandlerImpl) GetGuide(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GuideHandler").Start(r.Context(), "GetGuide")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "guideID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid guide id")
		return
	}

	guide, err := h.service.GetGuide(ctx, id)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	if guide == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "Guide not found")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, guide)
}

func (h *HandlerImpl) CreateGuide(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GuideHandler").Start(r.Context(), "CreateGuide")
	defer span.End()

	var params types.CreateGuideParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	guide, err := h.service.CreateGuide(ctx, params)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, guide)
}

func (h *HandlerImpl) UpdateGuide(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GuideHandler").Start(r.Context(), "UpdateGuide")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "guideID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid guide id")
		return
	}

	var params types.UpdateGuideParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	guide, err := h.service.UpdateGuide(ctx, id, params)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, guide)
}

func (h *HandlerImpl) DeleteGuide(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GuideHandler").Start(r.Context(), "DeleteGuide")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "guideID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid guide id")
		return
	}

	if err := h.service.DeleteGuide(ctx, id); err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	h.logger.InfoContext(ctx, "Guide deleted", slog.String("guide_id", id.String()))
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": "Guide deleted"})
}
