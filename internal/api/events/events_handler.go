package events

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

func (h *HandlerImpl) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EventHandler").Start(r.Context(), "ListEvents", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/events"),
	))
	defer span.End()

	q := r.URL.Query()
	filter := types.EventFilter{
		Category: types.EventCategory(q.Get("category")),
		Date:     q.Get("date"),
		Search:   q.Get("search"),
		Featured: q.Get("featured") == "true",
	}
	if tags := q.Get("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}
	filter.Limit, filter.Offset = paginationParams(q.Get("limit"), q.Get("offset"))

	events, err := h.service.ListEvents(ctx, filter)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

func (h *HandlerImpl) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EventHandler").Start(r.Context(), "GetEvent")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid event id")
		return
	}

	event, err := h.service.GetEvent(ctx, id)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	if event == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "Event not found")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, event)
}

func (h *HandlerImpl) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EventHandler").Start(r.Context(), "CreateEvent")
	defer span.End()

	var params types.CreateEventParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.service.CreateEvent(ctx, params)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, event)
}

func (h *HandlerImpl) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EventHandler").Start(r.Context(), "UpdateEvent")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid event id")
		return
	}

	var params types.UpdateEventParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.service.UpdateEvent(ctx, id, params)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, event)
}

func (h *HandlerImpl) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EventHandler").Start(r.Context(), "DeleteEvent")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid event id")
		return
	}

	if err := h.service.DeleteEvent(ctx, id); err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	h.logger.InfoContext(ctx, "Event deleted", slog.String("event_id", id.String()))
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": "Event deleted"})
}

func paginationParams(limitStr, offsetStr string) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(limitStr); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(offsetStr); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
