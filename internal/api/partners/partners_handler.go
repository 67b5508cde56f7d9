package partners

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

func (h *HandlerImpl) ListPartners(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PartnerHandler").Start(r.Context(), "ListPartners", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/partners"),
	))
	defer span.End()

	q := r.URL.Query()
	filter := types.PartnerFilter{
		Name:     q.Get("search"),
		Category: types.PartnerCategory(q.Get("category")),
		Location: q.Get("location"),
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

	partners, err := h.service.ListPartners(ctx, filter)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"partners": partners,
		"count":    len(partners),
	})
}

func (h *HandlerImpl) GetPartner(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PartnerHandler").Start(r.Context(), "GetPartner")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "partnerID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid partner id")
		return
	}

	partner, err := h.service.GetPartner(ctx, id)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	if partner == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "Partner not found")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, partner)
}

func (h *HandlerImpl) CreatePartner(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PartnerHandler").Start(r.Context(), "CreatePartner")
	defer span.End()

	var params types.CreatePartnerParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	partner, err := h.service.CreatePartner(ctx, params)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, partner)
}

func (h *HandlerImpl) UpdatePartner(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PartnerHandler").Start(r.Context(), "UpdatePartner")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "partnerID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid partner id")
		return
	}

	var params types.UpdatePartnerParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	partner, err := h.service.UpdatePartner(ctx, id, params)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, partner)
}

func (h *HandlerImpl) DeletePartner(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PartnerHandler").Start(r.Context(), "DeletePartner")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "partnerID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid partner id")
		return
	}

	if err := h.service.DeletePartner(ctx, id); err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	h.logger.InfoContext(ctx, "Partner deleted", slog.String("partner_id", id.String()))
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": "Partner deleted"})
}
