package items

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

func filterFromQuery(r *http.Request) types.ItemFilter {
	q := r.URL.Query()
	filter := types.ItemFilter{
		Type:        types.ItemType(q.Get("type")),
		Category:    types.ItemCategory(q.Get("category")),
		Subcategory: q.Get("subcategory"),
		Area:        q.Get("area"),
		Search:      q.Get("search"),
		PriceRange:  q.Get("price_range"),
		Featured:    q.Get("featured") == "true",
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
	return filter
}

func (h *HandlerImpl) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItemHandler").Start(r.Context(), "ListItems", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/items"),
	))
	defer span.End()

	items, err := h.service.ListItems(ctx, filterFromQuery(r))
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

func (h *HandlerImpl) SearchItems(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItemHandler").Start(r.Context(), "SearchItems", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/items/search"),
	))
	defer span.End()

	result, err := h.service.SearchItems(ctx, filterFromQuery(r))
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

func (h *HandlerImpl) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItemHandler").Start(r.Context(), "GetItem")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid item id")
		return
	}

	item, err := h.service.GetItem(ctx, id)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	if item == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "Item not found")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, item)
}

func (h *HandlerImpl) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItemHandler").Start(r.Context(), "CreateItem")
	defer span.End()

	var params types.CreateItemParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.service.CreateItem(ctx, params)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, item)
}

func (h *HandlerImpl) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItemHandler").Start(r.Context(), "UpdateItem")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid item id")
		return
	}

	var params types.UpdateItemParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.service.UpdateItem(ctx, id, params)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, item)
}

func (h *HandlerImpl) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItemHandler").Start(r.Context(), "DeleteItem")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid item id")
		return
	}

	if err := h.service.DeleteItem(ctx, id); err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	h.logger.InfoContext(ctx, "Item deleted", slog.String("item_id", id.String()))
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": "Item deleted"})
}
