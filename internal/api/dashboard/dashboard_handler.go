package dashboard

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/terramar-app/terramar-backend/internal/api"
)

// HandlerImpl serves the admin overview. Entity CRUD lives in the per-entity
// handlers mounted under the same admin route group.
type HandlerImpl struct {
	repo   Repository
	logger *slog.Logger
}

func NewHandlerImpl(repo Repository, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{repo: repo, logger: logger}
}

func (h *HandlerImpl) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DashboardHandler").Start(r.Context(), "GetOverview", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/dashboard"),
	))
	defer span.End()

	overview, err := h.repo.GetOverview(ctx)
	if err != nil {
		span.RecordError(err)
		api.ErrorResponseFromErr(w, r.WithContext(ctx), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, overview)
}
