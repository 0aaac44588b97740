package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/auth"
	"hrcore/internal/requestctx"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type Handler struct {
	Service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequireCapability(auth.CapAuditRead))
		r.Get("/events", h.handleListEvents)
	})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	query := r.URL.Query()

	filter := audit.Filter{
		Action:     query.Get("action"),
		EntityType: query.Get("entity_type"),
		ActorUser:  query.Get("actor"),
	}
	page := shared.ParsePage(r)
	if page.Page <= 0 {
		page.Page = 1
	}
	if page.PageSize <= 0 {
		page.PageSize = 50
	}
	includeDetails := query.Get("details") == "true"

	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	events, err := h.Service.List(r.Context(), filter, includeDetails, page.PageSize, (page.Page-1)*page.PageSize)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{
		"items":     events,
		"total":     total,
		"page":      page.Page,
		"page_size": page.PageSize,
	}, requestID)
}
