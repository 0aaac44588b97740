package payrollhandler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/payroll"
	"hrcore/internal/requestctx"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Audit   *audit.Service
}

func NewHandler(service *payroll.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Get("/batches", h.handleListBatches)
		r.Post("/batches", h.handleCreateBatch)
		r.Get("/batches/{batchID}", h.handleGetBatch)
		r.Post("/batches/{batchID}/generate", h.handleGenerateEntries)
		r.Post("/batches/{batchID}/approve", h.handleApproveBatch)
		r.Post("/batches/{batchID}/lock", h.handleLockBatch)
		r.Get("/batches/{batchID}/export", h.handleExportCSV)
		r.Get("/batches/{batchID}/payslips/{employeeID}", h.handlePayslip)
		r.Put("/entries/{entryID}", h.handleUpdateEntry)
	})
}

func (h *Handler) record(r *http.Request, actorID, action, entityType, entityID string, after any) {
	if h.Audit == nil {
		return
	}
	ctx := r.Context()
	err := h.Audit.Record(ctx, actorID, action, entityType, entityID,
		requestctx.GetRequestID(ctx), requestctx.GetClientIP(ctx), nil, after)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func (h *Handler) handleListBatches(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	batches, err := h.Service.ListBatches(r.Context(), actor, payroll.BatchFilter{
		Month:  r.URL.Query().Get("month"),
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, batches, requestID)
}

type createBatchInput struct {
	Month string `json:"month" validate:"required"`
}

func (h *Handler) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var input createBatchInput
	if issues, err := shared.DecodeValid(r, &input); err != nil {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed", issues, requestID)
		return
	}

	batch, err := h.Service.CreateBatch(r.Context(), actor, input.Month)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "payroll.batch.create", "payroll_batch", batch.ID, batch)
	api.Created(w, batch, requestID)
}

func (h *Handler) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	detail, err := h.Service.GetBatch(r.Context(), actor, chi.URLParam(r, "batchID"))
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, detail, requestID)
}

func (h *Handler) handleGenerateEntries(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	batchID := chi.URLParam(r, "batchID")

	count, err := h.Service.GenerateEntries(r.Context(), actor, batchID)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "payroll.batch.generate", "payroll_batch", batchID, map[string]int{"entries": count})
	api.Success(w, map[string]int{"entries": count}, requestID)
}

func (h *Handler) handleApproveBatch(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	batchID := chi.URLParam(r, "batchID")

	batch, err := h.Service.ApproveBatch(r.Context(), actor, batchID)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "payroll.batch.approve", "payroll_batch", batch.ID, batch)
	api.Success(w, batch, requestID)
}

func (h *Handler) handleLockBatch(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	batchID := chi.URLParam(r, "batchID")

	batch, err := h.Service.LockBatch(r.Context(), actor, batchID)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "payroll.batch.lock", "payroll_batch", batch.ID, batch)
	api.Success(w, batch, requestID)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	batchID := chi.URLParam(r, "batchID")

	// The register is rendered in full before any response byte goes out, so
	// a failed export still returns a clean JSON envelope.
	var buf bytes.Buffer
	if err := h.Service.ExportCSV(r.Context(), actor, batchID, &buf); err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payroll-%s.csv", batchID))
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	path, err := h.Service.GeneratePayslipPDF(r.Context(), actor, chi.URLParam(r, "batchID"), chi.URLParam(r, "employeeID"))
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, map[string]string{"path": path}, requestID)
}

func (h *Handler) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	entryID := chi.URLParam(r, "entryID")

	var input payroll.EntryAmountsInput
	if issues, err := shared.DecodeValid(r, &input); err != nil {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed", issues, requestID)
		return
	}

	entry, err := h.Service.UpdateEntryAmounts(r.Context(), actor, entryID, input)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "payroll.entry.update", "payroll_entry", entry.ID, entry)
	api.Success(w, entry, requestID)
}
