package leavehandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/leave"
	"hrcore/internal/requestctx"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Audit   *audit.Service
}

func NewHandler(service *leave.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Get("/types", h.handleListTypes)
		r.Post("/types", h.handleCreateType)
		r.Put("/types/{typeID}", h.handleUpdateType)
		r.Delete("/types/{typeID}", h.handleDeactivateType)

		r.Get("/locked-dates", h.handleListLockedDates)
		r.Post("/locked-dates", h.handleLockDate)
		r.Delete("/locked-dates/{date}", h.handleUnlockDate)

		r.Get("/requests", h.handleListRequests)
		r.Post("/requests", h.handleApply)
		r.Post("/requests/convert-absence", h.handleConvertAbsence)
		r.Get("/requests/{requestID}", h.handleGetRequest)
		r.Post("/requests/{requestID}/approve", h.handleApprove)
		r.Post("/requests/{requestID}/reject", h.handleReject)
		r.Post("/requests/{requestID}/cancel", h.handleCancel)
		r.Put("/requests/{requestID}/master", h.handleMasterUpdate)
		r.Delete("/requests/{requestID}", h.handleMasterDelete)

		r.Get("/balance", h.handleBalance)
	})
}

func (h *Handler) record(r *http.Request, actorID, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	ctx := r.Context()
	err := h.Audit.Record(ctx, actorID, action, entityType, entityID,
		requestctx.GetRequestID(ctx), requestctx.GetClientIP(ctx), before, after)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	types, err := h.Service.ListTypes(r.Context(), actor, includeInactive)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, types, requestID)
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var input leave.TypeInput
	if issues, err := shared.DecodeValid(r, &input); err != nil {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed", issues, requestID)
		return
	}

	created, err := h.Service.CreateType(r.Context(), actor, input)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "leave.type.create", "leave_type", created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handleUpdateType(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	typeID := chi.URLParam(r, "typeID")

	var input leave.TypeInput
	if issues, err := shared.DecodeValid(r, &input); err != nil {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed", issues, requestID)
		return
	}

	updated, err := h.Service.UpdateType(r.Context(), actor, typeID, input)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "leave.type.update", "leave_type", updated.ID, nil, updated)
	api.Success(w, updated, requestID)
}

func (h *Handler) handleDeactivateType(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	typeID := chi.URLParam(r, "typeID")

	if err := h.Service.DeactivateType(r.Context(), actor, typeID); err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "leave.type.deactivate", "leave_type", typeID, nil, nil)
	api.Success(w, map[string]string{"id": typeID, "status": "inactive"}, requestID)
}

func (h *Handler) handleListLockedDates(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	year := shared.QueryInt(r, "year", time.Now().UTC().Year())

	dates, err := h.Service.ListLockedDates(r.Context(), actor, year)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, dates, requestID)
}

func (h *Handler) handleLockDate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var input leave.LockDateInput
	if issues, err := shared.DecodeValid(r, &input); err != nil {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed", issues, requestID)
		return
	}

	locked, err := h.Service.LockDate(r.Context(), actor, input)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "leave.date.lock", "locked_date", locked.ID, nil, locked)
	api.Created(w, locked, requestID)
}

func (h *Handler) handleUnlockDate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	date := chi.URLParam(r, "date")

	if err := h.Service.UnlockDate(r.Context(), actor, date); err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "leave.date.unlock", "locked_date", date, nil, nil)
	api.Success(w, map[string]string{"date": date, "status": "unlocked"}, requestID)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	page := shared.ParsePage(r)

	query := r.URL.Query()
	filter := leave.RequestFilter{
		Status:      query.Get("status"),
		EmployeeID:  query.Get("employee_id"),
		LeaveTypeID: query.Get("leave_type_id"),
		FromDate:    query.Get("from"),
		ToDate:      query.Get("to"),
		Page:        page.Page,
		PageSize:    page.PageSize,
	}

	list, err := h.Service.ListRequests(r.Context(), actor, filter)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, list, requestID)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	request, err := h.Service.GetRequest(r.Context(), actor, chi.URLParam(r, "requestID"))
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, request, requestID)
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var input leave.ApplyInput
	if issues, err := shared.DecodeValid(r, &input); err != nil {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed", issues, requestID)
		return
	}

	request, err := h.Service.Apply(r.Context(), actor, input)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "leave.apply", "leave_request", request.ID, nil, request)
	api.Created(w, request, requestID)
}

type convertAbsenceInput struct {
	EmployeeID  string `json:"employeeId" validate:"required"`
	Date        string `json:"date" validate:"required"`
	LeaveTypeID string `json:"leaveTypeId" validate:"required"`
}

func (h *Handler) handleConvertAbsence(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var input convertAbsenceInput
	if issues, err := shared.DecodeValid(r, &input); err != nil {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed", issues, requestID)
		return
	}

	request, err := h.Service.ConvertAbsenceToLeave(r.Context(), actor, input.EmployeeID, input.Date, input.LeaveTypeID)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "leave.absence.convert", "leave_request", request.ID, nil, request)
	api.Created(w, request, requestID)
}

type decisionInput struct {
	Comment string `json:"comment"`
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string,
	decide func(call decisionCall) (leave.LeaveRequest, error)) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	targetID := chi.URLParam(r, "requestID")

	var input decisionInput
	if r.ContentLength > 0 {
		if issues, err := shared.DecodeValid(r, &input); err != nil {
			api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed", issues, requestID)
			return
		}
	}

	request, err := decide(decisionCall{requestID: targetID, comment: input.Comment})
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, action, "leave_request", request.ID, nil, request)
	api.Success(w, request, requestID)
}

type decisionCall struct {
	requestID string
	comment   string
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r.Context())
	h.decide(w, r, "leave.approve", func(call decisionCall) (leave.LeaveRequest, error) {
		return h.Service.Approve(r.Context(), actor, call.requestID, call.comment)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r.Context())
	h.decide(w, r, "leave.reject", func(call decisionCall) (leave.LeaveRequest, error) {
		return h.Service.Reject(r.Context(), actor, call.requestID, call.comment)
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r.Context())
	h.decide(w, r, "leave.cancel", func(call decisionCall) (leave.LeaveRequest, error) {
		return h.Service.Cancel(r.Context(), actor, call.requestID, call.comment)
	})
}

func (h *Handler) handleMasterUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	targetID := chi.URLParam(r, "requestID")

	var input leave.ApplyInput
	if issues, err := shared.DecodeValid(r, &input); err != nil {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed", issues, requestID)
		return
	}

	updated, err := h.Service.MasterUpdate(r.Context(), actor, targetID, input)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "leave.master.update", "leave_request", updated.ID, nil, updated)
	api.Success(w, updated, requestID)
}

// handleMasterDelete is the one operation where the audit write is mandatory:
// the row it documents is gone afterwards.
func (h *Handler) handleMasterDelete(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	targetID := chi.URLParam(r, "requestID")

	before, err := h.Service.GetRequest(r.Context(), actor, targetID)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	if err := h.Service.MasterDelete(r.Context(), actor, targetID); err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	h.record(r, actor.UserID, "leave.master.delete", "leave_request", targetID, before, nil)
	api.Success(w, map[string]string{"id": targetID, "status": "deleted"}, requestID)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		employeeID = actor.EmployeeID
	}
	year := shared.QueryInt(r, "year", time.Now().UTC().Year())

	summary, err := h.Service.Balance(r.Context(), actor, employeeID, year)
	if err != nil {
		api.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, summary, requestID)
}
