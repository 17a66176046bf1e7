package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aml-forge/sar-engine/pkg/apperrors"
	"github.com/aml-forge/sar-engine/pkg/database"
	"github.com/aml-forge/sar-engine/pkg/logging"
	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/services"
)

// EngineHandler exposes the case lifecycle, audit trail, and alert endpoints.
type EngineHandler struct {
	db           *database.DB
	caseService  services.CaseService
	auditService services.AuditService
	alertService services.AlertService
	logger       *zap.Logger
}

// NewEngineHandler creates a new EngineHandler.
func NewEngineHandler(db *database.DB, caseService services.CaseService, auditService services.AuditService, alertService services.AlertService, logger *zap.Logger) *EngineHandler {
	return &EngineHandler{
		db:           db,
		caseService:  caseService,
		auditService: auditService,
		alertService: alertService,
		logger:       logger,
	}
}

// RegisterRoutes registers the engine handler's routes on the given mux.
func (h *EngineHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/cases", h.CreateCase)
	mux.HandleFunc("GET /api/cases/{case_id}", h.GetCase)
	mux.HandleFunc("GET /api/cases/{case_id}/versions", h.ListVersions)
	mux.HandleFunc("GET /api/cases/{case_id}/audit", h.CaseAuditTrail)
	mux.HandleFunc("PUT /api/cases/{case_id}/narrative", h.SaveEdit)
	mux.HandleFunc("POST /api/cases/{case_id}/approve", h.Approve)
	mux.HandleFunc("POST /api/cases/{case_id}/reject", h.Reject)
	mux.HandleFunc("POST /api/cases/{case_id}/file", h.File)

	mux.HandleFunc("GET /api/audit/recent", h.RecentAudit)
	mux.HandleFunc("GET /api/audit/stats", h.AuditStats)

	mux.HandleFunc("GET /api/alerts", h.ListAlerts)
	mux.HandleFunc("GET /api/alerts/summary", h.AlertSummary)
	mux.HandleFunc("POST /api/alerts/{alert_id}/resolve", h.ResolveAlert)
	mux.HandleFunc("POST /api/alerts/read-all", h.MarkAllAlertsRead)
}

type createCaseRequest struct {
	Customer     *models.CustomerProfile  `json:"customer"`
	Alert        *models.TransactionAlert `json:"alert"`
	Transactions []models.Transaction     `json:"transactions"`
	AnalystID    *uuid.UUID               `json:"analyst_id,omitempty"`
	Priority     string                   `json:"priority,omitempty"`
}

type createCaseResponse struct {
	Case       *models.Case             `json:"case"`
	Generation *models.GenerationResult `json:"generation"`
}

// CreateCase handles POST /api/cases
func (h *EngineHandler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid_request", "Invalid request body")
		return
	}
	if req.Customer == nil || req.Alert == nil {
		h.badRequest(w, "missing_fields", "customer and alert are required")
		return
	}

	c, result, err := h.caseService.CreateCase(r.Context(), services.CreateCaseInput{
		Customer:     req.Customer,
		Alert:        req.Alert,
		Transactions: req.Transactions,
		AnalystID:    req.AnalystID,
		Priority:     req.Priority,
	})
	if err != nil {
		h.serviceError(w, "create_case_failed", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    createCaseResponse{Case: c, Generation: result},
	})
}

// GetCase handles GET /api/cases/{case_id}
func (h *EngineHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.caseService.GetCase(r.Context(), r.PathValue("case_id"))
	if err != nil {
		h.serviceError(w, "get_case_failed", err)
		return
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: c})
}

// ListVersions handles GET /api/cases/{case_id}/versions
func (h *EngineHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.caseService.ListVersions(r.Context(), r.PathValue("case_id"))
	if err != nil {
		h.serviceError(w, "list_versions_failed", err)
		return
	}
	if versions == nil {
		versions = make([]*models.NarrativeVersionEntry, 0)
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: versions})
}

// CaseAuditTrail handles GET /api/cases/{case_id}/audit
func (h *EngineHandler) CaseAuditTrail(w http.ResponseWriter, r *http.Request) {
	entries, err := h.auditService.CaseTrail(r.Context(), h.db, r.PathValue("case_id"))
	if err != nil {
		h.serviceError(w, "audit_trail_failed", err)
		return
	}
	if entries == nil {
		entries = make([]*models.AuditLogEntry, 0)
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entries})
}

type saveEditRequest struct {
	Text          string     `json:"text"`
	Editor        string     `json:"editor"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	ChangeSummary string     `json:"change_summary,omitempty"`
}

// SaveEdit handles PUT /api/cases/{case_id}/narrative
func (h *EngineHandler) SaveEdit(w http.ResponseWriter, r *http.Request) {
	var req saveEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid_request", "Invalid request body")
		return
	}
	if req.Text == "" || req.Editor == "" {
		h.badRequest(w, "missing_fields", "text and editor are required")
		return
	}

	c, err := h.caseService.SaveEdit(r.Context(), r.PathValue("case_id"), req.Text, req.Editor, req.UserID, req.ChangeSummary)
	if err != nil {
		h.serviceError(w, "save_edit_failed", err)
		return
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: c})
}

type decisionRequest struct {
	DecidedBy string     `json:"decided_by"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Reference string     `json:"reference,omitempty"`
}

// Approve handles POST /api/cases/{case_id}/approve
func (h *EngineHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid_request", "Invalid request body")
		return
	}

	c, err := h.caseService.Approve(r.Context(), r.PathValue("case_id"), req.DecidedBy, req.UserID, req.Notes)
	if err != nil {
		h.serviceError(w, "approve_failed", err)
		return
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: c})
}

// Reject handles POST /api/cases/{case_id}/reject
func (h *EngineHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid_request", "Invalid request body")
		return
	}

	c, err := h.caseService.Reject(r.Context(), r.PathValue("case_id"), req.DecidedBy, req.UserID, req.Reason)
	if err != nil {
		h.serviceError(w, "reject_failed", err)
		return
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: c})
}

// File handles POST /api/cases/{case_id}/file
func (h *EngineHandler) File(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid_request", "Invalid request body")
		return
	}
	if req.Reference == "" {
		h.badRequest(w, "missing_fields", "reference is required")
		return
	}

	c, err := h.caseService.File(r.Context(), r.PathValue("case_id"), req.DecidedBy, req.UserID, req.Reference)
	if err != nil {
		h.serviceError(w, "file_failed", err)
		return
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: c})
}

// RecentAudit handles GET /api/audit/recent
func (h *EngineHandler) RecentAudit(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	category := models.AuditCategory(r.URL.Query().Get("category"))

	entries, err := h.auditService.Recent(r.Context(), h.db, limit, category)
	if err != nil {
		h.serviceError(w, "recent_audit_failed", err)
		return
	}
	if entries == nil {
		entries = make([]*models.AuditLogEntry, 0)
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entries})
}

// AuditStats handles GET /api/audit/stats
func (h *EngineHandler) AuditStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.auditService.Stats(r.Context(), h.db)
	if err != nil {
		h.serviceError(w, "audit_stats_failed", err)
		return
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: stats})
}

// ListAlerts handles GET /api/alerts
func (h *EngineHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alertService.ListUnread(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		h.serviceError(w, "list_alerts_failed", err)
		return
	}
	if alerts == nil {
		alerts = make([]*models.SystemAlert, 0)
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: alerts})
}

// AlertSummary handles GET /api/alerts/summary
func (h *EngineHandler) AlertSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.alertService.Summary(r.Context())
	if err != nil {
		h.serviceError(w, "alert_summary_failed", err)
		return
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary})
}

type resolveAlertRequest struct {
	ResolvedBy string `json:"resolved_by"`
}

// ResolveAlert handles POST /api/alerts/{alert_id}/resolve
func (h *EngineHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID, err := uuid.Parse(r.PathValue("alert_id"))
	if err != nil {
		h.badRequest(w, "invalid_alert_id", "Invalid alert ID format")
		return
	}

	var req resolveAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid_request", "Invalid request body")
		return
	}

	if err := h.alertService.Resolve(r.Context(), alertID, req.ResolvedBy); err != nil {
		h.serviceError(w, "resolve_alert_failed", err)
		return
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Alert resolved"})
}

// MarkAllAlertsRead handles POST /api/alerts/read-all
func (h *EngineHandler) MarkAllAlertsRead(w http.ResponseWriter, r *http.Request) {
	count, err := h.alertService.MarkAllRead(r.Context())
	if err != nil {
		h.serviceError(w, "mark_all_read_failed", err)
		return
	}

	h.writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]int{"marked_read": count}})
}

func (h *EngineHandler) badRequest(w http.ResponseWriter, code, message string) {
	if err := ErrorResponse(w, http.StatusBadRequest, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

// serviceError maps service failures to HTTP statuses without leaking
// internal details.
func (h *EngineHandler) serviceError(w http.ResponseWriter, code string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrCaseLocked),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrNotApproved):
		status = http.StatusConflict
	}

	// Storage and backend failures can echo connection strings or keys, so
	// clients get a generic message and the detail stays in the logs.
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("code", code),
			zap.String("error", logging.SanitizeError(err)))
		message = "internal error"
	}
	if werr := ErrorResponse(w, status, code, message); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}

func (h *EngineHandler) writeJSON(w http.ResponseWriter, status int, body ApiResponse) {
	if err := WriteJSON(w, status, body); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
