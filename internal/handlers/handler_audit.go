package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// auditHandler exposes the audit trail to collaborating subsystems.
type auditHandler struct {
	auditService portssvc.AuditSvcFacade
}

// RegisterAuditRoutes registers audit log routes.
func RegisterAuditRoutes(rg *gin.RouterGroup, auditService portssvc.AuditSvcFacade) {
	h := &auditHandler{auditService: auditService}

	logs := rg.Group("/audit-logs")
	{
		logs.POST("", h.createAuditLog)
		logs.GET("", h.listAuditLogs)
	}
}

// createAuditLog godoc
// @Summary Record an audit event
// @Description Queues an audit record for an entity mutation made by another subsystem
// @Tags audit
// @Accept  json
// @Produce  json
// @Param   event body dto.CreateAuditLogRequest true "Audit event"
// @Success 202 {object} map[string]string "Accepted"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /audit-logs [post]
func (h *auditHandler) createAuditLog(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateAuditLogRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	previous, current := req.Entities()
	h.auditService.LogAsync(c.Request.Context(), portssvc.AuditEvent{
		Action:      req.Action,
		Entity:      current,
		Previous:    previous,
		Description: req.Description,
		PerformedBy: userID,
		Metadata:    req.Metadata,
	})

	logger.Debug("Audit event queued", slog.String("entity_type", req.EntityType), slog.String("entity_id", req.EntityID))
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// listAuditLogs godoc
// @Summary List audit history
// @Description Returns audit records for an entity type, optionally narrowed to one entity and action, newest first
// @Tags audit
// @Produce  json
// @Param   entity_type query string true "Entity type"
// @Param   entity_id query string false "Entity ID"
// @Param   action query string false "Action"
// @Param   limit query int false "Number of records to return" default(50)
// @Success 200 {object} dto.ListAuditLogsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list audit logs"
// @Security BearerAuth
// @Router /audit-logs [get]
func (h *auditHandler) listAuditLogs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListAuditLogsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListAuditLogs", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	records, err := h.auditService.ListAuditLogs(c.Request.Context(), domain.AuditLogFilter{
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
		Action:     params.Action,
		Limit:      params.Limit,
	})
	if err != nil {
		respondError(c, err, "Failed to list audit logs")
		return
	}
	c.JSON(http.StatusOK, dto.ToListAuditLogsResponse(records))
}
