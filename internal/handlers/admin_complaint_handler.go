package handlers

import (
	"net/http"
	"strconv"

	"campusvoice/internal/models"
	"campusvoice/internal/observability"
	"campusvoice/internal/serviceinterfaces"
	contextutils "campusvoice/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// AdminComplaintHandler serves the session-protected admin endpoints
type AdminComplaintHandler struct {
	complaintService serviceinterfaces.ComplaintService
	logger           *observability.Logger
}

// NewAdminComplaintHandler creates a new AdminComplaintHandler instance
func NewAdminComplaintHandler(complaintService serviceinterfaces.ComplaintService, logger *observability.Logger) *AdminComplaintHandler {
	return &AdminComplaintHandler{
		complaintService: complaintService,
		logger:           logger,
	}
}

// ListComplaints handles GET /api/admin/complaints?status=&category=
func (h *AdminComplaintHandler) ListComplaints(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_list_complaints")
	defer observability.FinishSpan(span, nil)

	filter := models.ComplaintFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
	}

	complaints, err := h.complaintService.ListComplaints(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "Failed to list complaints", err, nil)
		HandleAppError(c, err)
		return
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}

	span.SetAttributes(attribute.Int("complaint.count", len(complaints)))
	c.JSON(http.StatusOK, complaints)
}

// UpdateComplaint handles PATCH /api/admin/complaints/:id
func (h *AdminComplaintHandler) UpdateComplaint(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_update_complaint")
	defer observability.FinishSpan(span, nil)

	idParam := c.Param("id")
	id, err := strconv.Atoi(idParam)
	if err != nil || id <= 0 {
		HandleValidationError(c, "complaint id", idParam, "must be a positive integer")
		return
	}
	span.SetAttributes(observability.AttributeComplaintID(id))

	var req models.ComplaintUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, "Invalid request body", ""))
		return
	}

	if err := h.complaintService.UpdateComplaint(ctx, id, &req); err != nil {
		if contextutils.GetErrorSeverity(err) == contextutils.SeverityError {
			h.logger.Error(ctx, "Failed to update complaint", err, map[string]interface{}{"complaint.id": id})
		}
		HandleAppError(c, complaintNotFound(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetStats handles GET /api/admin/stats
func (h *AdminComplaintHandler) GetStats(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_get_stats")
	defer observability.FinishSpan(span, nil)

	stats, err := h.complaintService.GetStats(ctx)
	if err != nil {
		h.logger.Error(ctx, "Failed to fetch stats", err, nil)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
