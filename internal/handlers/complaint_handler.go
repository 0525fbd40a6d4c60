package handlers

import (
	"net/http"

	"campusvoice/internal/models"
	"campusvoice/internal/observability"
	"campusvoice/internal/serviceinterfaces"
	contextutils "campusvoice/internal/utils"

	"github.com/gin-gonic/gin"
)

// ComplaintHandler serves the anonymous public complaint endpoints
type ComplaintHandler struct {
	complaintService serviceinterfaces.ComplaintService
	logger           *observability.Logger
}

// NewComplaintHandler creates a new ComplaintHandler instance
func NewComplaintHandler(complaintService serviceinterfaces.ComplaintService, logger *observability.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		complaintService: complaintService,
		logger:           logger,
	}
}

// CreateComplaint handles POST /api/complaints
func (h *ComplaintHandler) CreateComplaint(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_complaint")
	defer observability.FinishSpan(span, nil)

	var req models.NewComplaint
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, "Invalid request body", ""))
		return
	}

	code, err := h.complaintService.CreateComplaint(ctx, &req)
	if err != nil {
		if contextutils.GetErrorSeverity(err) == contextutils.SeverityError {
			h.logger.Error(ctx, "Failed to submit complaint", err, nil)
		}
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(observability.AttributeTrackingCode(code))
	c.JSON(http.StatusCreated, gin.H{"complaintId": code})
}

// GetComplaint handles GET /api/complaints/:id where id is the public tracking code
func (h *ComplaintHandler) GetComplaint(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_complaint")
	defer observability.FinishSpan(span, nil)

	complaint, err := h.complaintService.GetComplaintByTrackingID(ctx, c.Param("id"))
	if err != nil {
		if contextutils.GetErrorCode(err) != contextutils.ErrorCodeRecordNotFound {
			h.logger.Error(ctx, "Failed to fetch complaint", err, nil)
		}
		HandleAppError(c, complaintNotFound(err))
		return
	}

	c.JSON(http.StatusOK, complaint)
}
