package serviceinterfaces

import (
	"context"

	"campusvoice/internal/models"
)

// ComplaintService defines persistence operations for complaints.
type ComplaintService interface {
	CreateComplaint(ctx context.Context, nc *models.NewComplaint) (string, error)
	GetComplaintByTrackingID(ctx context.Context, code string) (*models.Complaint, error)
	GetComplaintByID(ctx context.Context, id int) (*models.Complaint, error)
	ListComplaints(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error)
	UpdateComplaint(ctx context.Context, id int, update *models.ComplaintUpdate) error
	GetStats(ctx context.Context) (*models.AdminStats, error)
}
