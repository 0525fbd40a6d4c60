package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"campusvoice/internal/config"
	"campusvoice/internal/models"
	"campusvoice/internal/observability"
	contextutils "campusvoice/internal/utils"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

// complaintIDConstraint is the unique constraint guarding tracking codes
const complaintIDConstraint = "complaints_complaint_id_key"

const pqUniqueViolation = pq.ErrorCode("23505")

const complaintColumns = `id, complaint_id, title, description, category, location, status, admin_notes, created_at, updated_at`

// ComplaintService implements serviceinterfaces.ComplaintService on PostgreSQL.
type ComplaintService struct {
	db            *sql.DB
	logger        *observability.Logger
	metrics       *observability.ComplaintMetrics
	generateID    ComplaintIDGenerator
	maxIDAttempts int
	now           func() time.Time
}

// NewComplaintService creates a new ComplaintService instance.
func NewComplaintService(db *sql.DB, cfg *config.Config, logger *observability.Logger) *ComplaintService {
	if db == nil {
		panic("NewComplaintService: db is nil")
	}
	if logger == nil {
		panic("NewComplaintService: logger is nil")
	}

	attempts := config.DefaultMaxComplaintIDAttempts
	if cfg != nil && cfg.Complaints.MaxIDAttempts > 0 {
		attempts = cfg.Complaints.MaxIDAttempts
	}

	return &ComplaintService{
		db:            db,
		logger:        logger,
		metrics:       observability.NewComplaintMetrics(),
		generateID:    NewComplaintIDGenerator(nil, nil),
		maxIDAttempts: attempts,
		now:           time.Now,
	}
}

// CreateComplaint validates and stores a new complaint, returning its tracking code.
// A tracking code collision is retried with a fresh code up to maxIDAttempts times.
func (s *ComplaintService) CreateComplaint(ctx context.Context, nc *models.NewComplaint) (result0 string, err error) {
	ctx, span := observability.TraceComplaintFunction(ctx, "create_complaint")
	defer observability.FinishSpan(span, &err)

	complaint, err := validateNewComplaint(nc)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("complaint.category", complaint.Category))

	query := `INSERT INTO complaints (complaint_id, title, description, category, location, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`

	for attempt := 1; attempt <= s.maxIDAttempts; attempt++ {
		code, genErr := s.generateID()
		if genErr != nil {
			return "", contextutils.WrapError(genErr, "failed to generate complaint ID")
		}

		var id int
		err = s.db.QueryRowContext(ctx, query, code, complaint.Title, complaint.Description, complaint.Category, complaint.Location, models.StatusPending, s.now()).
			Scan(&id)
		if err == nil {
			span.SetAttributes(observability.AttributeTrackingCode(code), attribute.Int("complaint.id_attempts", attempt))
			s.metrics.RecordCreated(ctx, complaint.Category)
			s.logger.Info(ctx, "Complaint created", map[string]interface{}{
				"complaint.id":  id,
				"complaint_id":  code,
				"category":      complaint.Category,
				"location":      complaint.Location,
				"attempt_count": attempt,
			})
			return code, nil
		}

		if !isComplaintIDCollision(err) {
			return "", contextutils.WrapDatabaseError(err, "failed to insert complaint")
		}

		s.metrics.RecordCollision(ctx)
		s.logger.Warn(ctx, "Complaint ID collision, retrying", map[string]interface{}{
			"complaint_id": code,
			"attempt":      attempt,
			"max_attempts": s.maxIDAttempts,
		})
	}

	err = contextutils.WrapErrorf(contextutils.ErrGenerationExhausted, "no unique complaint ID after %d attempts", s.maxIDAttempts)
	return "", err
}

// GetComplaintByTrackingID looks up a complaint by its public code, ignoring letter case.
func (s *ComplaintService) GetComplaintByTrackingID(ctx context.Context, code string) (result0 *models.Complaint, err error) {
	code = NormalizeComplaintID(code)
	ctx, span := observability.TraceComplaintFunction(ctx, "get_complaint_by_tracking_id", observability.AttributeTrackingCode(code))
	defer observability.FinishSpan(span, &err)

	if code == "" {
		return nil, contextutils.ErrRecordNotFound
	}

	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE complaint_id = $1`
	c, err := scanComplaint(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapDatabaseError(err, "failed to scan complaint")
	}
	return c, nil
}

// GetComplaintByID fetches a complaint by its surrogate key.
func (s *ComplaintService) GetComplaintByID(ctx context.Context, id int) (result0 *models.Complaint, err error) {
	ctx, span := observability.TraceComplaintFunction(ctx, "get_complaint_by_id", observability.AttributeComplaintID(id))
	defer observability.FinishSpan(span, &err)

	if !storableID(id) {
		return nil, contextutils.ErrRecordNotFound
	}

	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	c, err := scanComplaint(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.ErrRecordNotFound
		}
		return nil, contextutils.WrapDatabaseError(err, "failed to scan complaint")
	}
	return c, nil
}

// ListComplaints returns every complaint matching the filter, newest first.
func (s *ComplaintService) ListComplaints(ctx context.Context, filter models.ComplaintFilter) (result0 []models.Complaint, err error) {
	filter = filter.Normalized()
	ctx, span := observability.TraceComplaintFunction(ctx, "list_complaints",
		observability.AttributeStatusFilter(filter.Status),
		observability.AttributeCategoryFilter(filter.Category),
	)
	defer observability.FinishSpan(span, &err)

	var conditions []string
	var args []interface{}
	idx := 1
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", idx))
		args = append(args, filter.Category)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := `SELECT ` + complaintColumns + ` FROM complaints` + where + ` ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapDatabaseError(err, "failed to query complaints")
	}
	defer func() {
		_ = rows.Close()
	}()

	list := []models.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, contextutils.WrapDatabaseError(err, "failed to scan complaint list")
		}
		list = append(list, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapDatabaseError(err, "failed to iterate complaints")
	}

	span.SetAttributes(attribute.Int("complaint.count", len(list)))
	return list, nil
}

// UpdateComplaint applies an admin edit. updated_at is refreshed even when nothing else changes.
func (s *ComplaintService) UpdateComplaint(ctx context.Context, id int, update *models.ComplaintUpdate) (err error) {
	ctx, span := observability.TraceComplaintFunction(ctx, "update_complaint", observability.AttributeComplaintID(id))
	defer observability.FinishSpan(span, &err)

	if !storableID(id) {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "complaint with ID %d not found", id)
	}
	if update == nil {
		update = &models.ComplaintUpdate{}
	}
	if update.Status != nil && !models.IsValidStatus(*update.Status) {
		return contextutils.NewAppError(
			contextutils.ErrorCodeInvalidStatus,
			contextutils.SeverityWarn,
			"Invalid status",
			fmt.Sprintf("status must be one of %s", strings.Join(models.ValidStatuses, ", ")),
		)
	}

	var sets []string
	var args []interface{}
	idx := 1
	if update.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", idx))
		args = append(args, *update.Status)
		idx++
	}
	if update.NotesChanged() {
		sets = append(sets, fmt.Sprintf("admin_notes = $%d", idx))
		args = append(args, update.NotesValue())
		idx++
	}
	// GREATEST keeps created_at <= updated_at even if the app clock lags the stored value
	sets = append(sets, fmt.Sprintf("updated_at = GREATEST($%d, created_at)", idx))
	args = append(args, s.now())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE complaints SET %s WHERE id = $%d", strings.Join(sets, ", "), idx+1)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return contextutils.WrapDatabaseError(err, "failed to update complaint")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapDatabaseError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "complaint with ID %d not found", id)
	}

	status := ""
	if update.Status != nil {
		status = *update.Status
	}
	s.metrics.RecordUpdated(ctx, status)
	s.logger.Info(ctx, "Complaint updated", map[string]interface{}{
		"complaint.id":  id,
		"status":        status,
		"notes_changed": update.NotesChanged(),
		"admin":         contextutils.GetAdminEmailFromContext(ctx),
	})
	return nil
}

// GetStats counts complaints overall and per status in a single statement.
func (s *ComplaintService) GetStats(ctx context.Context) (result0 *models.AdminStats, err error) {
	ctx, span := observability.TraceComplaintFunction(ctx, "get_stats")
	defer observability.FinishSpan(span, &err)

	query := `SELECT COUNT(*),
                     COUNT(*) FILTER (WHERE status = $1),
                     COUNT(*) FILTER (WHERE status = $2),
                     COUNT(*) FILTER (WHERE status = $3)
              FROM complaints`
	var stats models.AdminStats
	err = s.db.QueryRowContext(ctx, query, models.StatusPending, models.StatusInProgress, models.StatusResolved).
		Scan(&stats.Total, &stats.Pending, &stats.InProgress, &stats.Resolved)
	if err != nil {
		return nil, contextutils.WrapDatabaseError(err, "failed to count complaints")
	}
	return &stats, nil
}

// storableID reports whether id fits the SERIAL primary key
func storableID(id int) bool {
	return id > 0 && int64(id) <= math.MaxInt32
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	if err := row.Scan(&c.ID, &c.ComplaintID, &c.Title, &c.Description, &c.Category, &c.Location, &c.Status, &c.AdminNotes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// validateNewComplaint reports every blank field at once. Whitespace-only counts
// as blank, but accepted submissions are stored exactly as sent.
func validateNewComplaint(nc *models.NewComplaint) (*models.NewComplaint, error) {
	if nc == nil {
		nc = &models.NewComplaint{}
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"title", nc.Title},
		{"description", nc.Description},
		{"category", nc.Category},
		{"location", nc.Location},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, contextutils.NewAppError(
			contextutils.ErrorCodeMissingRequired,
			contextutils.SeverityWarn,
			"All fields are required",
			"missing: "+strings.Join(missing, ", "),
		)
	}
	return nc, nil
}

// isComplaintIDCollision reports a unique violation on the tracking code column
func isComplaintIDCollision(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqUniqueViolation && (pqErr.Constraint == "" || pqErr.Constraint == complaintIDConstraint)
}
