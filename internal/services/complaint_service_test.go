package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusvoice/internal/config"
	"campusvoice/internal/models"
	"campusvoice/internal/observability"
	contextutils "campusvoice/internal/utils"
)

var complaintRowColumns = []string{
	"id", "complaint_id", "title", "description", "category", "location", "status", "admin_notes", "created_at", "updated_at",
}

func newTestComplaintService(t *testing.T) (*ComplaintService, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cleanup := func() {
		require.NoError(t, mock.ExpectationsWereMet())
		require.NoError(t, db.Close())
	}

	service := NewComplaintService(db, &config.Config{}, observability.NewNopLogger())
	service.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	return service, mock, cleanup
}

// sequenceGenerator hands out the given codes in order
func sequenceGenerator(codes ...string) ComplaintIDGenerator {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func validNewComplaint() *models.NewComplaint {
	return &models.NewComplaint{
		Title:       "Broken projector",
		Description: "Room 204 projector flickers",
		Category:    "technology",
		Location:    "main-building",
	}
}

func collisionError() error {
	return &pq.Error{Code: "23505", Constraint: complaintIDConstraint}
}

func TestNewComplaintService(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewComplaintService(db, nil, observability.NewNopLogger())
	assert.Equal(t, config.DefaultMaxComplaintIDAttempts, service.maxIDAttempts)

	service = NewComplaintService(db, &config.Config{Complaints: config.ComplaintsConfig{MaxIDAttempts: 9}}, observability.NewNopLogger())
	assert.Equal(t, 9, service.maxIDAttempts)

	assert.Panics(t, func() { NewComplaintService(nil, nil, observability.NewNopLogger()) })
	assert.Panics(t, func() { NewComplaintService(db, nil, nil) })
}

func TestComplaintService_CreateComplaint(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()
	service.generateID = sequenceGenerator("CV-LX3K9ZQ4A7")

	mock.ExpectQuery("INSERT INTO complaints").
		WithArgs("CV-LX3K9ZQ4A7", "Broken projector", "Room 204 projector flickers", "technology", "main-building", models.StatusPending, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	code, err := service.CreateComplaint(context.Background(), validNewComplaint())
	require.NoError(t, err)
	assert.Equal(t, "CV-LX3K9ZQ4A7", code)
}

func TestComplaintService_CreateComplaintStoresFieldsVerbatim(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()
	service.generateID = sequenceGenerator("CV-RAW0001")

	mock.ExpectQuery("INSERT INTO complaints").
		WithArgs("CV-RAW0001", "  Leak ", "Water everywhere\n", " utilities", "dormitory ", models.StatusPending, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

	_, err := service.CreateComplaint(context.Background(), &models.NewComplaint{
		Title:       "  Leak ",
		Description: "Water everywhere\n",
		Category:    " utilities",
		Location:    "dormitory ",
	})
	require.NoError(t, err)
}

func TestComplaintService_CreateComplaintMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		input   *models.NewComplaint
		missing string
	}{
		{"nil input", nil, "title, description, category, location"},
		{"blank title", &models.NewComplaint{Title: "   ", Description: "d", Category: "c", Location: "l"}, "title"},
		{"no category or location", &models.NewComplaint{Title: "t", Description: "d"}, "category, location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mock, cleanup := newTestComplaintService(t)
			defer cleanup()
			_ = mock

			_, err := service.CreateComplaint(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, contextutils.ErrorCodeMissingRequired, contextutils.GetErrorCode(err))

			var appErr *contextutils.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "All fields are required", appErr.Message)
			assert.Equal(t, "missing: "+tt.missing, appErr.Details)
		})
	}
}

func TestComplaintService_CreateComplaintRetriesOnCollision(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()
	service.generateID = sequenceGenerator("CV-AAA", "CV-BBB")

	mock.ExpectQuery("INSERT INTO complaints").
		WithArgs("CV-AAA", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(collisionError())
	mock.ExpectQuery("INSERT INTO complaints").
		WithArgs("CV-BBB", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	code, err := service.CreateComplaint(context.Background(), validNewComplaint())
	require.NoError(t, err)
	assert.Equal(t, "CV-BBB", code)
}

func TestComplaintService_CreateComplaintExhausted(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()
	service.generateID = sequenceGenerator("CV-SAME")
	service.maxIDAttempts = 3

	for i := 0; i < 3; i++ {
		mock.ExpectQuery("INSERT INTO complaints").WillReturnError(collisionError())
	}

	code, err := service.CreateComplaint(context.Background(), validNewComplaint())
	require.Error(t, err)
	assert.Empty(t, code)
	assert.True(t, errors.Is(err, contextutils.ErrGenerationExhausted))
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestComplaintService_CreateComplaintOtherUniqueViolationIsNotRetried(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()
	service.generateID = sequenceGenerator("CV-AAA")

	mock.ExpectQuery("INSERT INTO complaints").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "some_other_key"})

	_, err := service.CreateComplaint(context.Background(), validNewComplaint())
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeDatabaseError, contextutils.GetErrorCode(err))
}

func TestComplaintService_CreateComplaintDatabaseError(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()
	service.generateID = sequenceGenerator("CV-AAA")

	mock.ExpectQuery("INSERT INTO complaints").WillReturnError(errors.New("connection reset"))

	_, err := service.CreateComplaint(context.Background(), validNewComplaint())
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeDatabaseError, contextutils.GetErrorCode(err))
	assert.Contains(t, err.Error(), "failed to insert complaint")
}

func TestComplaintService_CreateComplaintGeneratorError(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()
	_ = mock
	service.generateID = func() (string, error) { return "", errors.New("entropy unavailable") }

	_, err := service.CreateComplaint(context.Background(), validNewComplaint())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate complaint ID")
}

func TestComplaintService_GetComplaintByTrackingID(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()

	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows(complaintRowColumns).
		AddRow(1, "CV-LX3K9ZQ4A7", "Broken projector", "Flickers", "technology", "main-building", "pending", nil, created, created)
	mock.ExpectQuery("FROM complaints WHERE complaint_id = \\$1").
		WithArgs("CV-LX3K9ZQ4A7").
		WillReturnRows(rows)

	c, err := service.GetComplaintByTrackingID(context.Background(), " cv-lx3k9zq4a7 ")
	require.NoError(t, err)
	assert.Equal(t, 1, c.ID)
	assert.Equal(t, "CV-LX3K9ZQ4A7", c.ComplaintID)
	assert.Equal(t, models.StatusPending, c.Status)
	assert.False(t, c.AdminNotes.Valid)
	assert.Equal(t, created, c.CreatedAt)
}

func TestComplaintService_GetComplaintByTrackingIDNotFound(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()

	mock.ExpectQuery("FROM complaints WHERE complaint_id = \\$1").
		WithArgs("CV-NOPE").
		WillReturnError(sql.ErrNoRows)

	c, err := service.GetComplaintByTrackingID(context.Background(), "cv-nope")
	assert.Nil(t, c)
	assert.True(t, errors.Is(err, contextutils.ErrRecordNotFound))
}

func TestComplaintService_GetComplaintByTrackingIDBlank(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()
	_ = mock

	_, err := service.GetComplaintByTrackingID(context.Background(), "  ")
	assert.True(t, errors.Is(err, contextutils.ErrRecordNotFound))
}

func TestComplaintService_GetComplaintByID(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()

	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("FROM complaints WHERE id = \\$1").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(complaintRowColumns).
			AddRow(4, "CV-X", "t", "d", "safety", "parking", "resolved", "Handled", created, created.Add(time.Hour)))

	c, err := service.GetComplaintByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Handled", c.AdminNotes.String)
	assert.True(t, c.AdminNotes.Valid)

	mock.ExpectQuery("FROM complaints WHERE id = \\$1").
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)
	_, err = service.GetComplaintByID(context.Background(), 99)
	assert.True(t, errors.Is(err, contextutils.ErrRecordNotFound))
}

func TestComplaintService_ListComplaints(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter models.ComplaintFilter
		query  string
		args   []driver.Value
	}{
		{
			name:   "no filters",
			filter: models.ComplaintFilter{},
			query:  "FROM complaints ORDER BY created_at DESC, id DESC",
		},
		{
			name:   "all is no filter",
			filter: models.ComplaintFilter{Status: "all", Category: "all"},
			query:  "FROM complaints ORDER BY created_at DESC, id DESC",
		},
		{
			name:   "status only",
			filter: models.ComplaintFilter{Status: "pending"},
			query:  "FROM complaints WHERE status = $1 ORDER BY created_at DESC, id DESC",
			args:   []driver.Value{"pending"},
		},
		{
			name:   "category only",
			filter: models.ComplaintFilter{Status: "all", Category: "safety"},
			query:  "FROM complaints WHERE category = $1 ORDER BY created_at DESC, id DESC",
			args:   []driver.Value{"safety"},
		},
		{
			name:   "status and category",
			filter: models.ComplaintFilter{Status: "resolved", Category: "utilities"},
			query:  "FROM complaints WHERE status = $1 AND category = $2 ORDER BY created_at DESC, id DESC",
			args:   []driver.Value{"resolved", "utilities"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mock, cleanup := newTestComplaintService(t)
			defer cleanup()

			rows := sqlmock.NewRows(complaintRowColumns).
				AddRow(2, "CV-B", "t2", "d2", "utilities", "library", "resolved", "done", created.Add(time.Hour), created.Add(time.Hour)).
				AddRow(1, "CV-A", "t1", "d1", "utilities", "library", "resolved", nil, created, created)

			expect := mock.ExpectQuery(regexp.QuoteMeta(tt.query))
			if len(tt.args) > 0 {
				expect = expect.WithArgs(tt.args...)
			}
			expect.WillReturnRows(rows)

			list, err := service.ListComplaints(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "CV-B", list[0].ComplaintID)
			assert.Equal(t, "CV-A", list[1].ComplaintID)
		})
	}
}

func TestComplaintService_ListComplaintsEmpty(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()

	mock.ExpectQuery("FROM complaints").WillReturnRows(sqlmock.NewRows(complaintRowColumns))

	list, err := service.ListComplaints(context.Background(), models.ComplaintFilter{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestComplaintService_ListComplaintsQueryError(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()

	mock.ExpectQuery("FROM complaints").WillReturnError(errors.New("query failed"))

	_, err := service.ListComplaints(context.Background(), models.ComplaintFilter{})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeDatabaseError, contextutils.GetErrorCode(err))
	assert.Contains(t, err.Error(), "failed to query complaints")
}

func TestComplaintService_UpdateComplaint(t *testing.T) {
	status := models.StatusResolved
	notes := "Replaced the bulb"
	empty := ""

	tests := []struct {
		name   string
		update *models.ComplaintUpdate
		query  string
		args   []driver.Value
	}{
		{
			name:   "status and notes",
			update: &models.ComplaintUpdate{Status: &status, AdminNotes: &notes},
			query:  "UPDATE complaints SET status = $1, admin_notes = $2, updated_at = GREATEST($3, created_at) WHERE id = $4",
			args:   []driver.Value{status, notes, sqlmock.AnyArg(), 7},
		},
		{
			name:   "status only",
			update: &models.ComplaintUpdate{Status: &status},
			query:  "UPDATE complaints SET status = $1, updated_at = GREATEST($2, created_at) WHERE id = $3",
			args:   []driver.Value{status, sqlmock.AnyArg(), 7},
		},
		{
			name:   "empty notes overwrite",
			update: &models.ComplaintUpdate{AdminNotes: &empty},
			query:  "UPDATE complaints SET admin_notes = $1, updated_at = GREATEST($2, created_at) WHERE id = $3",
			args:   []driver.Value{"", sqlmock.AnyArg(), 7},
		},
		{
			name:   "null notes reset to NULL",
			update: &models.ComplaintUpdate{AdminNotesSet: true},
			query:  "UPDATE complaints SET admin_notes = $1, updated_at = GREATEST($2, created_at) WHERE id = $3",
			args:   []driver.Value{nil, sqlmock.AnyArg(), 7},
		},
		{
			name:   "empty update still touches updated_at",
			update: &models.ComplaintUpdate{},
			query:  "UPDATE complaints SET updated_at = GREATEST($1, created_at) WHERE id = $2",
			args:   []driver.Value{sqlmock.AnyArg(), 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mock, cleanup := newTestComplaintService(t)
			defer cleanup()

			mock.ExpectExec(regexp.QuoteMeta(tt.query)).
				WithArgs(tt.args...).
				WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, service.UpdateComplaint(context.Background(), 7, tt.update))
		})
	}
}

func TestComplaintService_UpdateComplaintDecodedNullNotes(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()

	var update models.ComplaintUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"admin_notes":null}`), &update))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE complaints SET admin_notes = $1, updated_at = GREATEST($2, created_at) WHERE id = $3")).
		WithArgs(nil, sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, service.UpdateComplaint(context.Background(), 1, &update))
}

func TestComplaintService_IDsOutsideSerialRangeNotFound(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()
	_ = mock

	status := models.StatusResolved
	for _, id := range []int{0, -3, math.MaxInt32 + 1} {
		err := service.UpdateComplaint(context.Background(), id, &models.ComplaintUpdate{Status: &status})
		require.Error(t, err, id)
		assert.True(t, errors.Is(err, contextutils.ErrRecordNotFound), id)

		_, err = service.GetComplaintByID(context.Background(), id)
		assert.True(t, errors.Is(err, contextutils.ErrRecordNotFound), id)
	}
}

func TestComplaintService_UpdateComplaintInvalidStatus(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()
	_ = mock

	for _, bad := range []string{"", "closed", "Pending", "all"} {
		s := bad
		err := service.UpdateComplaint(context.Background(), 7, &models.ComplaintUpdate{Status: &s})
		require.Error(t, err, bad)
		assert.Equal(t, contextutils.ErrorCodeInvalidStatus, contextutils.GetErrorCode(err), bad)
	}
}

func TestComplaintService_UpdateComplaintNotFound(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()

	mock.ExpectExec("UPDATE complaints SET").
		WithArgs(sqlmock.AnyArg(), 404).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := service.UpdateComplaint(context.Background(), 404, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contextutils.ErrRecordNotFound))
	assert.Contains(t, err.Error(), "complaint with ID 404 not found")
}

func TestComplaintService_UpdateComplaintExecError(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()

	mock.ExpectExec("UPDATE complaints SET").WillReturnError(errors.New("deadlock"))

	err := service.UpdateComplaint(context.Background(), 1, nil)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeDatabaseError, contextutils.GetErrorCode(err))
}

func TestComplaintService_GetStats(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs("pending", "in-progress", "resolved").
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "in_progress", "resolved"}).AddRow(6, 3, 2, 1))

	stats, err := service.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.AdminStats{Total: 6, Pending: 3, InProgress: 2, Resolved: 1}, stats)
}

func TestComplaintService_GetStatsEmptyTable(t *testing.T) {
	service, mock, cleanup := newTestComplaintService(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "in_progress", "resolved"}).AddRow(0, 0, 0, 0))

	stats, err := service.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.AdminStats{}, stats)
}

func TestIsComplaintIDCollision(t *testing.T) {
	assert.True(t, isComplaintIDCollision(collisionError()))
	assert.True(t, isComplaintIDCollision(&pq.Error{Code: "23505"}))
	assert.True(t, isComplaintIDCollision(contextutils.WrapError(collisionError(), "wrapped")))
	assert.False(t, isComplaintIDCollision(&pq.Error{Code: "23505", Constraint: "other"}))
	assert.False(t, isComplaintIDCollision(&pq.Error{Code: "23503"}))
	assert.False(t, isComplaintIDCollision(errors.New("duplicate key")))
	assert.False(t, isComplaintIDCollision(nil))
}
