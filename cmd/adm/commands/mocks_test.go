package commands

import (
	"bytes"
	"context"
	"database/sql"

	"campusvoice/internal/models"
	"campusvoice/internal/serviceinterfaces"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/mock"
)

type mockComplaintService struct {
	mock.Mock
}

func (m *mockComplaintService) CreateComplaint(ctx context.Context, nc *models.NewComplaint) (string, error) {
	args := m.Called(ctx, nc)
	return args.String(0), args.Error(1)
}

func (m *mockComplaintService) GetComplaintByTrackingID(ctx context.Context, code string) (*models.Complaint, error) {
	args := m.Called(ctx, code)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *mockComplaintService) GetComplaintByID(ctx context.Context, id int) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *mockComplaintService) ListComplaints(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	args := m.Called(ctx, filter)
	c, _ := args.Get(0).([]models.Complaint)
	return c, args.Error(1)
}

func (m *mockComplaintService) UpdateComplaint(ctx context.Context, id int, update *models.ComplaintUpdate) error {
	return m.Called(ctx, id, update).Error(0)
}

func (m *mockComplaintService) GetStats(ctx context.Context) (*models.AdminStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.AdminStats)
	return s, args.Error(1)
}

type mockSessionAdmin struct {
	mock.Mock
}

func (m *mockSessionAdmin) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionAdmin) RevokeAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockMigrator struct {
	mock.Mock
}

func (m *mockMigrator) RunMigrations(ctx context.Context, db *sql.DB) error {
	return m.Called(ctx, db).Error(0)
}

func (m *mockMigrator) MigrateDown(ctx context.Context, db *sql.DB, steps int) error {
	return m.Called(ctx, db, steps).Error(0)
}

func (m *mockMigrator) MigrationVersion(ctx context.Context, db *sql.DB) (uint, bool, error) {
	args := m.Called(ctx, db)
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func complaintProvider(svc serviceinterfaces.ComplaintService) ComplaintServiceProvider {
	return func(context.Context) (serviceinterfaces.ComplaintService, error) { return svc, nil }
}

// runCommand executes cmd with args and returns everything it printed
func runCommand(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
