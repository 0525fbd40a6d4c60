package handlers

import (
	"context"

	"campusvoice/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockComplaintService for testing
type MockComplaintService struct {
	mock.Mock
}

func (m *MockComplaintService) CreateComplaint(ctx context.Context, nc *models.NewComplaint) (result0 string, err error) {
	args := m.Called(ctx, nc)
	return args.String(0), args.Error(1)
}

func (m *MockComplaintService) GetComplaintByTrackingID(ctx context.Context, code string) (result0 *models.Complaint, err error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockComplaintService) GetComplaintByID(ctx context.Context, id int) (result0 *models.Complaint, err error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockComplaintService) ListComplaints(ctx context.Context, filter models.ComplaintFilter) (result0 []models.Complaint, err error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *MockComplaintService) UpdateComplaint(ctx context.Context, id int, update *models.ComplaintUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockComplaintService) GetStats(ctx context.Context) (result0 *models.AdminStats, err error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminStats), args.Error(1)
}

// MockIdentityProvider for testing
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) RedirectURL(ctx context.Context, state string) (result0 string, err error) {
	args := m.Called(ctx, state)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) ExchangeCode(ctx context.Context, code string) (result0 string, err error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) ValidateSession(ctx context.Context, token string) (result0 *models.User, err error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockIdentityProvider) DeleteSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockIdentityProvider) CurrentUser(ctx context.Context, token string) (result0 *models.User, err error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
