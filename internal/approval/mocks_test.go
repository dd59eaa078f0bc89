package approval

import (
	"context"

	"groupgate/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockTransport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) SendMessage(ctx context.Context, channelID int64, text string) (int64, error) {
	args := m.Called(ctx, channelID, text)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockTransport) AdmitMember(ctx context.Context, token, note string) error {
	args := m.Called(ctx, token, note)
	return args.Error(0)
}
func (m *MockTransport) DenyMember(ctx context.Context, token, reason string) error {
	args := m.Called(ctx, token, reason)
	return args.Error(0)
}
func (m *MockTransport) AddReaction(ctx context.Context, messageID int64, kind string) error {
	args := m.Called(ctx, messageID, kind)
	return args.Error(0)
}

// MockBindingRepo
type MockBindingRepo struct {
	mock.Mock
}

func (m *MockBindingRepo) Create(ctx context.Context, b *domain.Binding) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}
func (m *MockBindingRepo) GetByUserID(ctx context.Context, userID string) (*domain.Binding, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Binding), args.Error(1)
}
func (m *MockBindingRepo) GetByAccountID(ctx context.Context, accountID string) (*domain.Binding, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Binding), args.Error(1)
}
func (m *MockBindingRepo) Update(ctx context.Context, b *domain.Binding) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}
func (m *MockBindingRepo) ListAdmins(ctx context.Context) ([]domain.Binding, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Binding), args.Error(1)
}

// MockLookupService
type MockLookupService struct {
	mock.Mock
}

func (m *MockLookupService) GetProfile(ctx context.Context, accountID string) (*domain.Profile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}
