package auth_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	auth "github.com/stefvuck/forum-auth"
)

// MockService implements auth.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(*auth.LoginResult)
	return result, args.Error(1)
}

func (m *MockService) Register(ctx context.Context, email, password, name string) (*auth.RegistrationOutcome, error) {
	args := m.Called(ctx, email, password, name)
	outcome, _ := args.Get(0).(*auth.RegistrationOutcome)
	return outcome, args.Error(1)
}

func (m *MockService) VerifyEmail(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockService) ValidateToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockService) CurrentUser(ctx context.Context, token string) (*auth.Account, error) {
	args := m.Called(ctx, token)
	account, _ := args.Get(0).(*auth.Account)
	return account, args.Error(1)
}

func (m *MockService) Roles(ctx context.Context) ([]auth.Role, error) {
	args := m.Called(ctx)
	roles, _ := args.Get(0).([]auth.Role)
	return roles, args.Error(1)
}

func (m *MockService) Users(ctx context.Context) ([]auth.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]auth.User)
	return users, args.Error(1)
}

func (m *MockService) UpdateUserRole(ctx context.Context, userID, roleID int) (*auth.RoleChangeResult, error) {
	args := m.Called(ctx, userID, roleID)
	result, _ := args.Get(0).(*auth.RoleChangeResult)
	return result, args.Error(1)
}

// MockCredentialStore implements auth.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Save(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockCredentialStore) Load() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}

// MockValidator implements auth.SessionValidator
type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

// recordingSink captures activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) Types() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}
