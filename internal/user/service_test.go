package user

import (
	"context"
	"testing"

	"tutorbook/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

type MockUserRepo struct{ mock.Mock }

func (m *MockUserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) AddLearner(ctx context.Context, userID int, name string) (*Learner, error) {
	args := m.Called(ctx, userID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Learner), args.Error(1)
}

func (m *MockUserRepo) ListLearners(ctx context.Context, userID int) ([]Learner, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Learner), args.Error(1)
}

func TestRegister_Success(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewService(repo, testSecret)

	repo.On("EmailExists", mock.Anything, "ploy@example.com").Return(false, nil)
	repo.On("Create", mock.Anything, "Ploy", "ploy@example.com", mock.AnythingOfType("string"), "user").
		Return(&User{ID: 10, Name: "Ploy", Email: "ploy@example.com", Role: "user"}, nil)

	registered, access, refresh, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Ploy",
		Email:    "ploy@example.com",
		Password: "secure-password",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, registered.ID)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	claims, err := auth.ValidateToken(access, testSecret)
	require.NoError(t, err)
	assert.Equal(t, 10, claims.UserID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewService(repo, testSecret)

	repo.On("EmailExists", mock.Anything, "ploy@example.com").Return(true, nil)

	_, _, _, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Ploy",
		Email:    "ploy@example.com",
		Password: "secure-password",
	})
	assert.ErrorIs(t, err, ErrEmailExists)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_Success(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewService(repo, testSecret)

	hash, err := auth.HashPassword("secure-password")
	require.NoError(t, err)

	repo.On("FindByEmail", mock.Anything, "ploy@example.com").
		Return(&User{ID: 10, Email: "ploy@example.com", PasswordHash: hash, Role: "user"}, nil)

	logged, access, _, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ploy@example.com",
		Password: "secure-password",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, logged.ID)
	assert.NotEmpty(t, access)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewService(repo, testSecret)

	hash, err := auth.HashPassword("secure-password")
	require.NoError(t, err)

	repo.On("FindByEmail", mock.Anything, "ploy@example.com").
		Return(&User{ID: 10, Email: "ploy@example.com", PasswordHash: hash}, nil)

	_, _, _, err = svc.Login(context.Background(), LoginRequest{
		Email:    "ploy@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewService(repo, testSecret)

	repo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, ErrUserNotFound)

	_, _, _, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewService(repo, testSecret)

	refresh, err := auth.GenerateRefreshToken(10, "ploy@example.com", "user", testSecret)
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, 10).
		Return(&User{ID: 10, Email: "ploy@example.com", Role: "user"}, nil)

	newAccess, refreshed, err := svc.RefreshToken(context.Background(), refresh)
	require.NoError(t, err)
	assert.Equal(t, 10, refreshed.ID)

	claims, err := auth.ValidateToken(newAccess, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.TokenType)
}

func TestAddLearner(t *testing.T) {
	repo := new(MockUserRepo)
	svc := NewService(repo, testSecret)

	repo.On("AddLearner", mock.Anything, 10, "Nok").
		Return(&Learner{ID: 1, UserID: 10, Name: "Nok"}, nil)

	learner, err := svc.AddLearner(context.Background(), 10, "Nok")
	require.NoError(t, err)
	assert.Equal(t, "Nok", learner.Name)
}
