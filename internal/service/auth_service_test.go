package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Druv08/smart-scheduler/internal/models"
	appErrors "github.com/Druv08/smart-scheduler/pkg/errors"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	byID          map[int64]*models.User
	refreshTokens map[string]*models.RefreshToken
	nextID        int64
	createErr     error
	revokedAll    bool
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         map[string]*models.User{},
		byID:          map[int64]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
}

func (m *mockAuthRepo) addUser(username, password string, role models.UserRole) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	m.nextID++
	user := &models.User{ID: m.nextID, Username: username, PasswordHash: string(hash), Role: role}
	m.users[username] = user
	m.byID[user.ID] = user
	return user
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.Username] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	if user, ok := m.byID[id]; ok {
		user.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, token string, revokedAt time.Time) error {
	if rt, ok := m.refreshTokens[token]; ok {
		rt.Revoked = true
		rt.RevokedAt = &revokedAt
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID int64, revokedAt time.Time) error {
	m.revokedAll = true
	for _, rt := range m.refreshTokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

func newAuthFixture(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
		Issuer:             "smart-scheduler-test",
	})
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser("alice", "password123", models.RoleFaculty)
	svc := newAuthFixture(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleFaculty, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleFaculty, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser("alice", "password123", models.RoleFaculty)
	svc := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "nope"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	svc := newAuthFixture(newMockAuthRepo())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "whatever"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser("alice", "password123", models.RoleAdmin)
	svc := newAuthFixture(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The spent token no longer works.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceRegister(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthFixture(repo)

	info, err := svc.Register(context.Background(), models.RegisterRequest{Username: "bob", Password: "secret1", Role: "STUDENT"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, info.Role)

	stored := repo.users["bob"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
}

func TestAuthServiceRegisterRejectsBadRole(t *testing.T) {
	svc := newAuthFixture(newMockAuthRepo())

	_, err := svc.Register(context.Background(), models.RegisterRequest{Username: "bob", Password: "secret1", Role: "WIZARD"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAuthServiceChangePasswordRevokesSessions(t *testing.T) {
	repo := newMockAuthRepo()
	user := repo.addUser("alice", "password123", models.RoleFaculty)
	svc := newAuthFixture(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "password123",
		NewPassword: "brand-new",
	})
	require.NoError(t, err)
	assert.True(t, repo.revokedAll)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "brand-new"})
	require.NoError(t, err)
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser("alice", "password123", models.RoleFaculty)
	svc := newAuthFixture(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "different-secret"})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
