package services

import (
	"testing"

	"repair_crm_backend/internal/models"
	"repair_crm_backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*fakeAuthRepo, *fakeStoreRepo, AuthService) {
	t.Helper()
	authRepo := newFakeAuthRepo()
	storeRepo := newFakeStoreRepo()
	storeRepo.stores[1] = &models.Store{ID: 1, Name: "Downtown Repair"}
	svc := NewAuthService(authRepo, storeRepo, newStubDB(t))
	return authRepo, storeRepo, svc
}

func TestRegisterAndLogin(t *testing.T) {
	_, _, svc := newAuthFixture(t)

	user, err := svc.RegisterUser(RegisterRequest{
		StoreID:  1,
		Username: "tech1",
		Password: "correct-horse",
		Role:     RoleTechnician,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.StoreID)
	assert.Equal(t, RoleTechnician, user.Role)
	assert.True(t, user.IsActive)

	loggedIn, tokens, err := svc.LoginUser(LoginRequest{Username: "tech1", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	require.NotNil(t, tokens)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	// The access token carries the store scope used by the middleware.
	claims, err := utils.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.StoreID)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	_, _, svc := newAuthFixture(t)
	_, err := svc.RegisterUser(RegisterRequest{StoreID: 1, Username: "tech1", Password: "correct-horse", Role: RoleAdmin})
	require.NoError(t, err)

	_, _, err = svc.LoginUser(LoginRequest{Username: "tech1", Password: "wrong-horse"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	_, _, svc := newAuthFixture(t)
	_, _, err := svc.LoginUser(LoginRequest{Username: "ghost", Password: "whatever1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	_, _, svc := newAuthFixture(t)
	_, err := svc.RegisterUser(RegisterRequest{StoreID: 1, Username: "tech1", Password: "correct-horse", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = svc.RegisterUser(RegisterRequest{StoreID: 1, Username: "tech1", Password: "other-password", Role: RoleAdmin})
	require.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	_, _, svc := newAuthFixture(t)

	_, err := svc.RegisterUser(RegisterRequest{StoreID: 1, Username: "tech1", Password: "short", Role: RoleAdmin})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.RegisterUser(RegisterRequest{StoreID: 1, Username: "tech1", Password: "correct-horse", Role: "owner"})
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.RegisterUser(RegisterRequest{StoreID: 99, Username: "tech1", Password: "correct-horse", Role: RoleAdmin})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	_, _, svc := newAuthFixture(t)
	_, err := svc.RegisterUser(RegisterRequest{StoreID: 1, Username: "tech1", Password: "correct-horse", Role: RoleAdmin})
	require.NoError(t, err)
	_, tokens, err := svc.LoginUser(LoginRequest{Username: "tech1", Password: "correct-horse"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
