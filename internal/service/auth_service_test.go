package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/pkg/config"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "school-records-api",
	}
}

func seedUser(t *testing.T, password string, active bool) *mockUserRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockUserRepo{users: map[string]models.User{
		"u1": {
			ID:           "u1",
			Username:     "jdoe",
			PasswordHash: string(hash),
			FullName:     "Jane Doe",
			Roles:        models.RoleSet{models.RoleAdmin},
			IsActive:     active,
		},
	}}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := seedUser(t, "secret99", true)
	svc := NewAuthService(repo, testJWTConfig(), validator.New(), zap.NewNop())

	result, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "secret99"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, int64(3600), result.ExpiresIn)
	assert.Equal(t, "jdoe", result.User.Username)
	assert.True(t, result.User.Roles.Has(models.RoleAdmin))

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.Roles.Has(models.RoleAdmin))
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := seedUser(t, "secret99", true)
	svc := NewAuthService(repo, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "wrong"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "whatever"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := seedUser(t, "secret99", false)
	svc := NewAuthService(repo, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "secret99"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestAuthServiceValidateTokenRejectsWrongSecret(t *testing.T) {
	repo := seedUser(t, "secret99", true)
	issuer := NewAuthService(repo, testJWTConfig(), validator.New(), zap.NewNop())
	result, err := issuer.Login(context.Background(), models.LoginRequest{Username: "jdoe", Password: "secret99"})
	require.NoError(t, err)

	other := NewAuthService(repo, config.JWTConfig{Secret: "different", Expiration: time.Hour}, validator.New(), zap.NewNop())
	_, err = other.ValidateToken(result.AccessToken)
	require.Error(t, err)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := seedUser(t, "secret99", true)
	svc := NewAuthService(repo, testJWTConfig(), validator.New(), zap.NewNop())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "secret99",
		NewPassword: "brandnew1",
	})
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["u1"].PasswordHash), []byte("brandnew1")))
}

func TestAuthServiceChangePasswordWrongCurrent(t *testing.T) {
	repo := seedUser(t, "secret99", true)
	svc := NewAuthService(repo, testJWTConfig(), validator.New(), zap.NewNop())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "nope",
		NewPassword: "brandnew1",
	})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}
