package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Silk760/course-withdrawal/internal/models"
	appErrors "github.com/Silk760/course-withdrawal/pkg/errors"
)

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AdminEmail:    "registrar@ut.edu.sa",
		AdminPassword: "s3cret-admin",
		TokenSecret:   "test-secret",
		TokenExpiry:   time.Hour,
		Issuer:        "course-withdrawal",
	}
}

func TestAuthServiceRequiresCredential(t *testing.T) {
	_, err := NewAuthService(nil, nil, AuthConfig{TokenSecret: "x"})
	assert.Error(t, err)
}

func TestAuthServiceLogin(t *testing.T) {
	svc, err := NewAuthService(nil, nil, testAuthConfig())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		res, err := svc.Login(models.LoginRequest{Email: "registrar@ut.edu.sa", Password: "s3cret-admin"})
		require.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
		assert.Equal(t, int64(3600), res.ExpiresIn)

		claims, err := svc.ValidateToken(res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "registrar@ut.edu.sa", claims.Email)
		assert.Equal(t, models.RoleAdmin, claims.Role)
	})

	t.Run("email is case insensitive", func(t *testing.T) {
		_, err := svc.Login(models.LoginRequest{Email: "Registrar@UT.edu.sa", Password: "s3cret-admin"})
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(models.LoginRequest{Email: "registrar@ut.edu.sa", Password: "nope"})
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(models.LoginRequest{Email: "someone@example.com", Password: "s3cret-admin"})
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	})

	t.Run("invalid payload", func(t *testing.T) {
		_, err := svc.Login(models.LoginRequest{Email: "not-an-email", Password: "s3cret-admin"})
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	})
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc, err := NewAuthService(nil, nil, testAuthConfig())
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other, err := NewAuthService(nil, nil, AuthConfig{
			AdminEmail:    "registrar@ut.edu.sa",
			AdminPassword: "s3cret-admin",
			TokenSecret:   "different-secret",
			TokenExpiry:   time.Hour,
		})
		require.NoError(t, err)
		res, err := other.Login(models.LoginRequest{Email: "registrar@ut.edu.sa", Password: "s3cret-admin"})
		require.NoError(t, err)

		_, err = svc.ValidateToken(res.AccessToken)
		assert.Error(t, err)
	})
}
