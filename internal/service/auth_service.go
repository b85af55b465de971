package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Silk760/course-withdrawal/internal/models"
	appErrors "github.com/Silk760/course-withdrawal/pkg/errors"
)

// AuthConfig defines the registrar-office admin credential and token settings.
type AuthConfig struct {
	AdminEmail    string
	AdminPassword string
	TokenSecret   string
	TokenExpiry   time.Duration
	Issuer        string
}

// AuthService authenticates the registrar-office admin account against the
// configured credential and issues short-lived access tokens.
type AuthService struct {
	validator    *validator.Validate
	logger       *zap.Logger
	config       AuthConfig
	passwordHash []byte
}

// NewAuthService constructs an AuthService. The configured admin password is
// hashed once at construction so the plaintext is not kept around.
func NewAuthService(validate *validator.Validate, logger *zap.Logger, config AuthConfig) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AdminEmail == "" || config.AdminPassword == "" {
		return nil, fmt.Errorf("admin credential is not configured")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(config.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	config.AdminPassword = ""
	return &AuthService{validator: validate, logger: logger, config: config, passwordHash: hash}, nil
}

// Login authenticates the admin and returns an issued access token.
func (s *AuthService) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	if !strings.EqualFold(req.Email, s.config.AdminEmail) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	now := time.Now().UTC()
	claims := &models.JWTClaims{
		Email: s.config.AdminEmail,
		Role:  models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.config.AdminEmail,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.logger.Info("admin login", zap.String("email", s.config.AdminEmail))

	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.config.TokenExpiry.Seconds()),
		IssuedAt:    now,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
