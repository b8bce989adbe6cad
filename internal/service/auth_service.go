package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/samvidha-portal-api/internal/models"
	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
)

type sessionStore interface {
	Create(ctx context.Context, creds models.Credentials) (string, error)
	Resolve(ctx context.Context, sessionID string) (models.Credentials, error)
	Drop(ctx context.Context, sessionID string) error
}

// AuthConfig defines configuration for the session token flow.
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	Issuer      string
}

// sessionClaims binds a token to one server-side session record.
type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService issues and validates session tokens. Portal credentials never
// leave the server: the token only references the sealed session record.
type AuthService struct {
	store     sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs the service.
func NewAuthService(store sessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = 30 * time.Minute
	}
	return &AuthService{store: store, validator: validate, logger: logger, config: config}
}

// EstablishSession stores the credentials server-side and returns a signed
// token referencing the record. Call this only after the credentials have
// been proven against the portal.
func (s *AuthService) EstablishSession(ctx context.Context, creds models.Credentials) (string, error) {
	payload := struct {
		Username string `validate:"required"`
		Password string `validate:"required"`
	}{creds.Username, creds.Password}
	if err := s.validator.Struct(payload); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code,
			appErrors.ErrValidation.Status, "username and password are required")
	}

	sessionID, err := s.store.Create(ctx, creds)
	if err != nil {
		return "", err
	}

	issuedAt := time.Now().UTC()
	claims := &sessionClaims{
		Username: creds.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code,
			appErrors.ErrInternal.Status, "failed to sign session token")
	}
	return signed, nil
}

// ResolveToken validates a session token and returns the portal credentials
// behind it.
func (s *AuthService) ResolveToken(ctx context.Context, tokenString string) (models.Credentials, error) {
	sessionID, err := s.parseToken(tokenString)
	if err != nil {
		return models.Credentials{}, err
	}
	return s.store.Resolve(ctx, sessionID)
}

// EndSession drops the session record behind a token.
func (s *AuthService) EndSession(ctx context.Context, tokenString string) error {
	sessionID, err := s.parseToken(tokenString)
	if err != nil {
		return err
	}
	return s.store.Drop(ctx, sessionID)
}

func (s *AuthService) parseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrSessionExpired.Code,
			appErrors.ErrSessionExpired.Status, appErrors.ErrSessionExpired.Message)
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", appErrors.Clone(appErrors.ErrSessionExpired, "invalid session token")
	}
	return claims.Subject, nil
}
