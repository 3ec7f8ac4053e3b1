package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MockJWTService is a configurable JWTService for tests of its callers.
type MockJWTService struct {
	GenerateTokenFunc           func(ctx context.Context, ownerID uuid.UUID) (string, error)
	GenerateTokenWithExpiryFunc func(ctx context.Context, ownerID uuid.UUID, expiresAt time.Time) (string, error)
	ValidateTokenFunc           func(ctx context.Context, tokenString string) (*Claims, error)
}

// Ensure MockJWTService implements JWTService interface
var _ JWTService = (*MockJWTService)(nil)

// NewMockJWTService creates a mock that issues "test-token" and accepts any
// token as belonging to a fixed random owner.
func NewMockJWTService() *MockJWTService {
	owner := uuid.New()
	return &MockJWTService{
		GenerateTokenFunc: func(ctx context.Context, ownerID uuid.UUID) (string, error) {
			return "test-token", nil
		},
		GenerateTokenWithExpiryFunc: func(ctx context.Context, ownerID uuid.UUID, expiresAt time.Time) (string, error) {
			return "test-token", nil
		},
		ValidateTokenFunc: func(ctx context.Context, tokenString string) (*Claims, error) {
			return &Claims{OwnerID: owner, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
}

// GenerateToken implements JWTService.
func (m *MockJWTService) GenerateToken(ctx context.Context, ownerID uuid.UUID) (string, error) {
	return m.GenerateTokenFunc(ctx, ownerID)
}

// GenerateTokenWithExpiry implements JWTService.
func (m *MockJWTService) GenerateTokenWithExpiry(
	ctx context.Context,
	ownerID uuid.UUID,
	expiresAt time.Time,
) (string, error) {
	return m.GenerateTokenWithExpiryFunc(ctx, ownerID, expiresAt)
}

// ValidateToken implements JWTService.
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	return m.ValidateTokenFunc(ctx, tokenString)
}

// WithValidationError makes ValidateToken fail with err.
func (m *MockJWTService) WithValidationError(err error) *MockJWTService {
	m.ValidateTokenFunc = func(ctx context.Context, tokenString string) (*Claims, error) {
		return nil, err
	}
	return m
}

// WithClaims makes ValidateToken return claims.
func (m *MockJWTService) WithClaims(claims *Claims) *MockJWTService {
	m.ValidateTokenFunc = func(ctx context.Context, tokenString string) (*Claims, error) {
		return claims, nil
	}
	return m
}
