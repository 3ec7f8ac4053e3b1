package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for managing JWT access tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for the job owner, valid for
	// the configured lifetime.
	GenerateToken(ctx context.Context, ownerID uuid.UUID) (string, error)

	// GenerateTokenWithExpiry creates a signed access token that expires at
	// expiresAt.
	GenerateTokenWithExpiry(ctx context.Context, ownerID uuid.UUID, expiresAt time.Time) (string, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns the claims if the token is valid, or an error if validation
	// fails (expired, invalid signature, bad subject).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated contents of an access token.
type Claims struct {
	// OwnerID is the job owner the token was issued for. It is the token subject.
	OwnerID uuid.UUID `json:"sub"`

	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
