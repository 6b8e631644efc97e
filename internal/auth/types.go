package auth

import (
	"github.com/google/uuid"
)

// Account user types.
const (
	UserTypeRegistered = "registered"
	UserTypeGuest      = "guest"
)

// User represents an authenticated account (registered or guest).
type User struct {
	ID          uuid.UUID
	Email       *string
	DisplayName string
	UserType    string
	IsGuest     bool
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// RegisterRequest for email/password registration.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=50"`
}

// LoginRequest for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GuestRequest creates an ephemeral guest account. DisplayName is optional;
// a generated name is used when absent.
type GuestRequest struct {
	DisplayName string `json:"display_name" validate:"max=50"`
}

// ConvertGuestRequest upgrades the calling guest to a registered account.
// The guest id comes from the access token, never the body.
type ConvertGuestRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// RefreshRequest trades a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// OAuthProviderGoogle is the only supported OAuth provider.
const OAuthProviderGoogle = "google"
