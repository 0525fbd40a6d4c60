package serviceinterfaces

import (
	"context"

	"campusvoice/internal/models"
)

// IdentityProvider authenticates admins and manages their sessions.
type IdentityProvider interface {
	// RedirectURL returns the provider sign-in URL carrying state
	RedirectURL(ctx context.Context, state string) (string, error)
	// ExchangeCode trades an authorization code for a session token
	ExchangeCode(ctx context.Context, code string) (string, error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}
