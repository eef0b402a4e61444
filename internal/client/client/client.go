package client

import (
	"context"

	"github.com/dmitrijs2005/shopdash/internal/client/models"
)

// AuthGateway is the identity API seen by the rest of the client. *Gateway
// implements it; tests substitute fakes.
type AuthGateway interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.User, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Logout(ctx context.Context) error
	FetchCurrentUser(ctx context.Context) (*models.User, error)
	RestoreSession(ctx context.Context, token string, user *models.User) (*models.User, error)
	FetchProfile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error)
	VerifyEmail(ctx context.Context, v models.EmailVerification) (*models.User, error)
}

var _ AuthGateway = (*Gateway)(nil)
