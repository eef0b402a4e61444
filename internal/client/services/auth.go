// Package services contains the application services of the ShopDash
// client: the auth service used by the CLI, session persistence and the
// boot sequence.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/shopdash/internal/client/client"
	"github.com/dmitrijs2005/shopdash/internal/client/models"
	"github.com/dmitrijs2005/shopdash/internal/client/session"
)

// AuthService defines the identity operations offered to the CLI.
//
// Contract:
//   - Login, Register: validate the form locally, then call the server.
//     Local validation failures are *client.Error of KindValidation and do
//     not touch the session.
//   - Logout: always ends the session locally.
//   - CurrentUser: the user of the committed session, nil when signed out.
//   - Profile, UpdateProfile: read and edit the signed-in user's profile.
//   - VerifyEmail: confirm an address from a mailed link; works signed in or
//     out and returns the reloaded user when signed in.
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.User, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Logout(ctx context.Context) error
	CurrentUser() *models.User
	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error)
	VerifyEmail(ctx context.Context, link string) (*models.User, error)
}

var ErrNotAuthenticated = errors.New("not signed in")

type authService struct {
	gateway client.AuthGateway
	store   *session.Store
}

// NewAuthService constructs an AuthService bound to the given gateway and store.
func NewAuthService(gateway client.AuthGateway, store *session.Store) AuthService {
	return &authService{gateway: gateway, store: store}
}

func (a *authService) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, client.NewValidationError("Please correct the highlighted fields", models.FieldErrors(err))
	}
	return a.gateway.Login(ctx, req)
}

func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, client.NewValidationError("Please correct the highlighted fields", models.FieldErrors(err))
	}
	return a.gateway.Register(ctx, req)
}

func (a *authService) Logout(ctx context.Context) error {
	return a.gateway.Logout(ctx)
}

func (a *authService) CurrentUser() *models.User {
	s := a.store.GetState()
	if !s.IsAuthenticated() {
		return nil
	}
	return s.User
}

func (a *authService) Profile(ctx context.Context) (*models.User, error) {
	if !a.store.GetState().IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	return a.gateway.FetchProfile(ctx)
}

func (a *authService) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	if !a.store.GetState().IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if update.Empty() {
		return a.CurrentUser(), nil
	}
	if err := update.Validate(); err != nil {
		return nil, client.NewValidationError("Please correct the highlighted fields", models.FieldErrors(err))
	}
	return a.gateway.UpdateProfile(ctx, update)
}

func (a *authService) VerifyEmail(ctx context.Context, link string) (*models.User, error) {
	v, err := models.ParseVerificationLink(link)
	if err != nil {
		return nil, client.NewValidationError("Please paste the link from the verification email", map[string][]string{"link": {err.Error()}})
	}
	if err := v.Validate(); err != nil {
		return nil, client.NewValidationError("The verification link is incomplete", models.FieldErrors(err))
	}
	return a.gateway.VerifyEmail(ctx, v)
}
