package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/shopdash/internal/client/client"
	"github.com/dmitrijs2005/shopdash/internal/client/models"
)

// getSimpleText, getOptionalText and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getOptionalText = GetOptionalText
	getPassword     = GetPassword
)

// Login is the submit action of the login boundary. On success the user is
// sent back to the page they originally asked for.
func (a *App) Login(ctx context.Context) error {
	if u := a.auth.CurrentUser(); u != nil {
		printlnFn("Already signed in as", u.Email)
		return nil
	}

	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		a.reportError(err)
		return err
	}

	printlnFn(fmt.Sprintf("Welcome, %s!", user.FullName()))
	a.returnAfterLogin()
	return nil
}

// Register collects the registration form and signs the new user in.
func (a *App) Register(ctx context.Context) error {
	if u := a.auth.CurrentUser(); u != nil {
		printlnFn("Already signed in as", u.Email)
		return nil
	}

	var req models.RegisterRequest
	text := []struct {
		prompt string
		dst    *string
	}{
		{"First name", &req.Name},
		{"Last name", &req.LastName},
		{"Email", &req.Email},
		{"Mobile number", &req.MobileNumber},
	}
	for _, f := range text {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	var err error
	if req.Password, err = getPassword("Password", a.out); err != nil {
		return err
	}
	if req.PasswordConfirmation, err = getPassword("Confirm password", a.out); err != nil {
		return err
	}

	role, err := getSimpleText(a.reader, "Role (admin/user) [user]", a.out)
	if err != nil {
		return err
	}
	req.Role = models.RoleUser
	if role != "" {
		req.Role = models.Role(strings.ToLower(role))
	}

	optional := []struct {
		prompt string
		dst    *string
	}{
		{"Country", &req.Country},
		{"Address", &req.Address},
		{"City", &req.City},
		{"Postal code", &req.PostalCode},
	}
	for _, f := range optional {
		v, err := getOptionalText(a.reader, f.prompt+" (optional)", "", a.out)
		if err != nil {
			return err
		}
		if v != nil {
			*f.dst = *v
		}
	}

	user, err := a.auth.Register(ctx, req)
	if err != nil {
		a.reportError(err)
		return err
	}

	printlnFn(fmt.Sprintf("Account created. Welcome, %s!", user.FullName()))
	a.returnAfterLogin()
	return nil
}

// Logout ends the session and shows the login boundary. The session ends
// locally even when the server call fails.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Not signed in.")
		return nil
	}

	a.guard.Release()
	err := a.auth.Logout(ctx)
	if err != nil {
		a.logger.Warn(ctx, "logout failed on server", "error", err)
	}
	printlnFn("Signed out.")
	a.returnTo = ""
	_ = a.Open(ctx, a.config.LoginPath)
	return err
}

// WhoAmI prints the signed-in user.
func (a *App) WhoAmI(ctx context.Context) error {
	u := a.auth.CurrentUser()
	if u == nil {
		printlnFn("Not signed in.")
		return nil
	}
	printlnFn(fmt.Sprintf("%s <%s> (%s)", u.FullName(), u.Email, u.Role))
	return nil
}

// VerifyEmail confirms the address behind a link from the verification
// email. It works whether or not anyone is signed in.
func (a *App) VerifyEmail(ctx context.Context, link string) error {
	u, err := a.auth.VerifyEmail(ctx, link)
	if err != nil {
		var apiErr *client.Error
		if errors.As(err, &apiErr) && len(apiErr.Fields) == 0 && apiErr.Message != "" {
			printlnFn("Error:", apiErr.Message)
		} else {
			a.reportError(err)
		}
		return err
	}

	printlnFn("Email verified.")
	if u != nil && u.EmailVerifiedAt != "" {
		printlnFn("Verified at:", u.EmailVerifiedAt)
	}
	return nil
}

// reportError prints err the way the login boundary shows it: field errors
// for validation problems, otherwise the session's current error.
func (a *App) reportError(err error) {
	var apiErr *client.Error
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		if apiErr.Message != "" {
			printlnFn(apiErr.Message)
		}
		fields := make([]string, 0, len(apiErr.Fields))
		for f := range apiErr.Fields {
			fields = append(fields, f)
		}
		slices.Sort(fields)
		for _, f := range fields {
			printlnFn(fmt.Sprintf("  %s: %s", f, strings.Join(apiErr.Fields[f], "; ")))
		}
		return
	}

	if msg := a.store.GetState().Error; msg != "" {
		printlnFn("Error:", msg)
		return
	}
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		printlnFn("Error:", apiErr.Message)
		return
	}
	printlnFn("Error:", err.Error())
}
