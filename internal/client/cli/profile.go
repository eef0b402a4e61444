package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/shopdash/internal/client/models"
)

// Profile reloads and prints the signed-in user's profile.
func (a *App) Profile(ctx context.Context) error {
	u, err := a.auth.Profile(ctx)
	if err != nil {
		a.reportError(err)
		return err
	}
	printProfile(u)
	return nil
}

// EditProfile prompts for every editable field; empty answers keep the
// current value.
func (a *App) EditProfile(ctx context.Context) error {
	current := a.auth.CurrentUser()
	if current == nil {
		printlnFn("Not signed in.")
		return nil
	}

	var upd models.ProfileUpdate
	fields := []struct {
		prompt  string
		current string
		dst     **string
	}{
		{"First name", current.Name, &upd.Name},
		{"Last name", current.LastName, &upd.LastName},
		{"Email", current.Email, &upd.Email},
		{"Mobile number", current.MobileNumber, &upd.MobileNumber},
		{"Country", current.Country, &upd.Country},
		{"Address", current.Address, &upd.Address},
		{"City", current.City, &upd.City},
		{"Postal code", current.PostalCode, &upd.PostalCode},
	}
	for _, f := range fields {
		v, err := getOptionalText(a.reader, f.prompt, f.current, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	if upd.Empty() {
		printlnFn("Nothing to update.")
		return nil
	}

	u, err := a.auth.UpdateProfile(ctx, upd)
	if err != nil {
		a.reportError(err)
		return err
	}
	printlnFn("Profile updated.")
	printProfile(u)
	return nil
}

func printProfile(u *models.User) {
	if u == nil {
		return
	}
	rows := [][2]string{
		{"Name", u.FullName()},
		{"Email", u.Email},
		{"Mobile", u.MobileNumber},
		{"Role", string(u.Role)},
		{"Country", u.Country},
		{"Address", u.Address},
		{"City", u.City},
		{"Postal code", u.PostalCode},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		printlnFn(fmt.Sprintf("%-12s %s", r[0]+":", r[1]))
	}
}
