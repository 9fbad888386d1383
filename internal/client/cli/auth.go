package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/ndemidov/cargotrail/internal/client/alerts"
	"github.com/ndemidov/cargotrail/internal/client/oauth"
	"github.com/ndemidov/cargotrail/internal/client/services"
	"github.com/ndemidov/cargotrail/internal/client/session"
	"github.com/ndemidov/cargotrail/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and opens a session.
//
// The password byte slice is securely wiped before returning. Rejected
// credentials and unreachable servers are reported through the notifier
// rather than returned, so the REPL keeps running.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	rec, err := a.auth.Login(ctx, username, password)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrInvalidCredentials):
			a.notifier.Notify(alerts.KindError, "Invalid username or password.")
		case errors.Is(err, oauth.ErrNetwork):
			a.notifier.Notify(alerts.KindError, "Server unreachable. Check the connection and try again.")
		default:
			a.notifier.Notify(alerts.KindError, fmt.Sprintf("Login failed: %v", err))
		}
		return err
	}

	a.setUserName(rec.User.DisplayName)
	a.notifier.Notify(alerts.KindSuccess, fmt.Sprintf("Logged in as %s.", rec.User.DisplayName))
	return nil
}

// Logout closes the current session and clears all local data.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		a.notifier.Notify(alerts.KindError, fmt.Sprintf("Logout failed: %v", err))
		return err
	}
	a.setUserName("")
	a.notifier.Notify(alerts.KindInfo, "Logged out.")
	return nil
}

// Whoami prints the authenticated-user snapshot of the current session.
func (a *App) Whoami(ctx context.Context) error {
	user, err := a.auth.Whoami(ctx)
	if err != nil {
		a.reportError(err)
		return err
	}
	fmt.Fprintf(a.out, "%s (%s), organization %s\n", user.DisplayName, user.ID, user.Organization)
	return nil
}

// reportError translates a service error into a user-facing alert. An
// expired session additionally drops the displayed user name, since the
// service layer has already cleared the stored one.
func (a *App) reportError(err error) {
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		a.setUserName("")
		a.notifier.Notify(alerts.KindWarning, "Session expired. Log in again to continue.")
	case errors.Is(err, services.ErrNotLoggedIn):
		a.notifier.Notify(alerts.KindWarning, "Not logged in. Use 'login' first.")
	case errors.Is(err, common.ErrNotFound):
		a.notifier.Notify(alerts.KindError, "Not found.")
	case errors.Is(err, oauth.ErrNetwork):
		a.notifier.Notify(alerts.KindError, "Server unreachable.")
	default:
		a.notifier.Notify(alerts.KindError, err.Error())
	}
}
