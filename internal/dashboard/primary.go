package dashboard

import (
	"context"

	"bankdash/internal/amqp"
	"bankdash/internal/core"
)

type PrimaryAPI interface {
	SetPrimaryAccount(ctx context.Context, token, accountID string) error
}

// SelectedAccount returns the account with id, or the first account when id
// is empty or unknown.
func SelectedAccount(profile core.Profile, id string) core.Account {
	if a, err := profile.Account(id); err == nil {
		return a
	}
	return profile.DefaultAccount()
}

type PrimaryController struct {
	api  PrimaryAPI
	deps Deps
}

func NewPrimaryController(api PrimaryAPI, deps Deps) *PrimaryController {
	return &PrimaryController{api: api, deps: deps.withDefaults()}
}

// Busy reports whether a set-primary call is in flight for the session.
func (c *PrimaryController) Busy(sessionID string) bool {
	return c.deps.Flights.Active(sessionID, ActionSetPrimary)
}

// CanSetPrimary reports whether the "Set as primary" control is enabled for
// accountID: the profile is not loading and the account is not already primary.
func (c *PrimaryController) CanSetPrimary(sessionID string, outlet OutletContext, accountID string) bool {
	if outlet.Loading() || c.Busy(sessionID) {
		return false
	}
	profile := outlet.Profile()
	selected := SelectedAccount(profile, accountID)
	return selected.ID != "" && !profile.IsPrimary(selected.ID)
}

// SetPrimary makes the selected account primary. When it already is, or
// while the profile is loading, nothing happens and no feedback is given.
// Otherwise the outlet is refreshed whatever the outcome.
func (c *PrimaryController) SetPrimary(ctx context.Context, sessionID string, outlet OutletContext, accountID string) Result {
	var res Result
	profile := outlet.Profile()
	selected := SelectedAccount(profile, accountID)
	if selected.ID == "" || profile.IsPrimary(selected.ID) || outlet.Loading() {
		return res
	}

	done, ok := c.deps.Flights.Begin(sessionID, ActionSetPrimary)
	if !ok {
		res.notify(KindWarning, MsgPrimaryBusy, DefaultNotificationDuration)
		return res
	}
	defer done()

	token, err := c.deps.Tokens.Token(ctx, sessionID)
	if err != nil {
		res.Err = err
		res.notify(KindError, errorMessage(err), ActionNotificationDuration)
		done()
		c.deps.refresh(ctx, &res, outlet)
		return res
	}

	res.Called = true
	res.Err = c.api.SetPrimaryAccount(ctx, token, selected.ID)
	if res.Err != nil {
		res.notify(KindError, errorMessage(res.Err), ActionNotificationDuration)
	} else {
		res.notify(KindSuccess, MsgPrimaryUpdated, ActionNotificationDuration)
	}
	done()

	c.deps.finish(ctx, &res, outlet,
		amqp.NewActivityMessage(amqp.KindSetPrimary, sessionID, selected.ID, "", res.Err))
	return res
}
