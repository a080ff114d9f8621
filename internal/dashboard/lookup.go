package dashboard

import (
	"context"

	"bankdash/internal/core"
	"bankdash/internal/log"
)

type SearchAPI interface {
	SearchUser(ctx context.Context, token, phone string) (core.UserDetails, error)
}

// LookupController checks whether a phone number belongs to a registered user.
type LookupController struct {
	api  SearchAPI
	deps Deps
}

func NewLookupController(api SearchAPI, deps Deps) *LookupController {
	return &LookupController{api: api, deps: deps.withDefaults()}
}

func (c *LookupController) Busy(sessionID string) bool {
	return c.deps.Flights.Active(sessionID, ActionSearch)
}

// Search looks phone up. Every failure, including a missing token, is
// reported the same way: "User not found".
func (c *LookupController) Search(ctx context.Context, sessionID, phone string) (core.UserDetails, Result) {
	var res Result
	if !core.ValidPhone(phone) {
		res.fieldError(FieldReceiverPhone, MsgPhoneTenDigits)
		return core.UserDetails{}, res
	}

	done, ok := c.deps.Flights.Begin(sessionID, ActionSearch)
	if !ok {
		res.notify(KindWarning, MsgSearchBusy, DefaultNotificationDuration)
		return core.UserDetails{}, res
	}
	defer done()

	token, err := c.deps.Tokens.Token(ctx, sessionID)
	if err == nil {
		res.Called = true
		var user core.UserDetails
		user, err = c.api.SearchUser(ctx, token, phone)
		if err == nil {
			res.notify(KindSuccess, MsgUserFound, DefaultNotificationDuration)
			return user, res
		}
	}

	res.Err = err
	res.notify(KindError, MsgUserNotFound, DefaultNotificationDuration)
	c.deps.Logger.DebugContext(ctx, "Recipient lookup failed",
		log.NewFields().WithOperation(log.OpLookup).WithSession(sessionID).WithError(err).ToSlice()...)
	return core.UserDetails{}, res
}
