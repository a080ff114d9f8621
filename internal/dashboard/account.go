package dashboard

import (
	"context"
	"strings"

	"bankdash/internal/amqp"
	"bankdash/internal/bankapi"
)

// DefaultAccountType is used when the form leaves the type empty.
const DefaultAccountType = "savings"

type AccountAPI interface {
	AddAccount(ctx context.Context, token string, req bankapi.AddAccountRequest) error
}

type AddAccountForm struct {
	Name string
	Type string
}

type AccountController struct {
	api  AccountAPI
	deps Deps
}

func NewAccountController(api AccountAPI, deps Deps) *AccountController {
	return &AccountController{api: api, deps: deps.withDefaults()}
}

// Add opens a new account and refreshes the outlet.
func (c *AccountController) Add(ctx context.Context, sessionID string, outlet OutletContext, form AddAccountForm) Result {
	var res Result
	name := strings.TrimSpace(form.Name)
	if name == "" {
		res.fieldError(FieldAccountName, MsgAccountNameNeeded)
		return res
	}
	kind := strings.ToLower(strings.TrimSpace(form.Type))
	if kind == "" {
		kind = DefaultAccountType
	}

	done, ok := c.deps.Flights.Begin(sessionID, ActionAddAccount)
	if !ok {
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
	res.Err = c.api.AddAccount(ctx, token, bankapi.AddAccountRequest{AccountName: name, Type: kind})
	if res.Err != nil {
		res.notify(KindError, errorMessage(res.Err), ActionNotificationDuration)
	} else {
		res.notify(KindSuccess, MsgAccountAdded, ActionNotificationDuration)
	}
	done()

	c.deps.finish(ctx, &res, outlet, amqp.NewActivityMessage(amqp.KindAddAccount, sessionID, "", "", res.Err))
	return res
}
