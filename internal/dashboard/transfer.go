package dashboard

import (
	"context"
	"encoding/json"

	"bankdash/internal/amqp"
	"bankdash/internal/bankapi"
	"bankdash/internal/core"
)

type TransferAPI interface {
	Transfer(ctx context.Context, token string, req bankapi.TransferRequest) error
}

// TransferForm holds the raw form values.
type TransferForm struct {
	ReceiverPhone   string
	Amount          string
	Pin             string
	SenderAccountID string
}

// Validate checks the form in order: completeness (blocking alert), phone
// format, then numeric coercion of amount and PIN (inline errors). The
// request is only meaningful when the returned Result is OK.
func (f TransferForm) Validate() (bankapi.TransferRequest, Result) {
	var res Result
	if f.ReceiverPhone == "" || f.Amount == "" || f.Pin == "" {
		res.Alert = MsgFillAllDetails
		return bankapi.TransferRequest{}, res
	}

	phone, err := core.ParsePhone(f.ReceiverPhone)
	if err != nil {
		res.fieldError(FieldReceiverPhone, MsgPhoneTenDigits)
		return bankapi.TransferRequest{}, res
	}
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		res.fieldError(FieldAmount, MsgInvalidAmount)
	}
	pin, err := core.ParsePin(f.Pin)
	if err != nil {
		res.fieldError(FieldPin, MsgInvalidPin)
	}
	if !res.OK() {
		return bankapi.TransferRequest{}, res
	}

	return bankapi.TransferRequest{
		Amount:              json.Number(amount.String()),
		SenderAccountID:     f.SenderAccountID,
		ReceiverPhoneNumber: phone,
		Pin:                 pin,
	}, res
}

type TransferController struct {
	api  TransferAPI
	deps Deps
}

func NewTransferController(api TransferAPI, deps Deps) *TransferController {
	return &TransferController{api: api, deps: deps.withDefaults()}
}

// Busy reports whether a transfer is pending for the session.
func (c *TransferController) Busy(sessionID string) bool {
	return c.deps.Flights.Active(sessionID, ActionTransfer)
}

// Submit validates form and, if it is valid, performs the transfer. An empty
// sender account falls back to the primary account, then the first one.
func (c *TransferController) Submit(ctx context.Context, sessionID string, outlet OutletContext, form TransferForm) Result {
	req, res := form.Validate()
	if !res.OK() {
		return res
	}

	done, ok := c.deps.Flights.Begin(sessionID, ActionTransfer)
	if !ok {
		res.notify(KindWarning, MsgTransferBusy, DefaultNotificationDuration)
		return res
	}
	defer done()

	if req.SenderAccountID == "" && outlet != nil {
		profile := outlet.Profile()
		req.SenderAccountID = profile.PrimaryAccountID
		if req.SenderAccountID == "" {
			req.SenderAccountID = profile.DefaultAccount().ID
		}
	}

	token, err := c.deps.Tokens.Token(ctx, sessionID)
	if err != nil {
		res.Err = err
		res.notify(KindError, errorMessage(err), ActionNotificationDuration)
		done()
		c.deps.refresh(ctx, &res, outlet)
		return res
	}

	res.Called = true
	res.Err = c.api.Transfer(ctx, token, req)
	if res.Err != nil {
		res.notify(KindError, errorMessage(res.Err), ActionNotificationDuration)
	} else {
		res.notify(KindSuccess, MsgTransferCompleted, ActionNotificationDuration)
	}
	done()

	c.deps.finish(ctx, &res, outlet,
		amqp.NewActivityMessage(amqp.KindTransfer, sessionID, req.SenderAccountID, string(req.Amount), res.Err))
	return res
}
