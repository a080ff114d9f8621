package dashboard

import (
	"errors"
	"time"

	"bankdash/internal/bankapi"
	"bankdash/internal/session"
)

// Notification kinds, matching the client-side toast styles.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindWarning = "warning"
	KindInfo    = "info"
)

const (
	// ActionNotificationDuration is how long action outcomes stay visible.
	ActionNotificationDuration = 5 * time.Second
	// DefaultNotificationDuration is used for everything else.
	DefaultNotificationDuration = 3 * time.Second
)

// User-facing messages.
const (
	MsgFillAllDetails    = "Please fill all the details before transferring."
	MsgPhoneTenDigits    = "Receiver phone number must be 10 digits."
	MsgInvalidAmount     = "Amount must be a number."
	MsgInvalidPin        = "PIN must be numeric."
	MsgTransferCompleted = "Transfer completed"
	MsgTransferBusy      = "Transfer already in progress"
	MsgUserFound         = "User found"
	MsgUserNotFound      = "User not found"
	MsgSearchBusy        = "Search already in progress"
	MsgPrimaryUpdated    = "Primary account updated"
	MsgPrimaryBusy       = "Primary account update already in progress"
	MsgAccountAdded      = "Account added"
	MsgAccountNameNeeded = "Account name is required."
	MsgUnauthorized      = "Unauthorized"
	MsgRefreshFailed     = "Could not refresh account data"
)

// Form field names used for inline errors.
const (
	FieldReceiverPhone = "receiverPhone"
	FieldAmount        = "amount"
	FieldPin           = "pin"
	FieldAccountName   = "accountName"
)

// Notification is a transient toast.
type Notification struct {
	Kind     string
	Message  string
	Duration time.Duration
}

// Result is the outcome of one controller invocation. Errors never escape a
// controller; they are folded into Alert, FieldErrors or Notifications.
type Result struct {
	// Alert is a blocking message the user has to dismiss.
	Alert         string
	FieldErrors   map[string]string
	Notifications []Notification
	// Called reports whether the banking API was contacted.
	Called     bool
	Err        error
	RefreshErr error
}

// OK reports whether the action went through without any error.
func (r Result) OK() bool {
	return r.Alert == "" && len(r.FieldErrors) == 0 && r.Err == nil
}

// FieldError returns the inline error for field, if any.
func (r Result) FieldError(field string) string {
	return r.FieldErrors[field]
}

func (r *Result) fieldError(field, msg string) {
	if r.FieldErrors == nil {
		r.FieldErrors = make(map[string]string)
	}
	r.FieldErrors[field] = msg
}

func (r *Result) notify(kind, msg string, d time.Duration) {
	r.Notifications = append(r.Notifications, Notification{Kind: kind, Message: msg, Duration: d})
}

// refreshed records the outcome of the post-action refresh. A refresh that
// failed for lack of a token adds no toast: the action already reported it.
func (r *Result) refreshed(err error) {
	if err == nil {
		return
	}
	r.RefreshErr = err
	if IsAuthError(err) {
		return
	}
	r.notify(KindWarning, MsgRefreshFailed, DefaultNotificationDuration)
}

// IsAuthError reports whether err means the user has to sign in again.
func IsAuthError(err error) bool {
	return errors.Is(err, session.ErrNoToken) ||
		errors.Is(err, bankapi.ErrNoToken) ||
		errors.Is(err, bankapi.ErrUnauthorized)
}

// errorMessage is the text shown for a failed call: Unauthorized for a
// missing token, the server payload verbatim otherwise.
func errorMessage(err error) string {
	if errors.Is(err, session.ErrNoToken) {
		return MsgUnauthorized
	}
	return bankapi.Message(err)
}
