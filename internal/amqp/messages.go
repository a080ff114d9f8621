package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Activity kinds
const (
	KindTransfer   = "transfer"
	KindSetPrimary = "set_primary"
	KindAddAccount = "add_account"
)

// Outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ActivityMessage records one attempted dashboard action. It never carries
// the bearer token or the PIN.
type ActivityMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	SessionID string    `json:"session_id"`
	AccountID string    `json:"account_id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewActivityMessage(kind, sessionID, accountID, amount string, err error) *ActivityMessage {
	msg := &ActivityMessage{
		ID:        uuid.NewString(),
		Kind:      kind,
		SessionID: sessionID,
		AccountID: accountID,
		Amount:    amount,
		Outcome:   OutcomeSuccess,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		msg.Outcome = OutcomeFailure
		msg.Detail = err.Error()
	}
	return msg
}

func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
