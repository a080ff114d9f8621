package dashboard

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bankdash/internal/amqp"
	"bankdash/internal/bankapi"
	"bankdash/internal/log"
	"bankdash/internal/session"
)

const sess = "11111111-2222-3333-4444-555555555555"

func newTransferFixture(t *testing.T) (*TransferController, *mockBank, *fakeOutlet, *recordingPublisher, *session.MemoryStore) {
	t.Helper()
	bank := &mockBank{}
	tokens := session.NewMemoryStore()
	require.NoError(t, tokens.SaveToken(context.Background(), sess, "tok"))
	pub := &recordingPublisher{}
	c := NewTransferController(bank, Deps{Tokens: tokens, Publisher: pub, Logger: log.Discard()})
	return c, bank, &fakeOutlet{profile: twoAccountProfile()}, pub, tokens
}

func TestTransferHappyPath(t *testing.T) {
	c, bank, outlet, pub, _ := newTransferFixture(t)
	want := bankapi.TransferRequest{
		Amount:              json.Number("150"),
		SenderAccountID:     "A1",
		ReceiverPhoneNumber: 9876543210,
		Pin:                 1234,
	}
	bank.On("Transfer", mock.Anything, "tok", want).Return(nil).Once()

	res := c.Submit(context.Background(), sess, outlet, TransferForm{
		ReceiverPhone: "9876543210", Amount: "150", Pin: "1234", SenderAccountID: "A1",
	})

	bank.AssertExpectations(t)
	assert.True(t, res.OK())
	assert.True(t, res.Called)
	require.Len(t, res.Notifications, 1)
	assert.Equal(t, Notification{Kind: KindSuccess, Message: MsgTransferCompleted, Duration: ActionNotificationDuration}, res.Notifications[0])
	assert.Equal(t, 1, outlet.Refreshes())
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, amqp.OutcomeSuccess, pub.msgs[0].Outcome)
	assert.Equal(t, "150", pub.msgs[0].Amount)
	assert.False(t, c.Busy(sess))
}

func TestTransferServerErrorShownVerbatimAndRefreshes(t *testing.T) {
	c, bank, outlet, pub, _ := newTransferFixture(t)
	bank.On("Transfer", mock.Anything, "tok", mock.Anything).
		Return(&bankapi.APIError{StatusCode: 400, Body: "Insufficient balance"}).Once()

	res := c.Submit(context.Background(), sess, outlet, TransferForm{
		ReceiverPhone: "9876543210", Amount: "1000000", Pin: "1234", SenderAccountID: "A1",
	})

	assert.False(t, res.OK())
	require.Len(t, res.Notifications, 1)
	assert.Equal(t, KindError, res.Notifications[0].Kind)
	assert.Equal(t, "Insufficient balance", res.Notifications[0].Message)
	assert.Equal(t, ActionNotificationDuration, res.Notifications[0].Duration)
	assert.Equal(t, 1, outlet.Refreshes())
	assert.Equal(t, amqp.OutcomeFailure, pub.msgs[0].Outcome)
}

func TestTransferValidationMakesNoCall(t *testing.T) {
	tests := []struct {
		name      string
		form      TransferForm
		wantAlert string
		wantField string
		wantMsg   string
	}{
		{
			name:      "empty amount",
			form:      TransferForm{ReceiverPhone: "9876543210", Pin: "1234"},
			wantAlert: MsgFillAllDetails,
		},
		{
			name:      "empty pin",
			form:      TransferForm{ReceiverPhone: "9876543210", Amount: "10"},
			wantAlert: MsgFillAllDetails,
		},
		{
			name:      "short phone",
			form:      TransferForm{ReceiverPhone: "12345", Amount: "10", Pin: "1234"},
			wantField: FieldReceiverPhone,
			wantMsg:   MsgPhoneTenDigits,
		},
		{
			name:      "phone with letters",
			form:      TransferForm{ReceiverPhone: "12345abcde", Amount: "10", Pin: "1234"},
			wantField: FieldReceiverPhone,
			wantMsg:   MsgPhoneTenDigits,
		},
		{
			name:      "non-numeric amount",
			form:      TransferForm{ReceiverPhone: "9876543210", Amount: "ten", Pin: "1234"},
			wantField: FieldAmount,
			wantMsg:   MsgInvalidAmount,
		},
		{
			name:      "comma in amount",
			form:      TransferForm{ReceiverPhone: "9876543210", Amount: "1,000", Pin: "1234", SenderAccountID: "A1"},
			wantField: FieldAmount,
			wantMsg:   MsgInvalidAmount,
		},
		{
			name:      "non-numeric pin",
			form:      TransferForm{ReceiverPhone: "9876543210", Amount: "10", Pin: "12a4"},
			wantField: FieldPin,
			wantMsg:   MsgInvalidPin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bank, outlet, pub, _ := newTransferFixture(t)

			res := c.Submit(context.Background(), sess, outlet, tt.form)

			bank.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything)
			assert.False(t, res.Called)
			assert.Equal(t, tt.wantAlert, res.Alert)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantMsg, res.FieldError(tt.wantField))
			}
			assert.Zero(t, outlet.Refreshes())
			assert.Empty(t, pub.msgs)
		})
	}
}

func TestTransferWithoutTokenIsUnauthorized(t *testing.T) {
	c, bank, outlet, _, tokens := newTransferFixture(t)
	require.NoError(t, tokens.DeleteToken(context.Background(), sess))

	res := c.Submit(context.Background(), sess, outlet, TransferForm{
		ReceiverPhone: "9876543210", Amount: "10", Pin: "1234",
	})

	bank.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, res.Called)
	assert.True(t, IsAuthError(res.Err))
	require.Len(t, res.Notifications, 1)
	assert.Equal(t, MsgUnauthorized, res.Notifications[0].Message)
	assert.Equal(t, 1, outlet.Refreshes())
}

func TestTransferWithoutTokenRefreshFailureAddsNoSecondToast(t *testing.T) {
	c, _, outlet, _, tokens := newTransferFixture(t)
	require.NoError(t, tokens.DeleteToken(context.Background(), sess))
	outlet.refreshErr = session.ErrNoToken

	res := c.Submit(context.Background(), sess, outlet, TransferForm{
		ReceiverPhone: "9876543210", Amount: "10", Pin: "1234",
	})

	assert.Equal(t, 1, outlet.Refreshes())
	assert.ErrorIs(t, res.RefreshErr, session.ErrNoToken)
	require.Len(t, res.Notifications, 1)
	assert.Equal(t, MsgUnauthorized, res.Notifications[0].Message)
}

func TestTransferDefaultsSenderToPrimary(t *testing.T) {
	c, bank, outlet, _, _ := newTransferFixture(t)
	outlet.profile.PrimaryAccountID = "A2"
	bank.On("Transfer", mock.Anything, "tok", mock.MatchedBy(func(r bankapi.TransferRequest) bool {
		return r.SenderAccountID == "A2"
	})).Return(nil).Once()

	res := c.Submit(context.Background(), sess, outlet, TransferForm{
		ReceiverPhone: "9876543210", Amount: "12.50", Pin: "0007",
	})

	bank.AssertExpectations(t)
	assert.True(t, res.OK())
}

func TestTransferRejectsConcurrentSubmit(t *testing.T) {
	c, bank, outlet, _, _ := newTransferFixture(t)
	done, ok := c.deps.Flights.Begin(sess, ActionTransfer)
	require.True(t, ok)
	defer done()

	res := c.Submit(context.Background(), sess, outlet, TransferForm{
		ReceiverPhone: "9876543210", Amount: "10", Pin: "1234",
	})

	bank.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, res.Notifications, 1)
	assert.Equal(t, MsgTransferBusy, res.Notifications[0].Message)
	assert.True(t, c.Busy(sess))
}

func TestTransferRefreshFailureIsSurfaced(t *testing.T) {
	c, bank, outlet, _, _ := newTransferFixture(t)
	outlet.refreshErr = &bankapi.APIError{StatusCode: 500}
	bank.On("Transfer", mock.Anything, "tok", mock.Anything).Return(nil).Once()

	res := c.Submit(context.Background(), sess, outlet, TransferForm{
		ReceiverPhone: "9876543210", Amount: "10", Pin: "1234",
	})

	assert.True(t, res.OK())
	assert.Error(t, res.RefreshErr)
	require.Len(t, res.Notifications, 2)
	assert.Equal(t, KindSuccess, res.Notifications[0].Kind)
	assert.Equal(t, Notification{Kind: KindWarning, Message: MsgRefreshFailed, Duration: DefaultNotificationDuration}, res.Notifications[1])
}
