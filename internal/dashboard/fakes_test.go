package dashboard

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"bankdash/internal/amqp"
	"bankdash/internal/bankapi"
	"bankdash/internal/core"
)

type mockBank struct {
	mock.Mock
}

func (m *mockBank) Transfer(ctx context.Context, token string, req bankapi.TransferRequest) error {
	return m.Called(ctx, token, req).Error(0)
}

func (m *mockBank) SearchUser(ctx context.Context, token, phone string) (core.UserDetails, error) {
	args := m.Called(ctx, token, phone)
	return args.Get(0).(core.UserDetails), args.Error(1)
}

func (m *mockBank) SetPrimaryAccount(ctx context.Context, token, accountID string) error {
	return m.Called(ctx, token, accountID).Error(0)
}

func (m *mockBank) AddAccount(ctx context.Context, token string, req bankapi.AddAccountRequest) error {
	return m.Called(ctx, token, req).Error(0)
}

// fakeOutlet is an OutletContext with a fixed profile that counts refreshes.
type fakeOutlet struct {
	mu         sync.Mutex
	profile    core.Profile
	txs        []core.Transaction
	loading    bool
	refreshes  int
	refreshErr error
}

func (o *fakeOutlet) Profile() core.Profile            { return o.profile }
func (o *fakeOutlet) Transactions() []core.Transaction { return o.txs }
func (o *fakeOutlet) Loading() bool                    { return o.loading }

func (o *fakeOutlet) Refresh(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refreshes++
	return o.refreshErr
}

func (o *fakeOutlet) Refreshes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refreshes
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ActivityMessage
}

func (p *recordingPublisher) PublishActivity(_ context.Context, msg *amqp.ActivityMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func twoAccountProfile() core.Profile {
	return core.Profile{
		UserDetails:      core.UserDetails{FirstName: "jane", LastName: "doe"},
		Accounts:         []core.Account{{ID: "A1", AccountName: "Main"}, {ID: "A2", AccountName: "Savings"}},
		PrimaryAccountID: "A1",
	}
}
