package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bankdash/internal/backend"
	"bankdash/internal/bankapi"
	"bankdash/internal/cache"
	"bankdash/internal/core"
	"bankdash/internal/dashboard"
	"bankdash/internal/log"
	"bankdash/internal/session"
)

// fakeBank stands in for the banking API behind every controller.
type fakeBank struct {
	mu sync.Mutex

	profile  core.Profile
	txs      []core.Transaction
	fetchErr error
	tokens   []string

	transfers   []bankapi.TransferRequest
	transferErr error

	found     core.UserDetails
	searchErr error
	searched  []string

	primaryCalls []string
	added        []bankapi.AddAccountRequest
}

func newFakeBank() *fakeBank {
	return &fakeBank{
		profile: core.Profile{
			UserDetails: core.UserDetails{FirstName: "jane", LastName: "doe"},
			Accounts: []core.Account{
				{ID: "A1", AccountName: "Main", Balance: decimal.NewFromInt(1200), Type: "checking"},
				{ID: "A2", AccountName: "Rainy day", Balance: decimal.NewFromInt(300), Type: "savings"},
			},
			PrimaryAccountID: "A1",
		},
		txs: []core.Transaction{
			{ID: "TX-ALPHA", DebitID: "A1", CreditID: "A2", Amount: decimal.NewFromInt(50), TransactionType: "transfer",
				Status: core.StatusCompleted, Timestamp: core.Timestamp{Time: time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)}},
			{ID: "TX-BETA", DebitID: "A2", CreditID: "A1", Amount: decimal.NewFromInt(20), TransactionType: "transfer",
				Status: core.StatusPending, Timestamp: core.Timestamp{Time: time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)}},
		},
	}
}

func (b *fakeBank) UserDetails(_ context.Context, token string) (core.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = append(b.tokens, token)
	if b.fetchErr != nil {
		return core.Profile{}, b.fetchErr
	}
	p := b.profile
	p.Accounts = append([]core.Account(nil), b.profile.Accounts...)
	return p, nil
}

func (b *fakeBank) Transactions(context.Context, string) ([]core.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return append([]core.Transaction(nil), b.txs...), nil
}

func (b *fakeBank) Transfer(_ context.Context, _ string, req bankapi.TransferRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transfers = append(b.transfers, req)
	return b.transferErr
}

func (b *fakeBank) SearchUser(_ context.Context, _ string, phone string) (core.UserDetails, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searched = append(b.searched, phone)
	return b.found, b.searchErr
}

func (b *fakeBank) SetPrimaryAccount(_ context.Context, _ string, accountID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.primaryCalls = append(b.primaryCalls, accountID)
	b.profile.PrimaryAccountID = accountID
	return nil
}

func (b *fakeBank) AddAccount(_ context.Context, _ string, req bankapi.AddAccountRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.added = append(b.added, req)
	b.profile.Accounts = append(b.profile.Accounts, core.Account{ID: "A" + req.AccountName, AccountName: req.AccountName, Type: req.Type})
	return nil
}

func (b *fakeBank) transferCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.transfers)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	*Server
	bank    *fakeBank
	tokens  *session.MemoryStore
	flights *dashboard.Flights
}

func newTestServer(t *testing.T, bank *fakeBank, checks map[string]backend.Pinger) *testServer {
	t.Helper()
	logger := log.Discard()
	tokens := session.NewMemoryStore()
	state := dashboard.NewStateProvider(bank, tokens, cache.NewLRUCache[dashboard.Snapshot](16, time.Minute), logger)
	deps := dashboard.Deps{Tokens: tokens, Flights: dashboard.NewFlights(), Logger: logger}

	srv := NewServer(Deps{
		Tokens:   tokens,
		State:    state,
		Transfer: dashboard.NewTransferController(bank, deps),
		Lookup:   dashboard.NewLookupController(bank, deps),
		Primary:  dashboard.NewPrimaryController(bank, deps),
		Accounts: dashboard.NewAccountController(bank, deps),
		Checks:   checks,
	}, Options{
		Addr:               ":0",
		Location:           time.UTC,
		RateLimitPerMinute: 1000,
		Logger:             logger,
	})
	srv.now = func() time.Time { return time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { srv.rateLimiter.Stop() })
	return &testServer{Server: srv, bank: bank, tokens: tokens, flights: deps.Flights}
}

// signIn stores a token for a fresh session and returns its cookie.
func (ts *testServer) signIn(t *testing.T) *http.Cookie {
	t.Helper()
	sid := session.NewID()
	if err := ts.tokens.SaveToken(context.Background(), sid, "tok-123"); err != nil {
		t.Fatalf("save token: %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: sid}
}

func (ts *testServer) get(path string, cookie *http.Cookie, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return ts.do(req, cookie, htmx)
}

func (ts *testServer) post(path string, form url.Values, cookie *http.Cookie, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(req, cookie, htmx)
}

func (ts *testServer) do(req *http.Request, cookie *http.Cookie, htmx bool) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rr := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rr, req)
	return rr
}
