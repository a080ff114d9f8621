// Package dashboard holds the per-session account state and the controllers
// behind every dashboard action.
//
// Pages never fetch on their own: they read the last Snapshot through an
// OutletContext and ask it to Refresh after a mutating action.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"bankdash/internal/cache"
	"bankdash/internal/core"
	"bankdash/internal/log"
	"bankdash/internal/session"
)

// Snapshot is the profile and transaction list as of FetchedAt.
type Snapshot struct {
	Profile      core.Profile
	Transactions []core.Transaction
	FetchedAt    time.Time
}

// Loaded reports whether the snapshot was ever fetched.
func (s Snapshot) Loaded() bool {
	return !s.FetchedAt.IsZero()
}

// Fetcher reads the two halves of a snapshot from the banking API.
type Fetcher interface {
	UserDetails(ctx context.Context, token string) (core.Profile, error)
	Transactions(ctx context.Context, token string) ([]core.Transaction, error)
}

// OutletContext is what pages and controllers see of the shared state.
type OutletContext interface {
	Profile() core.Profile
	Transactions() []core.Transaction
	Loading() bool
	Refresh(ctx context.Context) error
}

// StateProvider owns the per-session snapshots.
type StateProvider struct {
	fetcher Fetcher
	tokens  session.TokenStore
	cache   *cache.LRUCache[Snapshot]
	group   singleflight.Group
	logger  *log.Logger
	now     func() time.Time

	mu       sync.Mutex
	inFlight map[string]int
}

func NewStateProvider(fetcher Fetcher, tokens session.TokenStore, snapshots *cache.LRUCache[Snapshot], logger *log.Logger) *StateProvider {
	if logger == nil {
		logger = log.Default()
	}
	return &StateProvider{
		fetcher:  fetcher,
		tokens:   tokens,
		cache:    snapshots,
		logger:   logger.WithComponent(log.ComponentDashboard),
		now:      time.Now,
		inFlight: make(map[string]int),
	}
}

// Snapshot returns the cached snapshot for sessionID.
func (p *StateProvider) Snapshot(sessionID string) (Snapshot, bool) {
	return p.cache.Get(sessionID)
}

// Loading reports whether a refresh for sessionID is in progress.
func (p *StateProvider) Loading(sessionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight[sessionID] > 0
}

// Refresh re-fetches profile and transactions for sessionID. Concurrent calls
// for the same session share one fetch. On failure the previous snapshot is
// kept and the error returned.
func (p *StateProvider) Refresh(ctx context.Context, sessionID string) (Snapshot, error) {
	token, err := p.tokens.Token(ctx, sessionID)
	if err != nil {
		return p.stale(sessionID), err
	}

	v, err, _ := p.group.Do(sessionID, func() (any, error) {
		p.begin(sessionID)
		defer p.end(sessionID)
		return p.fetch(ctx, token)
	})
	if err != nil {
		p.logger.WarnContext(ctx, "Refresh failed, keeping previous snapshot",
			log.NewFields().WithOperation(log.OpRefresh).WithSession(sessionID).WithError(err).ToSlice()...)
		return p.stale(sessionID), err
	}

	snap := v.(Snapshot)
	p.cache.Set(sessionID, snap)
	return snap, nil
}

// Ensure returns the cached snapshot, fetching it first if there is none.
func (p *StateProvider) Ensure(ctx context.Context, sessionID string) (Snapshot, error) {
	if snap, ok := p.cache.Get(sessionID); ok {
		return snap, nil
	}
	return p.Refresh(ctx, sessionID)
}

// Forget drops the session's snapshot, on sign-out.
func (p *StateProvider) Forget(sessionID string) {
	p.cache.Delete(sessionID)
}

// Sessions returns how many session snapshots are cached.
func (p *StateProvider) Sessions() int {
	return p.cache.Size()
}

// Outlet binds the provider to one session.
func (p *StateProvider) Outlet(sessionID string) OutletContext {
	return &outlet{provider: p, sessionID: sessionID}
}

func (p *StateProvider) fetch(ctx context.Context, token string) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile, err := p.fetcher.UserDetails(gctx, token)
		if err != nil {
			return fmt.Errorf("fetch profile: %w", err)
		}
		snap.Profile = profile
		return nil
	})
	g.Go(func() error {
		txs, err := p.fetcher.Transactions(gctx, token)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.FetchedAt = p.now()
	return snap, nil
}

func (p *StateProvider) stale(sessionID string) Snapshot {
	snap, _ := p.cache.Get(sessionID)
	return snap
}

func (p *StateProvider) begin(sessionID string) {
	p.mu.Lock()
	p.inFlight[sessionID]++
	p.mu.Unlock()
}

func (p *StateProvider) end(sessionID string) {
	p.mu.Lock()
	if p.inFlight[sessionID] <= 1 {
		delete(p.inFlight, sessionID)
	} else {
		p.inFlight[sessionID]--
	}
	p.mu.Unlock()
}

type outlet struct {
	provider  *StateProvider
	sessionID string
}

func (o *outlet) Profile() core.Profile {
	snap, _ := o.provider.Snapshot(o.sessionID)
	return snap.Profile
}

func (o *outlet) Transactions() []core.Transaction {
	snap, _ := o.provider.Snapshot(o.sessionID)
	return snap.Transactions
}

func (o *outlet) Loading() bool {
	return o.provider.Loading(o.sessionID)
}

func (o *outlet) Refresh(ctx context.Context) error {
	_, err := o.provider.Refresh(ctx, o.sessionID)
	return err
}
