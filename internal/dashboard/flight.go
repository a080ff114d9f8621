package dashboard

import "sync"

// Actions tracked by Flights.
const (
	ActionTransfer   = "transfer"
	ActionSearch     = "search"
	ActionSetPrimary = "set_primary"
	ActionAddAccount = "add_account"
)

// Flights tracks which actions are pending per session. Each action has its
// own flag, so different actions can be pending at once.
type Flights struct {
	mu     sync.Mutex
	active map[flightKey]struct{}
}

type flightKey struct {
	session string
	action  string
}

func NewFlights() *Flights {
	return &Flights{active: make(map[flightKey]struct{})}
}

// Begin marks action as pending. It returns false if it already was; the
// caller must call done exactly once when ok is true.
func (f *Flights) Begin(sessionID, action string) (done func(), ok bool) {
	k := flightKey{sessionID, action}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.active[k]; busy {
		return func() {}, false
	}
	f.active[k] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.active, k)
			f.mu.Unlock()
		})
	}, true
}

// Active reports whether action is pending for the session.
func (f *Flights) Active(sessionID, action string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.active[flightKey{sessionID, action}]
	return ok
}
