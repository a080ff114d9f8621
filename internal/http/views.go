package http

import (
	"html/template"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"bankdash/internal/core"
	"bankdash/internal/dashboard"
	"bankdash/internal/txview"
)

type layoutData struct {
	Title    string
	Active   string
	User     core.UserDetails
	SignedIn bool
	// Warning is shown in a banner above the page, e.g. a failed refresh.
	Warning string
	Loading bool
}

type overviewData struct {
	Accounts      []core.Account
	Selected      core.Account
	IsPrimary     bool
	CanSetPrimary bool
	Pending       bool
	Total         decimal.Decimal
	Flow          txview.Flow
	AddAccount    addAccountData
}

type addAccountData struct {
	Form   dashboard.AddAccountForm
	Errors map[string]string
}

type transferFormData struct {
	Form     dashboard.TransferForm
	Errors   map[string]string
	Accounts []core.Account
	Busy     bool
	// Outcome is the inline message under the form after a call.
	Outcome     string
	OutcomeKind string
}

type lookupData struct {
	Phone string
	// Error is the inline phone error; no lookup was made.
	Error   string
	Found   bool
	User    core.UserDetails
	Message string
	Kind    string
}

type historyData struct {
	View           txview.View
	Accounts       []core.Account
	Statuses       []core.TransactionStatus
	AllStatuses    string
	Query          string
	SelfURL        string
	PrevURL        string
	NextURL        string
	NoTransactions bool
}

type homePage struct {
	Layout   layoutData
	Overview overviewData
}

type transactionsPage struct {
	Layout   layoutData
	Transfer transferFormData
	History  historyData
}

type loginPage struct {
	Layout layoutData
	Error  string
}

type notFoundPage struct {
	Layout layoutData
	Path   string
}

func (s *Server) layout(title, active string, snap dashboard.Snapshot, sessionID string) layoutData {
	return layoutData{
		Title:    title,
		Active:   active,
		User:     snap.Profile.UserDetails,
		SignedIn: sessionID != "",
		Loading:  sessionID != "" && s.deps.State.Loading(sessionID),
	}
}

func (s *Server) overview(sessionID string, snap dashboard.Snapshot, accountID string) overviewData {
	outlet := s.deps.State.Outlet(sessionID)
	profile := snap.Profile
	selected := dashboard.SelectedAccount(profile, accountID)
	return overviewData{
		Accounts:      profile.Accounts,
		Selected:      selected,
		IsPrimary:     profile.IsPrimary(selected.ID),
		CanSetPrimary: s.deps.Primary.CanSetPrimary(sessionID, outlet, selected.ID),
		Pending:       s.deps.Primary.Busy(sessionID),
		Total:         totalBalance(profile.Accounts),
		Flow: txview.MonthlyFlow(snap.Transactions, selected.ID,
			txview.CurrentMonth(s.now(), s.opts.Location), s.opts.Location),
	}
}

func (s *Server) history(snap dashboard.Snapshot, c txview.Criteria) historyData {
	v := txview.Build(snap.Transactions, c)
	h := historyData{
		View:           v,
		Accounts:       snap.Profile.Accounts,
		Statuses:       core.Statuses(),
		AllStatuses:    txview.AllStatuses,
		Query:          CriteriaQuery(v.Criteria, 0),
		SelfURL:        historyURL(v.Criteria, v.Page),
		NoTransactions: len(snap.Transactions) == 0,
	}
	if v.HasPrev {
		h.PrevURL = historyURL(v.Criteria, v.PrevPage())
	}
	if v.HasNext {
		h.NextURL = historyURL(v.Criteria, v.NextPage())
	}
	return h
}

func historyURL(c txview.Criteria, page int) string {
	u := url.URL{Path: "/ui/transactions", RawQuery: CriteriaQuery(c, page)}
	return u.String()
}

func (s *Server) transferForm(sessionID string, snap dashboard.Snapshot, form dashboard.TransferForm) transferFormData {
	if form.SenderAccountID == "" {
		form.SenderAccountID = snap.Profile.PrimaryAccountID
	}
	return transferFormData{
		Form:     form,
		Accounts: snap.Profile.Accounts,
		Busy:     s.deps.Transfer.Busy(sessionID),
	}
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":      formatMoney,
		"capitalize": core.Capitalize,
		"date":       func(t time.Time) string { return formatDate(t, s.opts.Location) },
		"clock":      func(t time.Time) string { return formatClock(t, s.opts.Location) },
	}
}
