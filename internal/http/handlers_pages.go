package http

import (
	"net/http"
	"net/url"

	"bankdash/internal/dashboard"
	"bankdash/internal/log"
)

// loadSnapshot resolves the session and its snapshot for a page. It answers
// the request itself, by redirecting to /login, when the user is not signed
// in. A failed fetch still renders, with a warning over the stale data.
func (s *Server) loadSnapshot(w http.ResponseWriter, r *http.Request) (string, dashboard.Snapshot, string, bool) {
	sid := sessionID(r)
	if sid == "" {
		redirect(w, r, "/login")
		return "", dashboard.Snapshot{}, "", false
	}

	snap, err := s.deps.State.Ensure(r.Context(), sid)
	if err == nil {
		return sid, snap, "", true
	}
	if dashboard.IsAuthError(err) {
		redirect(w, r, "/login")
		return "", dashboard.Snapshot{}, "", false
	}

	log.FromContext(r.Context()).WarnContext(r.Context(), "Rendering with stale snapshot",
		log.NewFields().WithOperation(log.OpRender).WithSession(sid).WithError(err).ToSlice()...)
	return sid, snap, dashboard.MsgRefreshFailed, true
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.handleNotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	sid, snap, warning, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}

	data := homePage{
		Layout:   s.layout("Home", "home", snap, sid),
		Overview: s.overview(sid, snap, r.URL.Query().Get("account")),
	}
	data.Layout.Warning = warning
	s.render(w, r, NewHTMXResponse(), "home.html", data)
}

func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	sid, snap, warning, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}

	data := transactionsPage{
		Layout:   s.layout("Transactions", "transactions", snap, sid),
		Transfer: s.transferForm(sid, snap, dashboard.TransferForm{}),
		History:  s.history(snap, ParseCriteria(r.URL.Query(), s.opts.Location)),
	}
	data.Layout.Warning = warning
	s.render(w, r, NewHTMXResponse(), "transactions.html", data)
}

// handleOverviewPartial re-renders the account card and chart, when another
// account is picked or after a dashboard:refresh.
func (s *Server) handleOverviewPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	sid, snap, _, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}

	accountID := r.URL.Query().Get("account")
	data := s.overview(sid, snap, accountID)
	b := NewHTMXResponse()
	if data.Selected.ID != "" {
		b.Header("HX-Push-Url", "/?"+url.Values{"account": {data.Selected.ID}}.Encode())
	}
	s.render(w, r, b, "overview", data)
}

// handleHistoryPartial renders the filtered, paginated history table. The
// filters live in the query string, which htmx pushes to the address bar.
func (s *Server) handleHistoryPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	_, snap, _, ok := s.loadSnapshot(w, r)
	if !ok {
		return
	}

	data := s.history(snap, ParseCriteria(r.URL.Query(), s.opts.Location))
	b := NewHTMXResponse()
	if isHTMX(r) {
		push := "/transactions"
		if data.Query != "" {
			push += "?" + data.Query
		}
		b.Header("HX-Push-Url", push)
	}
	s.render(w, r, b, "history", data)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, NewHTMXResponse(), "login.html", loginPage{
		Layout: layoutData{Title: "Sign in", Active: "login"},
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, NewHTMXResponse().Status(http.StatusNotFound), "notfound.html", notFoundPage{
		Layout: layoutData{Title: "Not found", SignedIn: sessionID(r) != ""},
		Path:   r.URL.Path,
	})
}
