package http

import (
	"net/http"
	"strings"

	"bankdash/internal/dashboard"
	"bankdash/internal/log"
	"bankdash/internal/session"
)

// validationStatus is 422 when the controller stopped before calling the
// bank because of the user's input, 200 otherwise. app.js swaps 422s.
func validationStatus(res dashboard.Result) int {
	if !res.Called && (res.Alert != "" || len(res.FieldErrors) > 0) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	sid := actionSession(r)
	form := ParseTransferForm(r.PostForm)
	outlet := s.deps.State.Outlet(sid)

	res := s.deps.Transfer.Submit(ctx, sid, outlet, form)
	s.appMetrics.record(res, &s.appMetrics.transfers, &s.appMetrics.transferFailures)

	if !isHTMX(r) {
		redirect(w, r, "/transactions")
		return
	}

	snap, _ := s.deps.State.Snapshot(sid)
	data := s.transferForm(sid, snap, form)
	data.Errors = res.FieldErrors
	if res.Called {
		if res.Err == nil {
			data.Form = dashboard.TransferForm{SenderAccountID: form.SenderAccountID}
			data.OutcomeKind = dashboard.KindSuccess
			data.Outcome = dashboard.MsgTransferCompleted
		} else {
			data.OutcomeKind = dashboard.KindError
			data.Outcome = res.Notifications[0].Message
		}
	}
	data.Form.Pin = ""

	b := NewHTMXResponse().Status(validationStatus(res)).Result(res)
	if res.Called {
		b.TriggerDashboardRefresh(form.SenderAccountID)
	}
	s.render(w, r, b, "transfer_form", data)
}

func (s *Server) handleRecipientSearch(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	q := r.URL.Query()
	phone := strings.TrimSpace(sanitizeInput(q.Get("phone")))
	if phone == "" {
		phone = strings.TrimSpace(sanitizeInput(q.Get("receiverPhone")))
	}

	sid := actionSession(r)
	user, res := s.deps.Lookup.Search(r.Context(), sid, phone)
	s.appMetrics.record(res, &s.appMetrics.lookups, nil)

	data := lookupData{
		Phone: phone,
		Error: res.FieldError(dashboard.FieldReceiverPhone),
		Found: res.Called && res.Err == nil,
		User:  user,
	}
	if len(res.Notifications) > 0 {
		data.Message = res.Notifications[0].Message
		data.Kind = res.Notifications[0].Kind
	}
	s.render(w, r, NewHTMXResponse().Status(validationStatus(res)).Result(res), "lookup_result", data)
}

func (s *Server) handleSetPrimary(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	sid := actionSession(r)
	accountID := strings.TrimSpace(sanitizeInput(r.PostForm.Get("accountId")))

	res := s.deps.Primary.SetPrimary(ctx, sid, s.deps.State.Outlet(sid), accountID)
	s.appMetrics.record(res, &s.appMetrics.primaryChanges, nil)

	if !isHTMX(r) {
		redirect(w, r, "/?account="+accountID)
		return
	}

	snap, _ := s.deps.State.Snapshot(sid)
	s.render(w, r, NewHTMXResponse().Result(res), "overview", s.overview(sid, snap, accountID))
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	sid := actionSession(r)
	form := ParseAddAccountForm(r.PostForm)

	res := s.deps.Accounts.Add(ctx, sid, s.deps.State.Outlet(sid), form)
	s.appMetrics.record(res, &s.appMetrics.accountsAdded, nil)

	if !isHTMX(r) {
		redirect(w, r, "/")
		return
	}

	data := addAccountData{Form: form, Errors: res.FieldErrors}
	b := NewHTMXResponse().Status(validationStatus(res)).Result(res)
	if res.Called {
		b.TriggerDashboardRefresh("")
		if res.Err == nil {
			data.Form = dashboard.AddAccountForm{}
			b.TriggerFormReset()
		}
	}
	s.render(w, r, b, "add_account_form", data)
}

// handleSessionCreate stores a bearer token under a fresh session id. The
// token is checked with a first refresh; a token the bank rejects is not kept.
func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(w, r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentSession)
	page := loginPage{Layout: layoutData{Title: "Sign in", Active: "login"}}

	token := session.NormalizeToken(sanitizeInput(r.PostForm.Get("token")))
	if token == "" {
		page.Error = "Please paste your access token."
		s.render(w, r, NewHTMXResponse().Status(http.StatusUnprocessableEntity), "login.html", page)
		return
	}

	if old := sessionID(r); old != "" {
		_ = s.deps.Tokens.DeleteToken(ctx, old)
		s.deps.State.Forget(old)
	}

	sid := session.NewID()
	if err := s.deps.Tokens.SaveToken(ctx, sid, token); err != nil {
		logger.ErrorContext(ctx, "Failed to store token", log.NewFields().WithSession(sid).WithError(err).ToSlice()...)
		page.Error = "Could not start a session. Please try again."
		s.render(w, r, NewHTMXResponse().Status(http.StatusInternalServerError), "login.html", page)
		return
	}

	if _, err := s.deps.State.Refresh(ctx, sid); err != nil && dashboard.IsAuthError(err) {
		_ = s.deps.Tokens.DeleteToken(ctx, sid)
		logger.WarnContext(ctx, "Token rejected by the bank", log.NewFields().WithSession(sid).WithError(err).ToSlice()...)
		page.Error = "The bank rejected this token."
		s.render(w, r, NewHTMXResponse().Status(http.StatusUnauthorized), "login.html", page)
		return
	}

	logger.InfoContext(ctx, "Session started", log.NewFields().WithSession(sid).ToSlice()...)
	s.setSessionCookie(w, sid)
	redirect(w, r, "/")
}

func (s *Server) handleSessionLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if sid := sessionID(r); sid != "" {
		if err := s.deps.Tokens.DeleteToken(r.Context(), sid); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to delete token",
				log.NewFields().WithSession(sid).WithError(err).ToSlice()...)
		}
		s.deps.State.Forget(sid)
	}
	s.clearSessionCookie(w)
	redirect(w, r, "/login")
}
