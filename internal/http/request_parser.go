// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bankdash/internal/dashboard"
	"bankdash/internal/txview"
)

// maxFormBytes bounds every form body the dashboard accepts.
const maxFormBytes = 64 << 10

// ParseCriteria reads the history filters from a query string. Missing or
// malformed page numbers mean page 1; the month is kept verbatim so an
// invalid value filters everything out instead of being silently dropped.
func ParseCriteria(query url.Values, loc *time.Location) txview.Criteria {
	c := txview.Criteria{
		Status:   strings.TrimSpace(query.Get("status")),
		Account:  strings.TrimSpace(query.Get("account")),
		Month:    strings.TrimSpace(query.Get("month")),
		Page:     1,
		Location: loc,
	}
	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.Page = p
		}
	}
	return c
}

// CriteriaQuery encodes c for links, leaving empty filters out. page
// overrides c.Page when positive.
func CriteriaQuery(c txview.Criteria, page int) string {
	q := url.Values{}
	if c.Status != "" && c.Status != txview.AllStatuses {
		q.Set("status", c.Status)
	}
	if c.Account != "" {
		q.Set("account", c.Account)
	}
	if c.Month != "" {
		q.Set("month", c.Month)
	}
	if page <= 0 {
		page = c.Page
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	return q.Encode()
}

// ParseTransferForm reads the transfer form fields.
func ParseTransferForm(form url.Values) dashboard.TransferForm {
	return dashboard.TransferForm{
		ReceiverPhone:   strings.TrimSpace(sanitizeInput(form.Get("receiverPhone"))),
		Amount:          strings.TrimSpace(sanitizeInput(form.Get("amount"))),
		Pin:             strings.TrimSpace(sanitizeInput(form.Get("pin"))),
		SenderAccountID: strings.TrimSpace(sanitizeInput(form.Get("senderAccountId"))),
	}
}

// ParseAddAccountForm reads the add-account form fields.
func ParseAddAccountForm(form url.Values) dashboard.AddAccountForm {
	return dashboard.AddAccountForm{
		Name: sanitizeInput(form.Get("accountName")),
		Type: sanitizeInput(form.Get("type")),
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET also accepts HEAD.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) *HTMXResponseBuilder {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
