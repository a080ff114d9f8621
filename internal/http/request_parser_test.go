package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"bankdash/internal/dashboard"
	"bankdash/internal/txview"
)

func TestParseCriteria(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  txview.Criteria
	}{
		{
			name:  "empty query is page one with no filters",
			query: url.Values{},
			want:  txview.Criteria{Page: 1},
		},
		{
			name:  "all filters",
			query: url.Values{"status": {"completed"}, "account": {"A1"}, "month": {"2024-05"}, "page": {"3"}},
			want:  txview.Criteria{Status: "completed", Account: "A1", Month: "2024-05", Page: 3},
		},
		{
			name:  "malformed page",
			query: url.Values{"page": {"two"}},
			want:  txview.Criteria{Page: 1},
		},
		{
			name:  "negative page",
			query: url.Values{"page": {"-4"}},
			want:  txview.Criteria{Page: 1},
		},
		{
			name:  "invalid month is kept",
			query: url.Values{"month": {"May"}},
			want:  txview.Criteria{Month: "May", Page: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCriteria(tt.query, time.UTC)
			tt.want.Location = time.UTC
			if got != tt.want {
				t.Errorf("ParseCriteria() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCriteriaQuery(t *testing.T) {
	c := txview.Criteria{Status: txview.AllStatuses, Account: "A1", Month: "2024-05", Page: 2}

	if got := CriteriaQuery(c, 0); got != "account=A1&month=2024-05&page=2" {
		t.Errorf("CriteriaQuery(c, 0) = %q", got)
	}
	if got := CriteriaQuery(c, 1); got != "account=A1&month=2024-05" {
		t.Errorf("CriteriaQuery(c, 1) = %q", got)
	}
	if got := CriteriaQuery(txview.Criteria{Status: "failed"}, 4); got != "page=4&status=failed" {
		t.Errorf("CriteriaQuery(status, 4) = %q", got)
	}
	if got := historyURL(txview.Criteria{}, 1); got != "/ui/transactions" {
		t.Errorf("historyURL = %q", got)
	}
}

func TestParseTransferForm(t *testing.T) {
	form := url.Values{
		"receiverPhone":   {" 1234567890 "},
		"amount":          {"12.50"},
		"pin":             {"1234"},
		"senderAccountId": {"A2"},
	}

	got := ParseTransferForm(form)
	want := dashboard.TransferForm{ReceiverPhone: "1234567890", Amount: "12.50", Pin: "1234", SenderAccountID: "A2"}
	if got != want {
		t.Errorf("ParseTransferForm() = %+v, want %+v", got, want)
	}
}

func TestParseAddAccountForm(t *testing.T) {
	got := ParseAddAccountForm(url.Values{"accountName": {"Travel"}, "type": {"checking"}})
	if got.Name != "Travel" || got.Type != "checking" {
		t.Errorf("ParseAddAccountForm() = %+v", got)
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		allowed    []string
		wantResult bool
	}{
		{"POST allowed", http.MethodPost, []string{http.MethodPost}, false},
		{"GET not allowed", http.MethodGet, []string{http.MethodPost}, true},
		{"HEAD allowed among several", http.MethodHead, []string{http.MethodGet, http.MethodHead}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireMethod(req, tt.allowed...)
			if (result != nil) != tt.wantResult {
				t.Errorf("RequireMethod() returned %v, wantResult %v", result != nil, tt.wantResult)
			}
		})
	}

	if RequireGET(httptest.NewRequest(http.MethodHead, "/", nil)) != nil {
		t.Error("RequireGET should accept HEAD")
	}
}

func TestParseFormOrFail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("key=value"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if resp := ParseFormOrFail(httptest.NewRecorder(), req); resp != nil {
		t.Fatal("ParseFormOrFail() returned error for valid form")
	}
	if req.FormValue("key") != "value" {
		t.Errorf("FormValue(key) = %q", req.FormValue("key"))
	}

	big := strings.NewReader("key=" + strings.Repeat("x", maxFormBytes+1))
	req = httptest.NewRequest(http.MethodPost, "/test", big)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	resp := ParseFormOrFail(w, req)
	if resp == nil {
		t.Fatal("ParseFormOrFail() accepted an oversized body")
	}
	resp.Write(w)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestIsHTMX(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTMX(req) {
		t.Error("plain request reported as htmx")
	}
	req.Header.Set("HX-Request", "true")
	if !isHTMX(req) {
		t.Error("htmx request not detected")
	}
}
