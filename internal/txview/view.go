// Package txview derives what the transaction history shows: a filtered,
// paginated view over the full transaction list.
//
// Everything here is a pure function of (transactions, criteria). Nothing is
// fetched or mutated, so the HTTP layer can rebuild the view on every render.
package txview

import (
	"fmt"
	"strings"
	"time"

	"bankdash/internal/core"
)

// PerPage is the fixed history page size.
const PerPage = 20

// AllStatuses is the status filter value that disables status filtering.
const AllStatuses = "All"

// Month identifies a calendar month. The zero value means "no month".
type Month struct {
	Year  int
	Month time.Month
}

// IsZero reports whether m is unset.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// String renders the month in the same YYYY-MM form it is parsed from.
func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Contains reports whether t falls in the month, read in loc.
func (m Month) Contains(t time.Time, loc *time.Location) bool {
	t = t.In(loc)
	return t.Year() == m.Year && t.Month() == m.Month
}

// ParseMonth parses the value of an <input type="month"> field ("2024-03").
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Criteria are the user-selected filters plus the page cursor.
// Empty fields disable the corresponding filter.
type Criteria struct {
	Status  string
	Account string
	Month   string
	Page    int

	// Location is used to read transaction timestamps; nil means UTC.
	Location *time.Location
}

// Row is one rendered history line.
type Row struct {
	Serial      int
	Transaction core.Transaction
}

// View is the derived state for one render of the history table.
type View struct {
	Criteria      Criteria
	Rows          []Row
	Page          int
	TotalPages    int
	FilteredCount int
	TotalCount    int
	HasPrev       bool
	HasNext       bool
}

// PrevPage and NextPage are the cursors the navigation controls submit.
// Reaching past either end is prevented by disabling the control, not by
// clamping here.
func (v View) PrevPage() int { return v.Page - 1 }
func (v View) NextPage() int { return v.Page + 1 }

// Empty reports that there are no transactions at all, filtered or not.
func (v View) Empty() bool { return v.TotalCount == 0 }

// Filter keeps, in original order, the transactions matching every criterion.
//
// The account criterion matches the debit side only: a transaction credited
// to the account is not included.
func Filter(txs []core.Transaction, c Criteria) []core.Transaction {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}

	var month Month
	monthSet := strings.TrimSpace(c.Month) != ""
	monthValid := false
	if monthSet {
		if m, err := ParseMonth(c.Month); err == nil {
			month = m
			monthValid = true
		}
	}

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if c.Status != "" && c.Status != AllStatuses && string(tx.Status) != c.Status {
			continue
		}
		if c.Account != "" && tx.DebitID != c.Account {
			continue
		}
		if monthSet && (!monthValid || !month.Contains(tx.Time(), loc)) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// TotalPages is ceil(n / PerPage).
func TotalPages(n int) int {
	return (n + PerPage - 1) / PerPage
}

// Paginate returns the slice [(page-1)*PerPage, page*PerPage) of txs,
// truncated to its length. Pages below 1 are read as 1, pages past the
// last one give nil.
func Paginate(txs []core.Transaction, page int) []core.Transaction {
	if page < 1 {
		page = 1
	}
	if page > TotalPages(len(txs)) {
		return nil
	}
	start := (page - 1) * PerPage
	if start >= len(txs) {
		return nil
	}
	end := start + PerPage
	if end > len(txs) {
		end = len(txs)
	}
	return txs[start:end]
}

// Build filters txs, slices the requested page and computes navigation.
func Build(txs []core.Transaction, c Criteria) View {
	if c.Page < 1 {
		c.Page = 1
	}
	filtered := Filter(txs, c)
	page := Paginate(filtered, c.Page)

	rows := make([]Row, len(page))
	for i, tx := range page {
		rows[i] = Row{Serial: i + 1, Transaction: tx}
	}

	return View{
		Criteria:      c,
		Rows:          rows,
		Page:          c.Page,
		TotalPages:    TotalPages(len(filtered)),
		FilteredCount: len(filtered),
		TotalCount:    len(txs),
		HasPrev:       c.Page > 1,
		HasNext:       c.Page < TotalPages(len(filtered)),
	}
}
