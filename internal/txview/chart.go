package txview

import (
	"time"

	"github.com/shopspring/decimal"

	"bankdash/internal/core"
)

// DayFlow is the money moved on one day of a month for one account.
type DayFlow struct {
	Day int
	In  decimal.Decimal
	Out decimal.Decimal
}

// Flow is the per-day breakdown shown in the "Your money this month" chart.
type Flow struct {
	Month    Month
	Days     []DayFlow
	TotalIn  decimal.Decimal
	TotalOut decimal.Decimal
	// Peak is the largest single-day in or out value, used to scale bars.
	Peak decimal.Decimal
}

// Percent returns v as a percentage of the peak, for bar heights.
func (f Flow) Percent(v decimal.Decimal) int {
	if f.Peak.IsZero() {
		return 0
	}
	return int(v.Div(f.Peak).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// MonthlyFlow aggregates the account's completed and pending transactions for
// month. Money credited to the account counts as in, money debited as out.
// Failed transactions are ignored. loc nil means UTC.
func MonthlyFlow(txs []core.Transaction, accountID string, month Month, loc *time.Location) Flow {
	if loc == nil {
		loc = time.UTC
	}
	days := daysIn(month)
	f := Flow{
		Month:    month,
		Days:     make([]DayFlow, days),
		TotalIn:  decimal.Zero,
		TotalOut: decimal.Zero,
		Peak:     decimal.Zero,
	}
	for i := range f.Days {
		f.Days[i] = DayFlow{Day: i + 1, In: decimal.Zero, Out: decimal.Zero}
	}
	if accountID == "" || days == 0 {
		return f
	}

	for _, tx := range txs {
		if tx.Status == core.StatusFailed || !month.Contains(tx.Time(), loc) {
			continue
		}
		d := &f.Days[tx.Time().In(loc).Day()-1]
		switch accountID {
		case tx.CreditID:
			d.In = d.In.Add(tx.Amount)
			f.TotalIn = f.TotalIn.Add(tx.Amount)
		case tx.DebitID:
			d.Out = d.Out.Add(tx.Amount)
			f.TotalOut = f.TotalOut.Add(tx.Amount)
		}
	}

	for _, d := range f.Days {
		f.Peak = decimal.Max(f.Peak, d.In, d.Out)
	}
	return f
}

// CurrentMonth returns the month containing now in loc.
func CurrentMonth(now time.Time, loc *time.Location) Month {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	return Month{Year: now.Year(), Month: now.Month()}
}

func daysIn(m Month) int {
	if m.IsZero() {
		return 0
	}
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
