package txview

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankdash/internal/core"
)

func TestMonthlyFlow(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 2, d, 9, 0, 0, 0, time.UTC) }
	amount := func(v int64, t core.Transaction) core.Transaction {
		t.Amount = decimal.NewFromInt(v)
		return t
	}
	txs := []core.Transaction{
		amount(100, tx("t1", "X", "A1", core.StatusCompleted, day(1))),
		amount(40, tx("t2", "A1", "X", core.StatusCompleted, day(1))),
		amount(25, tx("t3", "A1", "X", core.StatusPending, day(29))),
		amount(999, tx("t4", "A1", "X", core.StatusFailed, day(3))),
		amount(50, tx("t5", "A2", "X", core.StatusCompleted, day(3))),
		amount(70, tx("t6", "X", "A1", core.StatusCompleted, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))),
	}

	f := MonthlyFlow(txs, "A1", Month{Year: 2024, Month: time.February}, nil)

	require.Len(t, f.Days, 29)
	assert.True(t, f.Days[0].In.Equal(decimal.NewFromInt(100)))
	assert.True(t, f.Days[0].Out.Equal(decimal.NewFromInt(40)))
	assert.True(t, f.Days[2].Out.IsZero())
	assert.True(t, f.Days[28].Out.Equal(decimal.NewFromInt(25)))
	assert.True(t, f.TotalIn.Equal(decimal.NewFromInt(100)))
	assert.True(t, f.TotalOut.Equal(decimal.NewFromInt(65)))
	assert.True(t, f.Peak.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 40, f.Percent(f.Days[0].Out))
}

func TestMonthlyFlowWithoutAccount(t *testing.T) {
	f := MonthlyFlow(generate(3), "", Month{Year: 2024, Month: time.March}, nil)
	assert.Len(t, f.Days, 31)
	assert.True(t, f.TotalIn.IsZero())
	assert.Equal(t, 0, f.Percent(decimal.NewFromInt(5)))
}

func TestCurrentMonth(t *testing.T) {
	now := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, Month{Year: 2024, Month: time.December}, CurrentMonth(now, nil))
	assert.Equal(t, Month{Year: 2025, Month: time.January}, CurrentMonth(now, time.FixedZone("x", 3*3600)))
}
