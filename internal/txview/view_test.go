package txview

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankdash/internal/core"
)

func tx(id, debit, credit string, status core.TransactionStatus, at time.Time) core.Transaction {
	return core.Transaction{
		ID:        id,
		DebitID:   debit,
		CreditID:  credit,
		Amount:    decimal.NewFromInt(10),
		Status:    status,
		Timestamp: core.Timestamp{Time: at},
	}
}

func generate(n int) []core.Transaction {
	out := make([]core.Transaction, n)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = tx(fmt.Sprintf("t%d", i), "A1", "A2", core.StatusCompleted, base.Add(time.Duration(i)*time.Minute))
	}
	return out
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Transaction.ID
	}
	return out
}

func TestBuildEmptyCriteriaIsIdentity(t *testing.T) {
	txs := generate(7)
	v := Build(txs, Criteria{})

	require.Len(t, v.Rows, 7)
	for i, r := range v.Rows {
		assert.Equal(t, txs[i].ID, r.Transaction.ID)
		assert.Equal(t, i+1, r.Serial)
	}
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 1, v.TotalPages)
	assert.False(t, v.HasPrev)
	assert.False(t, v.HasNext)
}

func TestBuildPagination(t *testing.T) {
	txs := generate(45)

	tests := []struct {
		name     string
		page     int
		wantLen  int
		wantPrev bool
		wantNext bool
		firstID  string
	}{
		{"first page", 1, 20, false, true, "t0"},
		{"second page", 2, 20, true, true, "t20"},
		{"last page", 3, 5, true, false, "t40"},
		{"past the end", 4, 0, true, false, ""},
		{"zero reads as one", 0, 20, false, true, "t0"},
		{"negative reads as one", -3, 20, false, true, "t0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Build(txs, Criteria{Page: tt.page})
			assert.Len(t, v.Rows, tt.wantLen)
			assert.Equal(t, tt.wantPrev, v.HasPrev)
			assert.Equal(t, tt.wantNext, v.HasNext)
			assert.Equal(t, 3, v.TotalPages)
			assert.Equal(t, 45, v.FilteredCount)
			if tt.firstID != "" {
				assert.Equal(t, tt.firstID, v.Rows[0].Transaction.ID)
				assert.Equal(t, 1, v.Rows[0].Serial)
			}
		})
	}
}

func TestBuildExactMultipleHasNoNextPage(t *testing.T) {
	v := Build(generate(40), Criteria{Page: 2})
	assert.Len(t, v.Rows, 20)
	assert.False(t, v.HasNext)
	assert.Equal(t, 2, v.TotalPages)
}

func TestBuildHugePageIsEmpty(t *testing.T) {
	// page*PerPage overflows int here.
	v := Build([]core.Transaction{{ID: "t1"}}, Criteria{Page: 461168601842738792})
	assert.Empty(t, v.Rows)
	assert.False(t, v.HasNext)
	assert.True(t, v.HasPrev)
	assert.Equal(t, 1, v.TotalPages)

	assert.Nil(t, Paginate(generate(5), math.MaxInt))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0))
	assert.Equal(t, 1, TotalPages(1))
	assert.Equal(t, 1, TotalPages(20))
	assert.Equal(t, 2, TotalPages(21))
}

func TestFilterByMonth(t *testing.T) {
	march := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	txs := []core.Transaction{tx("t1", "A1", "A2", core.StatusCompleted, march)}

	assert.Empty(t, Filter(txs, Criteria{Month: "2024-04"}))
	assert.Len(t, Filter(txs, Criteria{Month: "2024-03"}), 1)
	assert.Len(t, Filter(txs, Criteria{Month: ""}), 1)
	assert.Empty(t, Filter(txs, Criteria{Month: "2023-03"}))
}

func TestFilterByMonthUnparseableExcludesAll(t *testing.T) {
	txs := generate(3)
	assert.Empty(t, Filter(txs, Criteria{Month: "march"}))
}

func TestFilterByMonthUsesLocation(t *testing.T) {
	// 23:30 UTC on March 31 is already April in UTC+2.
	at := time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC)
	txs := []core.Transaction{tx("t1", "A1", "A2", core.StatusCompleted, at)}
	loc := time.FixedZone("UTC+2", 2*60*60)

	assert.Len(t, Filter(txs, Criteria{Month: "2024-03"}), 1)
	assert.Empty(t, Filter(txs, Criteria{Month: "2024-03", Location: loc}))
	assert.Len(t, Filter(txs, Criteria{Month: "2024-04", Location: loc}), 1)
}

func TestFilterByAccountMatchesDebitSideOnly(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{tx("t1", "A1", "A2", core.StatusCompleted, at)}

	assert.Len(t, Filter(txs, Criteria{Account: "A1"}), 1)
	assert.Empty(t, Filter(txs, Criteria{Account: "A2"}))
}

func TestFilterByStatus(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("t1", "A1", "A2", core.StatusCompleted, at),
		tx("t2", "A1", "A2", core.StatusFailed, at),
		tx("t3", "A1", "A2", core.StatusPending, at),
		tx("t4", "A1", "A2", core.StatusFailed, at),
	}

	all := Filter(txs, Criteria{Status: AllStatuses})
	assert.Len(t, all, 4)

	failed := Filter(txs, Criteria{Status: "failed"})
	require.Len(t, failed, 2)
	assert.Equal(t, "t2", failed[0].ID)
	assert.Equal(t, "t4", failed[1].ID)

	// Matching is case-sensitive.
	assert.Empty(t, Filter(txs, Criteria{Status: "Failed"}))
}

func TestFilterCombinesCriteriaAndPreservesOrder(t *testing.T) {
	march := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("t1", "A1", "A2", core.StatusCompleted, march),
		tx("t2", "A2", "A1", core.StatusCompleted, march),
		tx("t3", "A1", "A2", core.StatusPending, march),
		tx("t4", "A1", "A2", core.StatusCompleted, april),
		tx("t5", "A1", "A3", core.StatusCompleted, march),
	}

	got := Filter(txs, Criteria{Status: "completed", Account: "A1", Month: "2024-03"})
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].ID)
	assert.Equal(t, "t5", got[1].ID)
}

func TestBuildEmptyInput(t *testing.T) {
	v := Build(nil, Criteria{})
	assert.True(t, v.Empty())
	assert.Empty(t, v.Rows)
	assert.Equal(t, 0, v.TotalPages)
	assert.False(t, v.HasNext)
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2024, Month: time.March}, m)
	assert.Equal(t, "2024-03", m.String())

	_, err = ParseMonth("2024-13")
	assert.Error(t, err)
	_, err = ParseMonth("")
	assert.Error(t, err)
}
