package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "inventra/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences upsert: every call advances the
// counter for the given key by the increment argument (1 for strict).
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	key, _ := args[0].(string)
	var increment int64 = 1
	if len(args) == 2 {
		if v, ok := args[1].(int64); ok {
			increment = v
		}
	}
	m.values[key] += increment
	return &mockRow{val: m.values[key]}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	period := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := corenumerator.DefaultConfig("ADJ")

	num, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "ADJ-2026-00001", num)

	num, err = svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "ADJ-2026-00002", num)
	assert.Equal(t, 2, q.calls, "strict hits the database per number")
}

func TestGetNextNumber_CachedReservesRanges(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	period := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := corenumerator.DefaultConfig("TRF")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	for i := 1; i <= 10; i++ {
		num, err := svc.GetNextNumber(context.Background(), cfg, opts, period)
		require.NoError(t, err)
		assert.Equal(t, formatNumber(cfg, period, int64(i)), num)
	}
	assert.Equal(t, 1, q.calls, "one reservation serves the whole range")

	num, err := svc.GetNextNumber(context.Background(), cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "TRF-2026-00011", num)
	assert.Equal(t, 2, q.calls, "exhausted range triggers a new reservation")
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	period := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := corenumerator.DefaultConfig("SC")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	_, err := svc.GetNextNumber(context.Background(), cfg, opts, period)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(context.Background(), cfg, period, 100))

	// Next call must reserve a fresh range instead of serving stale numbers.
	callsBefore := q.calls
	_, err = svc.GetNextNumber(context.Background(), cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, callsBefore+1, q.calls)
}

func TestBuildKey_ResetPeriods(t *testing.T) {
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "SO_2026", buildKey(corenumerator.Config{Prefix: "SO", ResetPeriod: "year"}, period))
	assert.Equal(t, "SO_2026_03", buildKey(corenumerator.Config{Prefix: "SO", ResetPeriod: "month"}, period))
	assert.Equal(t, "SO", buildKey(corenumerator.Config{Prefix: "SO", ResetPeriod: "never"}, period))
}

func TestFormatNumber(t *testing.T) {
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	cfg := corenumerator.Config{Prefix: "ADJ", IncludeYear: true, PadWidth: 5}
	assert.Equal(t, "ADJ-2026-00042", formatNumber(cfg, period, 42))

	cfg = corenumerator.Config{Prefix: "ADJ", PadWidth: 3}
	assert.Equal(t, "ADJ-042", formatNumber(cfg, period, 42))

	// Zero pad width falls back to 5 digits.
	cfg = corenumerator.Config{Prefix: "X", IncludeYear: true}
	assert.Equal(t, "X-2026-00007", formatNumber(cfg, period, 7))
}
