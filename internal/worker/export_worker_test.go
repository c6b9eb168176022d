package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spesometro/internal/aggregate"
	"spesometro/internal/amqp"
	"spesometro/internal/core"
	"spesometro/internal/sheets"
	"spesometro/internal/store"
	"spesometro/internal/storage/memory"
)

var fixedNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

// fakeSheets keeps written reports keyed by year and month.
type fakeSheets struct {
	reports  map[[2]int]sheets.MonthReport
	writes   int
	writeErr error
	readErr  error
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{reports: map[[2]int]sheets.MonthReport{}}
}

func (f *fakeSheets) WriteMonthReport(_ context.Context, r sheets.MonthReport) (string, error) {
	if f.writeErr != nil {
		return "", f.writeErr
	}
	f.writes++
	f.reports[[2]int{r.Year, int(r.Month)}] = r
	return "fake!A1", nil
}

func (f *fakeSheets) ReadMonthReport(_ context.Context, year int, month time.Month) (sheets.MonthReport, bool, error) {
	if f.readErr != nil {
		return sheets.MonthReport{}, false, f.readErr
	}
	r, ok := f.reports[[2]int{year, int(month)}]
	return r, ok, nil
}

// writeOnly hides ReadMonthReport.
type writeOnly struct{ inner *fakeSheets }

func (w writeOnly) WriteMonthReport(ctx context.Context, r sheets.MonthReport) (string, error) {
	return w.inner.WriteMonthReport(ctx, r)
}

type fixture struct {
	kv     *memory.Store
	store  *store.Store
	worker *ExportWorker
	sheets *fakeSheets
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := memory.New()
	st := store.New(kv, store.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, st.Initialize(context.Background()))
	agg := aggregate.New(st, aggregate.WithClock(func() time.Time { return fixedNow }))
	fs := newFakeSheets()
	w := NewExportWorker(st, agg, fs, nil)
	w.now = func() time.Time { return fixedNow }
	return &fixture{kv: kv, store: st, worker: w, sheets: fs}
}

func (f *fixture) add(t *testing.T, amount float64, category string, date core.Date) core.Expense {
	t.Helper()
	e, err := f.store.AddExpense(context.Background(), store.NewExpense{
		Amount: amount, Description: "x", CategoryID: category, Date: date,
	})
	require.NoError(t, err)
	return e
}

func TestBuildMonthReport(t *testing.T) {
	f := newFixture(t)
	f.add(t, 42.5, "food", core.NewDate(2024, time.March, 15))
	f.add(t, 10, "transport", core.NewDate(2024, time.March, 1))

	r := f.worker.BuildMonthReport(2024, time.March)
	assert.Equal(t, int64(5250), r.Total.Cents)
	assert.Equal(t, 2, r.Count)
	require.Len(t, r.ByCategory, 2)
	assert.Equal(t, "Food & Dining", r.ByCategory[0].Name)
	assert.Len(t, r.Daily, 31)
	assert.Equal(t, fixedNow, r.GeneratedAt)
}

func TestExportMonthSkipsUnchanged(t *testing.T) {
	f := newFixture(t)
	f.add(t, 42.5, "food", core.NewDate(2024, time.March, 15))
	ctx := context.Background()

	written, err := f.worker.ExportMonth(ctx, 2024, time.March)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = f.worker.ExportMonth(ctx, 2024, time.March)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, 1, f.sheets.writes)

	f.add(t, 1, "food", core.NewDate(2024, time.March, 16))
	written, err = f.worker.ExportMonth(ctx, 2024, time.March)
	require.NoError(t, err)
	assert.True(t, written)
}

func TestExportMonthRewritesWhenReadFails(t *testing.T) {
	f := newFixture(t)
	f.sheets.readErr = errors.New("quota")

	written, err := f.worker.ExportMonth(context.Background(), 2024, time.March)
	require.NoError(t, err)
	assert.True(t, written)
}

func TestExportMonthWithoutReader(t *testing.T) {
	f := newFixture(t)
	f.worker.sheets = writeOnly{f.sheets}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		written, err := f.worker.ExportMonth(ctx, 2024, time.March)
		require.NoError(t, err)
		assert.True(t, written)
	}
	assert.Equal(t, 2, f.sheets.writes)
}

func TestHandleLedgerChangedReloadsAndExportsMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Another process writes to the same substrate.
	other := store.New(f.kv)
	require.NoError(t, other.Initialize(ctx))
	e, err := other.AddExpense(ctx, store.NewExpense{Amount: 42.5, Description: "Lunch", Date: core.NewDate(2023, time.July, 4)})
	require.NoError(t, err)

	err = f.worker.HandleLedgerChanged(ctx, amqp.NewLedgerChanged(amqp.ExpenseAdded, e.ID, "2023-07-04"))
	require.NoError(t, err)

	r, ok := f.sheets.reports[[2]int{2023, 7}]
	require.True(t, ok)
	assert.Equal(t, int64(4250), r.Total.Cents)
}

// lockedKV fails every Get while locked is set.
type lockedKV struct {
	*memory.Store
	locked bool
}

func (l *lockedKV) Get(ctx context.Context, key string) (string, bool, error) {
	if l.locked {
		return "", false, errors.New("database is locked")
	}
	return l.Store.Get(ctx, key)
}

func TestReloadFailureKeepsLedgerAndIsReturned(t *testing.T) {
	ctx := context.Background()
	kv := &lockedKV{Store: memory.New()}
	st := store.New(kv, store.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, st.Initialize(ctx))
	agg := aggregate.New(st, aggregate.WithClock(func() time.Time { return fixedNow }))
	fs := newFakeSheets()
	w := NewExportWorker(st, agg, fs, nil)
	w.now = func() time.Time { return fixedNow }

	_, err := st.AddExpense(ctx, store.NewExpense{Amount: 42.5, Description: "Lunch", CategoryID: "food"})
	require.NoError(t, err)
	kv.locked = true

	err = w.HandleLedgerChanged(ctx, amqp.NewLedgerChanged(amqp.ExpenseAdded, "x", "2024-03-20"))
	require.Error(t, err, "the message must be redelivered")
	assert.Contains(t, err.Error(), "database is locked")
	assert.Zero(t, fs.writes)

	require.Error(t, w.ExportRecent(ctx, 3))
	assert.Zero(t, fs.writes)

	require.Len(t, st.Expenses(), 1)
	raw, ok, err := kv.Store.Get(ctx, store.ExpensesKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, "Lunch")

	kv.locked = false
	require.NoError(t, w.HandleLedgerChanged(ctx, amqp.NewLedgerChanged(amqp.ExpenseAdded, "x", "2024-03-20")))
	assert.Equal(t, int64(4250), fs.reports[[2]int{2024, 3}].Total.Cents)
}

func TestExportMonthLogsStructuredFields(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	f.worker.logger = slog.New(slog.NewJSONHandler(&buf, nil))
	f.add(t, 42.5, "food", core.NewDate(2024, time.March, 15))

	_, err := f.worker.ExportMonth(context.Background(), 2024, time.March)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"operation":"export"`)
	assert.Contains(t, out, `"sheets_ref":"fake!A1"`)
	assert.Contains(t, out, `"amount_cents":4250`)
}

func TestHandleLedgerChangedCategoryUsesCurrentMonth(t *testing.T) {
	f := newFixture(t)
	err := f.worker.HandleLedgerChanged(context.Background(), amqp.NewLedgerChanged(amqp.CategoryUpdated, "food", ""))
	require.NoError(t, err)
	_, ok := f.sheets.reports[[2]int{2024, 3}]
	assert.True(t, ok)
}

func TestHandleLedgerChangedBadDateIsDropped(t *testing.T) {
	f := newFixture(t)
	err := f.worker.HandleLedgerChanged(context.Background(), &amqp.LedgerChanged{Kind: amqp.ExpenseAdded, ID: "x", Date: "31/12"})
	require.NoError(t, err)
	assert.Zero(t, f.sheets.writes)
}

func TestHandleLedgerChangedWriteFailureIsReturned(t *testing.T) {
	f := newFixture(t)
	f.sheets.writeErr = errors.New("sheets down")
	err := f.worker.HandleLedgerChanged(context.Background(), amqp.NewLedgerChanged(amqp.ExpenseAdded, "x", "2024-03-01"))
	assert.ErrorContains(t, err, "sheets down")
}

func TestExportRecent(t *testing.T) {
	f := newFixture(t)
	f.add(t, 5, "food", core.NewDate(2024, time.January, 3))

	require.NoError(t, f.worker.ExportRecent(context.Background(), 3))
	assert.Equal(t, 3, f.sheets.writes)
	assert.Contains(t, f.sheets.reports, [2]int{2024, 1})
	assert.Contains(t, f.sheets.reports, [2]int{2024, 3})

	f.sheets.writeErr = errors.New("sheets down")
	f.sheets.reports = map[[2]int]sheets.MonthReport{}
	err := f.worker.ExportRecent(context.Background(), 2)
	assert.ErrorContains(t, err, "2024-02")
	assert.ErrorContains(t, err, "2024-03")
}

func TestRunPeriodicStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.worker.RunPeriodic(ctx, time.Millisecond, 1) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunPeriodic did not stop")
	}
}
