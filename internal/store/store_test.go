package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spesometro/internal/core"
	"spesometro/internal/storage/memory"
)

var fixedNow = time.Date(2024, 3, 15, 18, 45, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	kv := memory.New()
	n := 0
	s := New(kv,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("exp-%d", n)
		}),
	)
	require.NoError(t, s.Initialize(context.Background()))
	return s, kv
}

// failingKV fails every Set after the first `allow` calls, and every Get when getErr is set.
type failingKV struct {
	*memory.Store
	allow  int
	getErr error
}

func (f *failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.allow <= 0 {
		return errors.New("disk full")
	}
	f.allow--
	return f.Store.Set(ctx, key, value)
}

func TestInitializeSeedsDefaultCategories(t *testing.T) {
	s, kv := newTestStore(t)

	cats := s.Categories()
	require.Len(t, cats, 10)
	for i, want := range core.DefaultCategories() {
		assert.Equal(t, want, cats[i])
	}
	assert.Empty(t, s.Expenses())

	raw, ok, err := kv.Get(context.Background(), CategoriesKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"id":"food"`)
	raw, ok, _ = kv.Get(context.Background(), ExpensesKey)
	require.True(t, ok)
	assert.Equal(t, "[]", raw)
}

func TestInitializeKeepsExistingCategories(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, CategoriesKey, `[{"id":"rent","name":"Rent","color":"#000","icon":"🏠","budget":0}]`))
	require.NoError(t, kv.Set(ctx, ExpensesKey, `[{"id":"1","amount":12.5,"description":"Keys","category":"rent","date":"2024-01-02","note":"","createdAt":"2024-01-02T10:00:00Z"}]`))

	s := New(kv)
	require.NoError(t, s.Initialize(ctx))

	require.Len(t, s.Categories(), 1)
	assert.Equal(t, "rent", s.Categories()[0].ID)
	require.Len(t, s.Expenses(), 1)
	assert.Equal(t, int64(1250), s.Expenses()[0].Amount.Cents)
	assert.Equal(t, 2, kv.Writes(), "nothing is written when categories exist")
}

func TestInitializeRecoversFromCorruptData(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, CategoriesKey, `[{"id":"rent","name":"Rent"}]`))
	require.NoError(t, kv.Set(ctx, ExpensesKey, `{not json`))

	s := New(kv)
	require.NoError(t, s.Initialize(ctx))

	assert.Empty(t, s.Expenses())
	assert.Len(t, s.Categories(), 10, "categories fall back to empty and get seeded")
}

func TestInitializeRecoversFromReadError(t *testing.T) {
	kv := &failingKV{Store: memory.New(), allow: 2, getErr: errors.New("io error")}
	s := New(kv)
	require.NoError(t, s.Initialize(context.Background()))
	assert.Len(t, s.Categories(), 10)
}

func TestInitializeReportsSeedPersistFailure(t *testing.T) {
	kv := &failingKV{Store: memory.New()}
	s := New(kv)
	err := s.Initialize(context.Background())
	require.Error(t, err)
	assert.Len(t, s.Categories(), 10, "defaults stay usable in memory")
}

func TestAddExpenseThenQueryByDate(t *testing.T) {
	s, _ := newTestStore(t)
	date := core.NewDate(2024, time.March, 15)

	e, err := s.AddExpense(context.Background(), NewExpense{
		Amount:      42.50,
		Description: "  Lunch ",
		CategoryID:  "food",
		Date:        date,
	})
	require.NoError(t, err)

	assert.Equal(t, "exp-1", e.ID)
	assert.Equal(t, "Lunch", e.Description)
	assert.Equal(t, int64(4250), e.Amount.Cents)
	assert.Equal(t, fixedNow, e.CreatedAt)
	assert.Equal(t, "", e.Note)

	matches := 0
	for _, got := range s.Expenses() {
		if got.Date.SameDay(date) && got.ID == e.ID {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
}

func TestAddExpenseDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	e, err := s.AddExpense(context.Background(), NewExpense{Amount: 3, Description: "Coffee"})
	require.NoError(t, err)
	assert.Equal(t, core.OtherCategoryID, e.Category)
	assert.True(t, e.Date.SameDay(core.NewDate(2024, time.March, 15)))
}

func TestAddExpenseIsNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for _, d := range []string{"first", "second", "third"} {
		_, err := s.AddExpense(ctx, NewExpense{Amount: 1, Description: d})
		require.NoError(t, err)
	}
	got := s.Expenses()
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].Description)
	assert.Equal(t, "first", got[2].Description)
}

func TestAddExpenseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		in      NewExpense
		wantErr error
	}{
		{"zero amount", NewExpense{Amount: 0, Description: "x"}, core.ErrInvalidAmount},
		{"negative amount", NewExpense{Amount: -5, Description: "x"}, core.ErrInvalidAmount},
		{"NaN amount", NewExpense{Amount: math.NaN(), Description: "x"}, core.ErrInvalidAmount},
		{"infinite amount", NewExpense{Amount: math.Inf(1), Description: "x"}, core.ErrInvalidAmount},
		{"sub-cent amount", NewExpense{Amount: 0.001, Description: "x"}, core.ErrInvalidAmount},
		{"empty description", NewExpense{Amount: 5, Description: ""}, core.ErrEmptyDescription},
		{"whitespace description", NewExpense{Amount: 5, Description: " \t\n"}, core.ErrEmptyDescription},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, kv := newTestStore(t)
			writes := kv.Writes()
			rev := s.Revision()

			_, err := s.AddExpense(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, s.Expenses())
			assert.Equal(t, writes, kv.Writes())
			assert.Equal(t, rev, s.Revision())
		})
	}
}

func TestAddExpensePersistFailure(t *testing.T) {
	kv := &failingKV{Store: memory.New(), allow: 2}
	s := New(kv)
	require.NoError(t, s.Initialize(context.Background()))

	_, err := s.AddExpense(context.Background(), NewExpense{Amount: 1, Description: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestPersistRecoversAfterFailedWrite(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Store: memory.New(), allow: 2}
	s := New(kv)
	require.NoError(t, s.Initialize(ctx))

	_, err := s.AddExpense(ctx, NewExpense{Amount: 7, Description: "Tea"})
	require.Error(t, err)
	require.Len(t, s.Expenses(), 1, "the expense stays in memory")

	kv.allow = 2
	require.NoError(t, s.Persist(ctx))

	reloaded := New(kv.Store)
	require.NoError(t, reloaded.Initialize(ctx))
	require.Len(t, reloaded.Expenses(), 1)
	assert.Equal(t, "Tea", reloaded.Expenses()[0].Description)
}

func TestDeleteExpense(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	a, err := s.AddExpense(ctx, NewExpense{Amount: 1, Description: "a"})
	require.NoError(t, err)
	_, err = s.AddExpense(ctx, NewExpense{Amount: 2, Description: "b"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteExpense(ctx, a.ID))
	got := s.Expenses()
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Description)

	raw, _, _ := kv.Get(ctx, ExpensesKey)
	assert.NotContains(t, raw, `"description":"a"`)
}

func TestDeleteMissingExpenseIsNoop(t *testing.T) {
	s, kv := newTestStore(t)
	writes := kv.Writes()
	require.NoError(t, s.DeleteExpense(context.Background(), "does-not-exist"))
	assert.Equal(t, writes, kv.Writes())
}

func TestAddCategory(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	c, err := s.AddCategory(ctx, NewCategory{Name: "  Pets ", Color: "#123456"})
	require.NoError(t, err)
	assert.Equal(t, "Pets", c.Name)
	assert.Equal(t, "📦", c.Icon)
	assert.Zero(t, c.Budget)
	assert.True(t, strings.HasPrefix(c.ID, fmt.Sprintf("custom-%d-", fixedNow.UnixMilli())))

	cats := s.Categories()
	require.Len(t, cats, 11)
	assert.Equal(t, c, cats[10], "user categories are appended")

	raw, _, _ := kv.Get(ctx, CategoriesKey)
	assert.Contains(t, raw, `"name":"Pets"`)
}

func TestAddCategoryRejections(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddCategory(ctx, NewCategory{Name: "   "})
	assert.ErrorIs(t, err, core.ErrEmptyCategoryName)

	_, err = s.AddCategory(ctx, NewCategory{Name: "TRAVEL"})
	assert.ErrorIs(t, err, core.ErrDuplicateCategory)

	assert.Len(t, s.Categories(), 10)
}

func TestUpdateCategory(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	name := "Eating Out"
	budget := 300.0
	c, err := s.UpdateCategory(ctx, "food", CategoryUpdate{Name: &name, Budget: &budget})
	require.NoError(t, err)
	assert.Equal(t, "Eating Out", c.Name)
	assert.Equal(t, "#FF6B6B", c.Color)
	assert.Equal(t, 300.0, s.Category("food").Budget)

	// Renaming to its own name in another case is allowed.
	same := "eating out"
	_, err = s.UpdateCategory(ctx, "food", CategoryUpdate{Name: &same})
	require.NoError(t, err)

	clash := "travel"
	_, err = s.UpdateCategory(ctx, "food", CategoryUpdate{Name: &clash})
	assert.ErrorIs(t, err, core.ErrDuplicateCategory)

	_, err = s.UpdateCategory(ctx, "nope", CategoryUpdate{})
	assert.ErrorIs(t, err, core.ErrCategoryNotFound)
}

func TestDeleteCategoryLeavesExpensesDangling(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	e, err := s.AddExpense(ctx, NewExpense{Amount: 10, Description: "Flight", CategoryID: "travel"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteCategory(ctx, "travel"))

	assert.Len(t, s.Categories(), 9)
	got, ok := s.Expense(e.ID)
	require.True(t, ok)
	assert.Equal(t, "travel", got.Category)
	assert.Equal(t, core.OtherCategoryID, s.Category(got.Category).ID)
	assert.Equal(t, 1, s.ExpenseCountByCategory("travel"))

	require.NoError(t, s.DeleteCategory(ctx, "travel"), "second delete is a no-op")
}

func TestCategoryLookupTiers(t *testing.T) {
	cats := core.DefaultCategories()

	c, tier := ResolveCategory(cats, "food")
	assert.Equal(t, TierExact, tier)
	assert.Equal(t, "Food & Dining", c.Name)

	c, tier = ResolveCategory(cats, "unknown")
	assert.Equal(t, TierOther, tier)
	assert.Equal(t, cats[9], c)

	c, tier = ResolveCategory(cats[:9], "unknown")
	assert.Equal(t, TierSentinel, tier)
	assert.Equal(t, core.FallbackCategory, c)
	assert.Equal(t, "sentinel", tier.String())

	_, tier = ResolveCategory(nil, "")
	assert.Equal(t, TierSentinel, tier)
}

func TestStoreCategoryNeverEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.DeleteCategory(context.Background(), core.OtherCategoryID))
	c := s.Category("missing")
	assert.Equal(t, core.FallbackCategory, c)
}

func TestPersistedStateSurvivesReload(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	_, err := s.AddExpense(ctx, NewExpense{Amount: 42.5, Description: "Lunch", CategoryID: "food", Date: core.NewDate(2024, time.March, 15), Note: "with Ada"})
	require.NoError(t, err)
	_, err = s.AddCategory(ctx, NewCategory{Name: "Pets"})
	require.NoError(t, err)

	reloaded := New(kv)
	require.NoError(t, reloaded.Initialize(ctx))
	assert.Equal(t, s.Expenses(), reloaded.Expenses())
	assert.Equal(t, s.Categories(), reloaded.Categories())
}

func TestRevisionAdvancesOnMutation(t *testing.T) {
	s, _ := newTestStore(t)
	r0 := s.Revision()
	_, err := s.AddExpense(context.Background(), NewExpense{Amount: 1, Description: "x"})
	require.NoError(t, err)
	assert.Greater(t, s.Revision(), r0)
}

func TestReloadPicksUpOtherWriters(t *testing.T) {
	ctx := context.Background()
	reader, kv := newTestStore(t)
	writer := New(kv)
	require.NoError(t, writer.Initialize(ctx))

	_, err := writer.AddExpense(ctx, NewExpense{Amount: 42.5, Description: "Lunch", CategoryID: "food"})
	require.NoError(t, err)
	require.Empty(t, reader.Expenses())

	r0 := reader.Revision()
	require.NoError(t, reader.Reload(ctx))
	require.Len(t, reader.Expenses(), 1)
	assert.Equal(t, "Lunch", reader.Expenses()[0].Description)
	assert.Greater(t, reader.Revision(), r0)
}

func TestReloadKeepsStateOnReadError(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Store: memory.New(), allow: 4}
	s := New(kv)
	require.NoError(t, s.Initialize(ctx))
	_, err := s.AddExpense(ctx, NewExpense{Amount: 42.5, Description: "Lunch", CategoryID: "food"})
	require.NoError(t, err)

	kv.getErr = errors.New("database is locked")
	kv.allow = 0
	r0 := s.Revision()

	err = s.Reload(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")

	require.Len(t, s.Expenses(), 1, "previous ledger is kept")
	assert.Len(t, s.Categories(), 10)
	assert.Equal(t, r0, s.Revision())

	raw, ok, err := kv.Store.Get(ctx, ExpensesKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, "Lunch", "nothing was written over the stored ledger")
}

func TestReloadKeepsStateOnCorruptData(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)
	_, err := s.AddExpense(ctx, NewExpense{Amount: 3, Description: "Coffee"})
	require.NoError(t, err)

	require.NoError(t, kv.Set(ctx, CategoriesKey, "{not json"))
	require.Error(t, s.Reload(ctx))
	assert.Len(t, s.Expenses(), 1)
	assert.Len(t, s.Categories(), 10)

	raw, _, err := kv.Get(ctx, CategoriesKey)
	require.NoError(t, err)
	assert.Equal(t, "{not json", raw, "no defaults are seeded")
}
