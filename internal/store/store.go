// Package store owns the authoritative expense and category collections.
//
// The Store is the only writer: it validates every mutation, keeps expenses
// newest-first, and writes both collections back to the key-value substrate
// after each change. Readers get copies.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"spesometro/internal/core"
	applog "spesometro/internal/log"
	"spesometro/internal/storage"
)

// Substrate keys holding the two serialized collections.
const (
	ExpensesKey   = "spesometro_expenses"
	CategoriesKey = "spesometro_categories"
)

const defaultCategoryIcon = "📦"

type (
	// NewExpense is the input of AddExpense. A zero Date means today and an
	// empty CategoryID means "other".
	NewExpense struct {
		Amount      float64 `validate:"finite,gt=0"`
		Description string  `validate:"required"`
		CategoryID  string
		Date        core.Date
		Note        string
	}

	NewCategory struct {
		Name  string `validate:"required"`
		Color string
		Icon  string
	}

	// CategoryUpdate merges the non-nil fields into an existing category.
	CategoryUpdate struct {
		Name   *string
		Color  *string
		Icon   *string
		Budget *float64
	}

	Option func(*Store)
)

type Store struct {
	mu         sync.RWMutex
	kv         storage.KeyValue
	logger     *slog.Logger
	validator  *inputValidator
	now        func() time.Time
	newID      func() string
	expenses   []core.Expense
	categories []core.Category
	revision   uint64
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now, used for creation stamps and default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func New(kv storage.KeyValue, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		logger:    slog.Default(),
		validator: newInputValidator(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize replaces the in-memory state with what the substrate holds.
// Any read or decode failure leaves both collections empty; it is logged and
// never returned. When no category survives loading, the defaults are
// seeded and persisted, and only that write can fail.
func (s *Store) Initialize(ctx context.Context) error {
	expenses, categories, err := s.load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Stored ledger unreadable, starting empty",
			applog.FieldOperation, applog.OpLoad,
			applog.FieldError, err)
		expenses, categories = nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expenses = expenses
	s.categories = categories
	s.revision++

	s.logger.InfoContext(ctx, "Ledger loaded",
		applog.FieldExpenses, len(s.expenses),
		applog.FieldCategories, len(s.categories))

	if len(s.categories) > 0 {
		return nil
	}
	s.categories = core.DefaultCategories()
	if err := s.persistLocked(ctx); err != nil {
		return fmt.Errorf("seed default categories: %w", err)
	}
	s.logger.InfoContext(ctx, "Default categories seeded",
		applog.FieldOperation, applog.OpSeed,
		applog.FieldCategories, len(s.categories))
	return nil
}

// Reload replaces the in-memory state with what the substrate holds now.
// Unlike Initialize it never recovers: on a read or decode failure the
// error is returned and the current state is kept, nothing is seeded and
// nothing is written.
func (s *Store) Reload(ctx context.Context) error {
	expenses, categories, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expenses = expenses
	s.categories = categories
	s.revision++

	s.logger.DebugContext(ctx, "Ledger reloaded",
		applog.FieldOperation, applog.OpReload,
		applog.FieldExpenses, len(s.expenses),
		applog.FieldCategories, len(s.categories),
		applog.FieldRevision, s.revision)
	return nil
}

// load decodes both keys. An absent key is an empty collection.
func (s *Store) load(ctx context.Context) ([]core.Expense, []core.Category, error) {
	var expenses []core.Expense
	if err := s.loadKey(ctx, ExpensesKey, &expenses); err != nil {
		return nil, nil, err
	}
	var categories []core.Category
	if err := s.loadKey(ctx, CategoriesKey, &categories); err != nil {
		return nil, nil, err
	}
	return expenses, categories, nil
}

func (s *Store) loadKey(ctx context.Context, key string, dst any) error {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Persist writes both collections to the substrate.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	expenses := s.expenses
	if expenses == nil {
		expenses = []core.Expense{}
	}
	categories := s.categories
	if categories == nil {
		categories = []core.Category{}
	}

	eb, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	cb, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	if err := s.kv.Set(ctx, ExpensesKey, string(eb)); err != nil {
		return fmt.Errorf("write expenses: %w", err)
	}
	if err := s.kv.Set(ctx, CategoriesKey, string(cb)); err != nil {
		return fmt.Errorf("write categories: %w", err)
	}
	s.logger.DebugContext(ctx, "Ledger persisted",
		applog.FieldOperation, applog.OpPersist,
		applog.FieldExpenses, len(expenses),
		applog.FieldCategories, len(categories))
	return nil
}

// AddExpense validates, stamps and prepends a new expense, then persists.
// Rejections wrap core.ErrInvalidAmount or core.ErrEmptyDescription and
// leave the collection untouched. A persist failure is returned but the
// expense stays in memory and is written by the next successful persist.
func (s *Store) AddExpense(ctx context.Context, in NewExpense) (core.Expense, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validator.check(in); err != nil {
		return core.Expense{}, err
	}
	amount, err := core.MoneyFromFloat(in.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: %v rounds to zero cents", err, in.Amount)
	}

	now := s.now()
	date := in.Date
	if date.IsEmpty() {
		date = core.DateOf(now)
	}
	category := strings.TrimSpace(in.CategoryID)
	if category == "" {
		category = core.OtherCategoryID
	}

	e := core.Expense{
		ID:          s.newID(),
		Amount:      amount,
		Description: in.Description,
		Category:    category,
		Date:        date,
		Note:        in.Note,
		CreatedAt:   now.UTC(),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expenses = append([]core.Expense{e}, s.expenses...)
	s.revision++
	if err := s.persistLocked(ctx); err != nil {
		return core.Expense{}, fmt.Errorf("persist expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense saved",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithExpense(e.ID, e.Description, e.Amount.Cents, e.Category, e.Date.String()).
			ToSlice()...)
	return e, nil
}

// DeleteExpense removes the expense with the given id. An unknown id is a
// no-op and writes nothing.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, e := range s.expenses {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	s.expenses = append(s.expenses[:idx:idx], s.expenses[idx+1:]...)
	s.revision++
	if err := s.persistLocked(ctx); err != nil {
		return fmt.Errorf("persist expense deletion: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)
	return nil
}

// AddCategory appends a user category. Blank names wrap
// core.ErrEmptyCategoryName; names equal to an existing one ignoring case
// wrap core.ErrDuplicateCategory.
func (s *Store) AddCategory(ctx context.Context, in NewCategory) (core.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.check(in); err != nil {
		return core.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.findByNameLocked(in.Name); ok {
		return core.Category{}, fmt.Errorf("%w: %q (id %s)", core.ErrDuplicateCategory, in.Name, existing.ID)
	}

	c := core.Category{
		ID:    s.newCategoryID(),
		Name:  in.Name,
		Color: strings.TrimSpace(in.Color),
		Icon:  strings.TrimSpace(in.Icon),
	}
	if c.Color == "" {
		c.Color = core.FallbackCategory.Color
	}
	if c.Icon == "" {
		c.Icon = defaultCategoryIcon
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	s.categories = append(s.categories, c)
	s.revision++
	if err := s.persistLocked(ctx); err != nil {
		return core.Category{}, fmt.Errorf("persist category: %w", err)
	}

	s.logger.InfoContext(ctx, "Category added",
		applog.NewFields().WithOperation(applog.OpCreate).WithCategory(c.ID, c.Name).ToSlice()...)
	return c, nil
}

func (s *Store) newCategoryID() string {
	return fmt.Sprintf("custom-%d-%s", s.now().UnixMilli(), uuid.NewString()[:8])
}

func (s *Store) findByNameLocked(name string) (core.Category, bool) {
	for _, c := range s.categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return c, true
		}
	}
	return core.Category{}, false
}

// UpdateCategory merges upd into the category with the given id.
func (s *Store) UpdateCategory(ctx context.Context, id string, upd CategoryUpdate) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.categoryIndexLocked(id)
	if idx < 0 {
		return core.Category{}, fmt.Errorf("%w: %s", core.ErrCategoryNotFound, id)
	}
	c := s.categories[idx]

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := s.validator.check(NewCategory{Name: name}); err != nil {
			return core.Category{}, err
		}
		if existing, ok := s.findByNameLocked(name); ok && existing.ID != id {
			return core.Category{}, fmt.Errorf("%w: %q (id %s)", core.ErrDuplicateCategory, name, existing.ID)
		}
		c.Name = name
	}
	if upd.Color != nil {
		c.Color = *upd.Color
	}
	if upd.Icon != nil {
		c.Icon = *upd.Icon
	}
	if upd.Budget != nil {
		c.Budget = *upd.Budget
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	s.categories[idx] = c
	s.revision++
	if err := s.persistLocked(ctx); err != nil {
		return core.Category{}, fmt.Errorf("persist category update: %w", err)
	}

	s.logger.InfoContext(ctx, "Category updated",
		applog.NewFields().WithOperation(applog.OpUpdate).WithCategory(c.ID, c.Name).ToSlice()...)
	return c, nil
}

// DeleteCategory removes a category. Expenses that reference it are left
// alone and resolve to "other" from then on.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.categoryIndexLocked(id)
	if idx < 0 {
		return nil
	}
	s.categories = append(s.categories[:idx:idx], s.categories[idx+1:]...)
	s.revision++
	if err := s.persistLocked(ctx); err != nil {
		return fmt.Errorf("persist category deletion: %w", err)
	}

	s.logger.InfoContext(ctx, "Category deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldCategoryID, id)
	return nil
}

func (s *Store) categoryIndexLocked(id string) int {
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Category resolves id; it never fails. See ResolveCategory.
func (s *Store) Category(id string) core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, _ := ResolveCategory(s.categories, id)
	return c
}

// Expenses returns a copy of all expenses, newest first.
func (s *Store) Expenses() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Expense(nil), s.expenses...)
}

// Expense returns the expense with the given id.
func (s *Store) Expense(id string) (core.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

// Categories returns a copy of all categories in insertion order.
func (s *Store) Categories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category(nil), s.categories...)
}

// ExpenseCountByCategory counts expenses whose category reference is id.
func (s *Store) ExpenseCountByCategory(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.expenses {
		if e.Category == id {
			n++
		}
	}
	return n
}

// Revision increases on every load and mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
