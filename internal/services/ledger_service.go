// Package services orchestrates ledger mutations and their change
// notifications.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"spesometro/internal/amqp"
	"spesometro/internal/core"
	applog "spesometro/internal/log"
	"spesometro/internal/store"
)

// Publisher sends change notifications. *amqp.Client satisfies it.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChanged) error
}

// LedgerService applies mutations through the Store and announces each
// committed one. Publishing is best effort: the local write is the source of
// truth and a failed publish is only logged.
type LedgerService struct {
	store     *store.Store
	publisher Publisher
	logger    *slog.Logger
}

// NewLedgerService accepts a nil publisher, in which case nothing is
// announced.
func NewLedgerService(s *store.Store, publisher Publisher, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{store: s, publisher: publisher, logger: logger}
}

func (s *LedgerService) Store() *store.Store {
	return s.store
}

func (s *LedgerService) AddExpense(ctx context.Context, in store.NewExpense) (core.Expense, error) {
	e, err := s.store.AddExpense(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}
	s.publish(ctx, amqp.ExpenseAdded, e.ID, e.Date.String())
	return e, nil
}

// DeleteExpense removes an expense. Deleting an unknown id announces nothing.
func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	e, ok := s.store.Expense(id)
	if !ok {
		return nil
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.ExpenseDeleted, id, e.Date.String())
	return nil
}

func (s *LedgerService) AddCategory(ctx context.Context, in store.NewCategory) (core.Category, error) {
	c, err := s.store.AddCategory(ctx, in)
	if err != nil {
		return core.Category{}, err
	}
	s.publish(ctx, amqp.CategoryAdded, c.ID, "")
	return c, nil
}

func (s *LedgerService) UpdateCategory(ctx context.Context, id string, upd store.CategoryUpdate) (core.Category, error) {
	c, err := s.store.UpdateCategory(ctx, id, upd)
	if err != nil {
		return core.Category{}, err
	}
	s.publish(ctx, amqp.CategoryUpdated, c.ID, "")
	return c, nil
}

// DeleteCategory removes a category. Deleting an unknown id announces nothing.
func (s *LedgerService) DeleteCategory(ctx context.Context, id string) error {
	before := len(s.store.Categories())
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	if len(s.store.Categories()) == before {
		return nil
	}
	s.publish(ctx, amqp.CategoryDeleted, id, "")
	return nil
}

func (s *LedgerService) publish(ctx context.Context, kind amqp.ChangeKind, id, date string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerChanged(ctx, amqp.NewLedgerChanged(kind, id, date)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger change",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldEventKind, kind,
			applog.FieldEntityID, id,
			applog.FieldError, err)
	}
}

// Close closes the publisher when it holds a connection.
func (s *LedgerService) Close() error {
	var errs []error
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
