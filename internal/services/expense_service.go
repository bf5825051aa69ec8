// Package services orchestrates expense, category and statistics operations
// across storage, messaging and the pure calculation code.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nomoney/internal/amqp"
	"nomoney/internal/core"
	"nomoney/internal/storage"
)

// EventPublisher publishes expense change events. *amqp.Client satisfies it;
// tests use a recording fake.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, id, version int64, op string) error
}

// ExpenseService orchestrates expense operations across SQLite and AMQP.
// Publishing is best-effort: a broker outage never fails the request, the
// poll-based sync in the worker picks up anything the events missed.
type ExpenseService struct {
	storage   *storage.Repository
	publisher EventPublisher
}

func NewExpenseService(storage *storage.Repository, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateExpense validates and saves an expense, then publishes a created
// event.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if _, err := s.storage.GetCategory(ctx, e.CategoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Expense{}, core.ErrInvalidCategory
		}
		return core.Expense{}, fmt.Errorf("check category: %w", err)
	}

	created, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishEvent(ctx, created.ID, created.Version, amqp.OpCreated)

	return created, nil
}

// GetExpense returns one expense by id.
func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.storage.GetExpense(ctx, id)
}

// ListExpenses returns all expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.storage.ListExpenses(ctx)
}

// ListExpensesByDate returns the expenses of a single calendar day.
func (s *ExpenseService) ListExpensesByDate(ctx context.Context, date core.Date) ([]core.Expense, error) {
	return s.storage.ListExpensesByDate(ctx, date)
}

// UpdateExpense validates and rewrites an expense, then publishes an updated
// event carrying the bumped version.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if _, err := s.storage.GetCategory(ctx, e.CategoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Expense{}, core.ErrInvalidCategory
		}
		return core.Expense{}, fmt.Errorf("check category: %w", err)
	}

	updated, err := s.storage.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}

	s.publishEvent(ctx, updated.ID, updated.Version, amqp.OpUpdated)

	return updated, nil
}

// DeleteExpense removes an expense and publishes a deleted event.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	existing, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, id, existing.Version, amqp.OpDeleted)

	return nil
}

func (s *ExpenseService) publishEvent(ctx context.Context, id, version int64, op string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "No event publisher available, skipping expense event",
			"id", id, "op", op)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, id, version, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"id", id, "op", op, "error", err)
	}
}

// Close closes the underlying storage.
func (s *ExpenseService) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
