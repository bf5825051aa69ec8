package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nomoney/internal/amqp"
	"nomoney/internal/core"
	"nomoney/internal/storage"
)

// ExpenseExporter mirrors expenses into an external sheet. *export.Client
// satisfies it.
type ExpenseExporter interface {
	UpsertExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
}

// SyncProcessorConfig holds configuration for the sync processor.
type SyncProcessorConfig struct {
	// PollInterval is how often to scan for pending expenses.
	PollInterval time.Duration

	// BatchSize is the max number of expenses exported per poll cycle.
	BatchSize int
}

// DefaultSyncProcessorConfig returns sensible defaults.
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
	}
}

// SyncProcessor exports pending expenses to the sheet. It reacts to AMQP
// events through HandleEvent and additionally polls the database so
// expenses whose events were lost still get exported.
type SyncProcessor struct {
	storage  *storage.Repository
	exporter ExpenseExporter
	config   SyncProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(storage *storage.Repository, exporter ExpenseExporter, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		storage:  storage,
		exporter: exporter,
		config:   config,
	}
}

// Start begins the polling loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running.
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on startup
	p.processBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

// processBatch exports one batch of pending expenses.
func (p *SyncProcessor) processBatch(ctx context.Context) {
	pending, err := p.storage.GetPendingSyncExpenses(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch pending sync expenses", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", len(pending))

	for _, item := range pending {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := p.exportExpense(ctx, item.ID); err != nil {
			slog.WarnContext(ctx, "Expense export failed",
				"id", item.ID, "error", err)
			if merr := p.storage.MarkSyncError(ctx, item.ID); merr != nil {
				slog.ErrorContext(ctx, "Failed to mark expense sync error",
					"id", item.ID, "error", merr)
			}
			continue
		}
		if err := p.storage.MarkSynced(ctx, item.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark expense as synced",
				"id", item.ID, "error", err)
		}
	}
}

// HandleEvent processes one AMQP expense event. A non-nil return makes the
// consumer nack with requeue.
func (p *SyncProcessor) HandleEvent(ctx context.Context, msg *amqp.ExpenseEvent) error {
	if msg.Op == amqp.OpDeleted {
		if err := p.exporter.DeleteExpense(ctx, msg.ID); err != nil {
			return fmt.Errorf("delete expense %d from sheet: %w", msg.ID, err)
		}
		return nil
	}

	if err := p.exportExpense(ctx, msg.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted before the event was processed; remove the row instead.
			return p.exporter.DeleteExpense(ctx, msg.ID)
		}
		return err
	}
	if err := p.storage.MarkSynced(ctx, msg.ID); err != nil {
		slog.WarnContext(ctx, "Failed to mark expense as synced",
			"id", msg.ID, "error", err)
		// The export itself succeeded, don't requeue.
	}
	return nil
}

func (p *SyncProcessor) exportExpense(ctx context.Context, id int64) error {
	expense, err := p.storage.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if err := p.exporter.UpsertExpense(ctx, expense); err != nil {
		return fmt.Errorf("upsert expense %d in sheet: %w", id, err)
	}
	return nil
}
