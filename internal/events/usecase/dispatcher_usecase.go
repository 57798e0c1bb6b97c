// Package usecase implements outbox dispatch: pending tenancy events are
// pulled in batches and delivered to the in-process bus, with retry
// accounting that gives the revocation path at-least-once delivery.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/skatamatic/blulok-cloud-sub010/internal/database"
	"github.com/skatamatic/blulok-cloud-sub010/internal/events/domain"
)

// Config holds dispatcher configuration.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxEventRepository defines outbox event repository operations.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// EventPublisher delivers one decoded tenant event to its subscribers and
// reports whether every handler succeeded.
type EventPublisher interface {
	PublishSync(ctx context.Context, eventType string, event *domain.TenantEvent) error
}

// DispatcherUseCase defines the interface for outbox dispatch.
type DispatcherUseCase interface {
	Start(ctx context.Context) error
	DispatchPending(ctx context.Context) error
	Record(ctx context.Context, eventType string, event *domain.TenantEvent) error
}

// dispatcherUseCase implements DispatcherUseCase over the outbox table.
type dispatcherUseCase struct {
	config    Config
	txManager database.TxManager
	repo      OutboxEventRepository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewDispatcherUseCase creates a new dispatcher use case.
func NewDispatcherUseCase(
	config Config,
	txManager database.TxManager,
	repo OutboxEventRepository,
	publisher EventPublisher,
	logger *slog.Logger,
) DispatcherUseCase {
	return &dispatcherUseCase{
		config:    config,
		txManager: txManager,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Record persists a tenant event in the outbox. Called inside the same
// transaction as the assignment change the event describes.
func (uc *dispatcherUseCase) Record(
	ctx context.Context,
	eventType string,
	event *domain.TenantEvent,
) error {
	outboxEvent, err := domain.NewOutboxEvent(eventType, event)
	if err != nil {
		return err
	}
	return uc.repo.Create(ctx, outboxEvent)
}

// Start runs the dispatch loop until ctx is cancelled.
func (uc *dispatcherUseCase) Start(ctx context.Context) error {
	uc.logger.Info("starting outbox dispatcher",
		slog.Duration("interval", uc.config.Interval),
		slog.Int("batch_size", uc.config.BatchSize),
	)

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping outbox dispatcher")
			return ctx.Err()
		case <-ticker.C:
			if err := uc.DispatchPending(ctx); err != nil {
				uc.logger.Error("failed to dispatch events", slog.Any("error", err))
			}
		}
	}
}

// DispatchPending delivers one batch of pending events inside a transaction.
// A handler failure increments the event's retry count; the row stays pending
// until MaxRetries is reached, giving at-least-once delivery.
func (uc *dispatcherUseCase) DispatchPending(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.repo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		uc.logger.Info("dispatching events", slog.Int("count", len(events)))

		for _, event := range events {
			if err := uc.dispatchEvent(ctx, event); err != nil {
				uc.logger.Error("failed to dispatch event",
					slog.String("event_id", event.ID.String()),
					slog.String("event_type", event.EventType),
					slog.Any("error", err),
				)

				event.Retries++
				errorMsg := err.Error()
				event.LastError = &errorMsg

				if event.Retries >= uc.config.MaxRetries {
					event.Status = domain.OutboxEventStatusFailed
				}

				if err := uc.repo.Update(ctx, event); err != nil {
					return err
				}
				continue
			}

			now := time.Now()
			event.Status = domain.OutboxEventStatusProcessed
			event.ProcessedAt = &now

			if err := uc.repo.Update(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
}

// dispatchEvent decodes and publishes a single outbox event.
func (uc *dispatcherUseCase) dispatchEvent(ctx context.Context, event *domain.OutboxEvent) error {
	tenantEvent, err := domain.DecodeTenantEvent(event)
	if err != nil {
		return err
	}

	return uc.publisher.PublishSync(ctx, event.EventType, tenantEvent)
}
