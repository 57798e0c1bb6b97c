package app

import (
	"fmt"

	"github.com/skatamatic/blulok-cloud-sub010/internal/events"
	eventsRepository "github.com/skatamatic/blulok-cloud-sub010/internal/events/repository"
	eventsUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/events/usecase"
)

// Bus returns the in-process domain event bus.
func (c *Container) Bus() *events.Bus {
	c.busInit.Do(func() {
		c.bus = events.NewBus(c.Logger())
	})
	return c.bus
}

// OutboxRepository returns the outbox event repository instance.
func (c *Container) OutboxRepository() (eventsUseCase.OutboxEventRepository, error) {
	c.outboxRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["outboxRepo"] = fmt.Errorf("failed to get database for outbox repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.outboxRepo = eventsRepository.NewMySQLOutboxEventRepository(db)
		case "postgres":
			c.outboxRepo = eventsRepository.NewPostgreSQLOutboxEventRepository(db)
		default:
			c.initErrors["outboxRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// DispatcherUseCase returns the outbox dispatcher instance.
func (c *Container) DispatcherUseCase() (eventsUseCase.DispatcherUseCase, error) {
	c.dispatcherUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["dispatcherUseCase"] = err
			return
		}

		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["dispatcherUseCase"] = err
			return
		}

		c.dispatcherUseCase = eventsUseCase.NewDispatcherUseCase(
			eventsUseCase.Config{
				Interval:   c.config.OutboxInterval,
				BatchSize:  c.config.OutboxBatchSize,
				MaxRetries: c.config.OutboxMaxRetries,
			},
			txManager,
			outboxRepo,
			c.Bus(),
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["dispatcherUseCase"]; exists {
		return nil, storedErr
	}
	return c.dispatcherUseCase, nil
}
