package app

import (
	"context"
	"fmt"

	denylistRepository "github.com/skatamatic/blulok-cloud-sub010/internal/denylist/repository"
	denylistUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/denylist/usecase"
)

// DenylistRepository returns the denylist repository instance.
func (c *Container) DenylistRepository() (denylistUseCase.DenylistRepository, error) {
	c.denylistRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["denylistRepo"] = fmt.Errorf("failed to get database for denylist repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.denylistRepo = denylistRepository.NewMySQLDenylistRepository(db)
		case "postgres":
			c.denylistRepo = denylistRepository.NewPostgreSQLDenylistRepository(db)
		default:
			c.initErrors["denylistRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["denylistRepo"]; exists {
		return nil, storedErr
	}
	return c.denylistRepo, nil
}

// DenylistEngine returns the revocation engine instance.
func (c *Container) DenylistEngine(ctx context.Context) (denylistUseCase.DenylistEngine, error) {
	c.denylistEngineInit.Do(func() {
		engine, err := c.initDenylistEngine(ctx)
		if err != nil {
			c.initErrors["denylistEngine"] = err
			return
		}
		c.denylistEngine = engine
	})
	if storedErr, exists := c.initErrors["denylistEngine"]; exists {
		return nil, storedErr
	}
	return c.denylistEngine, nil
}

// AccessRevocationListener returns the tenancy event listener instance.
func (c *Container) AccessRevocationListener(ctx context.Context) (*denylistUseCase.AccessRevocationListener, error) {
	c.listenerInit.Do(func() {
		engine, err := c.DenylistEngine(ctx)
		if err != nil {
			c.initErrors["listener"] = err
			return
		}

		dir, err := c.Directory()
		if err != nil {
			c.initErrors["listener"] = err
			return
		}

		c.listener = denylistUseCase.NewAccessRevocationListener(
			engine,
			dir,
			c.Hub(),
			c.config.StorageTimeout,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["listener"]; exists {
		return nil, storedErr
	}
	return c.listener, nil
}

// initDenylistEngine creates the revocation engine with the configured
// optimization policy.
func (c *Container) initDenylistEngine(ctx context.Context) (denylistUseCase.DenylistEngine, error) {
	repo, err := c.DenylistRepository()
	if err != nil {
		return nil, err
	}

	policy, err := c.optimizationPolicy()
	if err != nil {
		return nil, err
	}

	authority, err := c.Authority(ctx)
	if err != nil {
		return nil, err
	}

	engine := denylistUseCase.NewDenylistEngine(
		c.config.RoutePassTTL,
		repo,
		policy,
		authority,
		c.Logger(),
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	return denylistUseCase.NewDenylistEngineWithMetrics(engine, businessMetrics), nil
}

// optimizationPolicy selects the send-gating policy. The conservative policy
// never skips; the outstanding-pass policy drops sends no device could act on.
func (c *Container) optimizationPolicy() (denylistUseCase.OptimizationPolicy, error) {
	if !c.config.DenylistSkipEnabled {
		return denylistUseCase.NewConservativePolicy(), nil
	}

	passes, err := c.RoutePassRepository()
	if err != nil {
		return nil, err
	}

	return denylistUseCase.NewOutstandingPassPolicy(passes), nil
}
