package app

import (
	"context"
	"fmt"

	"github.com/skatamatic/blulok-cloud-sub010/internal/directory"
	directoryRepository "github.com/skatamatic/blulok-cloud-sub010/internal/directory/repository"
	routePassRepository "github.com/skatamatic/blulok-cloud-sub010/internal/routepass/repository"
	routePassUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/routepass/usecase"
	"github.com/skatamatic/blulok-cloud-sub010/internal/schedule"
)

// RoutePassRepository returns the route pass issuance repository instance.
func (c *Container) RoutePassRepository() (routePassStore, error) {
	c.routePassRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["routePassRepo"] = fmt.Errorf("failed to get database for route pass repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.routePassRepo = routePassRepository.NewMySQLRoutePassRepository(db)
		case "postgres":
			c.routePassRepo = routePassRepository.NewPostgreSQLRoutePassRepository(db)
		default:
			c.initErrors["routePassRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["routePassRepo"]; exists {
		return nil, storedErr
	}
	return c.routePassRepo, nil
}

// Directory returns the facility directory read model.
func (c *Container) Directory() (directory.Directory, error) {
	c.directoryRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["directoryRepo"] = fmt.Errorf("failed to get database for directory repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.directoryRepo = directoryRepository.NewMySQLDirectoryRepository(db)
		case "postgres":
			c.directoryRepo = directoryRepository.NewPostgreSQLDirectoryRepository(db)
		default:
			c.initErrors["directoryRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["directoryRepo"]; exists {
		return nil, storedErr
	}
	return c.directoryRepo, nil
}

// ScheduleService returns the config-driven schedule service.
func (c *Container) ScheduleService() (schedule.Service, error) {
	c.scheduleServiceInit.Do(func() {
		service, err := schedule.NewConfigService(c.config.ScheduleWindows)
		if err != nil {
			c.initErrors["scheduleService"] = fmt.Errorf("failed to parse schedule windows: %w", err)
			return
		}
		c.scheduleService = service
	})
	if storedErr, exists := c.initErrors["scheduleService"]; exists {
		return nil, storedErr
	}
	return c.scheduleService, nil
}

// IssuerUseCase returns the route pass issuer use case instance.
func (c *Container) IssuerUseCase(ctx context.Context) (routePassUseCase.IssuerUseCase, error) {
	c.issuerUseCaseInit.Do(func() {
		useCase, err := c.initIssuerUseCase(ctx)
		if err != nil {
			c.initErrors["issuerUseCase"] = err
			return
		}
		c.issuerUseCase = useCase
	})
	if storedErr, exists := c.initErrors["issuerUseCase"]; exists {
		return nil, storedErr
	}
	return c.issuerUseCase, nil
}

// HistoryUseCase returns the issuance history use case instance.
func (c *Container) HistoryUseCase() (routePassUseCase.HistoryUseCase, error) {
	c.historyUseCaseInit.Do(func() {
		repo, err := c.RoutePassRepository()
		if err != nil {
			c.initErrors["historyUseCase"] = err
			return
		}
		c.historyUseCase = routePassUseCase.NewHistoryUseCase(repo)
	})
	if storedErr, exists := c.initErrors["historyUseCase"]; exists {
		return nil, storedErr
	}
	return c.historyUseCase, nil
}

// initIssuerUseCase creates the issuer use case with all its dependencies.
func (c *Container) initIssuerUseCase(ctx context.Context) (routePassUseCase.IssuerUseCase, error) {
	repo, err := c.RoutePassRepository()
	if err != nil {
		return nil, err
	}

	dir, err := c.Directory()
	if err != nil {
		return nil, err
	}

	scheduleService, err := c.ScheduleService()
	if err != nil {
		return nil, err
	}

	authority, err := c.Authority(ctx)
	if err != nil {
		return nil, err
	}

	useCase := routePassUseCase.NewIssuerUseCase(
		c.config.IssuerID,
		c.config.RoutePassTTL,
		repo,
		dir,
		scheduleService,
		authority,
		c.Logger(),
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	return routePassUseCase.NewIssuerUseCaseWithMetrics(useCase, businessMetrics), nil
}
