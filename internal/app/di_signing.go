package app

import (
	"context"
	"fmt"

	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
	signingRepository "github.com/skatamatic/blulok-cloud-sub010/internal/signing/repository"
	signingService "github.com/skatamatic/blulok-cloud-sub010/internal/signing/service"
	signingUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/signing/usecase"
)

// KeyStateRepository returns the signing key state repository instance.
func (c *Container) KeyStateRepository() (signingUseCase.KeyStateRepository, error) {
	c.keyStateRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["keyStateRepo"] = fmt.Errorf("failed to get database for key state repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.keyStateRepo = signingRepository.NewMySQLKeyStateRepository(db)
		case "postgres":
			c.keyStateRepo = signingRepository.NewPostgreSQLKeyStateRepository(db)
		default:
			c.initErrors["keyStateRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["keyStateRepo"]; exists {
		return nil, storedErr
	}
	return c.keyStateRepo, nil
}

// Authority returns the signing authority, unwrapping the persisted operations
// seed on first access. The process must have been through the init-signing-keys
// ceremony; ErrKeyStateNotFound here means it has not.
func (c *Container) Authority(ctx context.Context) (*signingService.Authority, error) {
	c.authorityInit.Do(func() {
		authority, err := c.initAuthority(ctx)
		if err != nil {
			c.initErrors["authority"] = err
			return
		}
		c.mu.Lock()
		c.authority = authority
		c.mu.Unlock()
	})
	if storedErr, exists := c.initErrors["authority"]; exists {
		return nil, storedErr
	}
	return c.authority, nil
}

// RotationUseCase returns the key rotation use case instance.
func (c *Container) RotationUseCase() (signingUseCase.RotationUseCase, error) {
	c.rotationUseCaseInit.Do(func() {
		keyStateRepo, err := c.KeyStateRepository()
		if err != nil {
			c.initErrors["rotationUseCase"] = err
			return
		}

		c.rotationUseCase = signingUseCase.NewRotationUseCase(
			c.config,
			keyStateRepo,
			c.signer,
			c.kmsService,
			c.Hub(),
			&liveAuthorityInstaller{container: c},
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["rotationUseCase"]; exists {
		return nil, storedErr
	}
	return c.rotationUseCase, nil
}

// liveAuthorityInstaller swaps rotated operations seeds into the container's
// authority. A rotation before the authority's first access needs no swap:
// initAuthority reads the already-advanced key state.
type liveAuthorityInstaller struct {
	container *Container
}

func (i *liveAuthorityInstaller) InstallOperationsKey(operationsSeed []byte) error {
	i.container.mu.Lock()
	authority := i.container.authority
	i.container.mu.Unlock()

	if authority == nil {
		return nil
	}
	return authority.Rotate(operationsSeed)
}

// initAuthority loads the key state and unwraps the operations seed.
func (c *Container) initAuthority(ctx context.Context) (*signingService.Authority, error) {
	keyStateRepo, err := c.KeyStateRepository()
	if err != nil {
		return nil, err
	}

	state, err := keyStateRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key state: %w", err)
	}

	seed, err := c.unwrapOperationsSeed(ctx, state.EncryptedOperationsSeed)
	if err != nil {
		return nil, err
	}
	defer signingDomain.Zero(seed)

	authority, err := signingService.NewAuthority(c.signer, c.tokenSigner, seed, state.RootPublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create signing authority: %w", err)
	}

	return authority, nil
}

// unwrapOperationsSeed decrypts the persisted operations seed through the
// configured KMS. Without a KMS the seed is stored unwrapped (development only).
func (c *Container) unwrapOperationsSeed(ctx context.Context, encrypted []byte) ([]byte, error) {
	if c.config.KMSKeyURI == "" {
		return append([]byte(nil), encrypted...), nil
	}

	keeper, err := c.kmsService.OpenKeeper(ctx, c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		_ = keeper.Close()
	}()

	seed, err := keeper.Decrypt(ctx, encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap operations seed: %w", err)
	}

	return seed, nil
}
