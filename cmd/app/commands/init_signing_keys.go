package commands

import (
	"context"
	"fmt"

	"github.com/skatamatic/blulok-cloud-sub010/internal/app"
	"github.com/skatamatic/blulok-cloud-sub010/internal/config"
)

// RunInitSigningKeys runs the first-boot key ceremony: generates the root and
// operations key pairs, wraps them through the configured KMS, and persists
// the initial key state. The root public key output is the trust anchor to
// burn into device firmware images.
func RunInitSigningKeys(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	rotation, err := container.RotationUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize rotation use case: %w", err)
	}

	output, err := rotation.InitializeKeys(ctx)
	if err != nil {
		return fmt.Errorf("key ceremony failed: %w", err)
	}

	io := DefaultIO()
	fmt.Fprintln(io.Writer, "Signing keys initialized.")
	fmt.Fprintf(io.Writer, "Root public key (firmware trust anchor): %s\n", output.RootPublicKey)
	fmt.Fprintf(io.Writer, "Operations public key: %s\n", output.OperationsPublicKey)

	if output.RootKeyCiphertext != "" {
		fmt.Fprintf(io.Writer, "Root key ciphertext (set ROOT_KEY_CIPHERTEXT): %s\n", output.RootKeyCiphertext)
	}

	if output.RootPrivateKey != "" {
		fmt.Fprintln(io.Writer, "WARNING: no KMS configured. Store the root private key offline now;")
		fmt.Fprintln(io.Writer, "it will not be shown again.")
		fmt.Fprintf(io.Writer, "Root private key: %s\n", output.RootPrivateKey)
	}

	return nil
}
