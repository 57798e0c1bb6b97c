package commands

import (
	"context"
	"fmt"

	"github.com/skatamatic/blulok-cloud-sub010/internal/app"
	"github.com/skatamatic/blulok-cloud-sub010/internal/config"
	signingUseCase "github.com/skatamatic/blulok-cloud-sub010/internal/signing/usecase"
)

// RunRotateOperationsKey runs an operations key rotation ceremony from the
// CLI. No gateway hub is running in this process, so connected gateways learn
// the new key on their next reconnect; prefer the server's rotation endpoint
// when live distribution matters.
func RunRotateOperationsKey(ctx context.Context, rootPrivateKey string, ts int64) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	rotation, err := container.RotationUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize rotation use case: %w", err)
	}

	output, err := rotation.RotateOperationsKey(ctx, &signingUseCase.RotateInput{
		RootPrivateKey: rootPrivateKey,
		Ts:             ts,
	})
	if err != nil {
		return fmt.Errorf("rotation ceremony failed: %w", err)
	}

	io := DefaultIO()
	fmt.Fprintln(io.Writer, "Operations key rotated.")
	fmt.Fprintf(io.Writer, "New public key: %s\n", output.Payload.NewPublicKey)
	fmt.Fprintf(io.Writer, "Rotation watermark: %d\n", output.Payload.Ts)

	if output.GeneratedPrivateKey != "" {
		fmt.Fprintln(io.Writer, "WARNING: no KMS configured. Store the operations private key now;")
		fmt.Fprintln(io.Writer, "it will not be shown again.")
		fmt.Fprintf(io.Writer, "Operations private key: %s\n", output.GeneratedPrivateKey)
	}

	return nil
}
