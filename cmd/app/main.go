// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/skatamatic/blulok-cloud-sub010/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "BluLok capability issuance and revocation service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the API and metrics servers",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "init-signing-keys",
				Usage: "Run the first-boot signing key ceremony",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunInitSigningKeys(ctx)
				},
			},
			{
				Name:  "rotate-operations-key",
				Usage: "Rotate the operations signing key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "root-private-key",
						Aliases: []string{"r"},
						Value:   "",
						Usage:   "Base64 root private key or seed (omit to unwrap from the configured KMS)",
					},
					&cli.IntFlag{
						Name:    "ts",
						Aliases: []string{"t"},
						Value:   0,
						Usage:   "Rotation watermark in unix seconds (0 uses the current time)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRotateOperationsKey(
						ctx,
						cmd.String("root-private-key"),
						int64(cmd.Int("ts")),
					)
				},
			},
			{
				Name:  "issuance-history",
				Usage: "Report the route pass issuance audit trail for a user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "user-id",
						Aliases: []string{"u"},
						Value:   "",
						Usage:   "User to report on",
					},
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"d"},
						Value:   0,
						Usage:   "Only include passes issued within the last N days (0 for all)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Value:   50,
						Usage:   "Maximum rows to print",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: text or json",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunIssuanceHistory(
						ctx,
						cmd.String("user-id"),
						int(cmd.Int("days")),
						int(cmd.Int("limit")),
						cmd.String("format"),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
