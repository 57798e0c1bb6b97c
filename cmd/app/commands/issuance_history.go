package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/skatamatic/blulok-cloud-sub010/internal/app"
	"github.com/skatamatic/blulok-cloud-sub010/internal/config"
	"github.com/skatamatic/blulok-cloud-sub010/internal/routepass/domain"
)

// RunIssuanceHistory prints the issuance audit trail for a user, newest first.
// days limits the report to passes issued within the last N days (0 for all).
// Supports text and JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunIssuanceHistory(ctx context.Context, userID string, days, limit int, format string) error {
	if userID == "" {
		return fmt.Errorf("user-id is required")
	}
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than zero, got: %d", limit)
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	historyUseCase, err := container.HistoryUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize history use case: %w", err)
	}

	filter := domain.HistoryFilter{
		UserID: userID,
		Limit:  limit,
	}
	if days > 0 {
		startDate := time.Now().AddDate(0, 0, -days)
		filter.StartDate = &startDate
	}

	issuances, total, err := historyUseCase.History(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to query issuance history: %w", err)
	}

	if format == "json" {
		outputIssuanceHistoryJSON(issuances, total)
	} else {
		outputIssuanceHistoryText(userID, issuances, total)
	}

	logger.Info("issuance history report completed",
		slog.String("user_id", userID),
		slog.Int64("total", total),
		slog.Int("shown", len(issuances)),
	)

	return nil
}

// outputIssuanceHistoryText outputs the report in human-readable text format.
func outputIssuanceHistoryText(userID string, issuances []*domain.RoutePassIssuance, total int64) {
	fmt.Printf("Issuance history for %s (%d total, showing %d):\n", userID, total, len(issuances))
	for _, issuance := range issuances {
		fmt.Printf("  %s  jti=%s  device=%s  audiences=%d  expires=%s\n",
			issuance.IssuedAt.Format(time.RFC3339),
			issuance.Jti,
			issuance.DeviceID,
			len(issuance.Audiences),
			issuance.ExpiresAt.Format(time.RFC3339),
		)
	}
}

// outputIssuanceHistoryJSON outputs the report in JSON format for machine consumption.
func outputIssuanceHistoryJSON(issuances []*domain.RoutePassIssuance, total int64) {
	result := map[string]interface{}{
		"total":     total,
		"issuances": issuances,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Println(string(jsonBytes))
}
