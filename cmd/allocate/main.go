// Command allocate prints a property's cost allocation for one billing period as JSON.
//
//	allocate -property <id> [-period 2024-03] [-db ./data/colivsplit.db]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mmynk/colivsplit/internal/calculator"
	"github.com/mmynk/colivsplit/internal/config"
	"github.com/mmynk/colivsplit/internal/models"
	"github.com/mmynk/colivsplit/internal/service"
	"github.com/mmynk/colivsplit/internal/storage/sqlite"
	"github.com/mmynk/colivsplit/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	propertyID := flag.String("property", "", "property ID (required)")
	periodStr := flag.String("period", models.PeriodOf(time.Now()).String(), "billing period (YYYY-MM)")
	flag.Parse()

	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if *propertyID == "" {
		flag.Usage()
		os.Exit(2)
	}
	period, err := models.ParsePeriod(*periodStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	code := run(context.Background(), service.NewAllocationService(store, nil), *propertyID, period, os.Stdout)
	store.Close()
	os.Exit(code)
}

// allocator is the part of the allocation service the command drives.
type allocator interface {
	Allocate(ctx context.Context, propertyID string, period models.Period) (*calculator.AllocationResult, error)
}

// run writes the allocation report to out and returns the process exit code.
// A property with nothing to allocate exits 3 so scripts can tell it from a failure.
func run(ctx context.Context, svc allocator, propertyID string, period models.Period, out io.Writer) int {
	code := 0
	result, err := svc.Allocate(ctx, propertyID, period)
	switch {
	case calculator.NothingToAllocate(err):
		result = emptyResult(propertyID, period, err)
		code = 3
	case err != nil:
		slog.Error("Allocation failed", "property_id", propertyID, "period", period.String(), "error", err)
		return 1
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		slog.Error("Failed to write report", "error", err)
		return 1
	}
	return code
}

// emptyResult is the report for a property nobody has to pay for.
func emptyResult(propertyID string, period models.Period, err error) *calculator.AllocationResult {
	result := &calculator.AllocationResult{
		PropertyID:  propertyID,
		Period:      period.String(),
		PerOccupant: map[string]calculator.OccupantShare{},
	}
	var noOccupants *calculator.NoOccupantsError
	if errors.As(err, &noOccupants) {
		result.TotalCapacity = noOccupants.TotalCapacity
	}
	return result
}
