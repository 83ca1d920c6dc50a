package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/BrianaLong/CS340---Client-Server-Development/config"
	"github.com/BrianaLong/CS340---Client-Server-Development/crud"
	"github.com/BrianaLong/CS340---Client-Server-Development/metrics"
	"github.com/BrianaLong/CS340---Client-Server-Development/test"
)

// RunIDField tags the sample so concurrent runs against one collection don't see each other.
const RunIDField = "RunID"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout))
}

func run(ctx context.Context, args []string, out io.Writer) int {
	cfg, err := config.Load("crudsmoke", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "usage: crudsmoke [flags]: %s\n", err)
		return 2
	}

	logger, closer, err := cfg.Log.Logger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to configure logging: %s\n", err)
		return 2
	}
	defer func() { _ = closer.Close() }()

	reg := prometheus.NewRegistry()
	observer := metrics.NewObserver()
	observer.RegisterCollectors(reg)

	settings := cfg.Settings(test.AnimalValidatorJSON)
	settings.Logger = &logger
	accessor, err := crud.Connect(ctx, settings, crud.WithObserver(observer))
	if err != nil {
		logger.Error().Err(err).Msg("Could not connect to MongoDB")
		return 1
	}
	defer func() {
		if err := accessor.Close(); err != nil {
			logger.Warn().Err(err).Msg("Close accessor")
		}
	}()

	scenario := newScenario(uuid.NewString())
	logger.Info().Str("runID", fmt.Sprint(scenario.Key[RunIDField])).Msg("Running scenario")

	report := scenario.Run(accessor)
	report.Write(out)

	fmt.Fprintln(out, "\n--- Metrics ---")
	if err := metrics.WriteSummary(reg, out); err != nil {
		logger.Warn().Err(err).Msg("Metrics summary")
	}

	if !report.Passed() {
		fmt.Fprintln(out, "\nSmoke test FAILED")
		return 1
	}
	fmt.Fprintln(out, "\nSmoke test passed")
	return 0
}

func newScenario(runID string) *crud.Scenario {
	sample := test.Sam()
	sample[RunIDField] = runID
	return &crud.Scenario{
		Sample:  sample,
		Key:     crud.Document{"Name": sample["Name"], RunIDField: runID},
		Changes: crud.Document{"Age": 5},
	}
}
