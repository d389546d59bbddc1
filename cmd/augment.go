package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"sensor_telemetry/internal/service"

	"github.com/spf13/cobra"
)

var (
	augmentFrom string
	augmentTo   string
	augmentSeed uint64

	augmentCmd = &cobra.Command{
		Use:   "augment",
		Short: "Run one augmentation job over stored raw readings and exit",
		Args:  cobra.NoArgs,
		RunE:  runAugment,
	}
)

func init() {
	augmentCmd.Flags().StringVar(&augmentFrom, "from", "", "window start (RFC3339 or YYYY-MM-DD); defaults to to minus the configured lookback")
	augmentCmd.Flags().StringVar(&augmentTo, "to", "", "window end (RFC3339 or YYYY-MM-DD, end of day); defaults to now")
	augmentCmd.Flags().Uint64Var(&augmentSeed, "seed", 0, "random seed; 0 uses the configured seed or the clock")
}

func runAugment(cmd *cobra.Command, _ []string) error {
	params, err := augmentParams(augmentFrom, augmentTo, augmentSeed)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	jobID, err := a.services.Augmentation.RunJob(ctx, params)
	if err != nil {
		return fmt.Errorf("augmentation job %s: %w", jobID, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "augmentation job %s complete\n", jobID)
	return nil
}

func augmentParams(from, to string, seed uint64) (service.JobParams, error) {
	p := service.JobParams{Seed: seed}
	var err error
	if from != "" {
		if p.From, err = parseFlagTime(from, false); err != nil {
			return p, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		if p.To, err = parseFlagTime(to, true); err != nil {
			return p, fmt.Errorf("--to: %w", err)
		}
	}
	if !p.From.IsZero() && !p.To.IsZero() && !p.From.Before(p.To) {
		return p, fmt.Errorf("--from must be before --to")
	}
	return p, nil
}

// parseFlagTime accepts RFC3339 or a bare date; a bare upper bound covers the whole day.
func parseFlagTime(s string, upper bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	if upper {
		return d.Add(24*time.Hour - time.Nanosecond).UTC(), nil
	}
	return d.UTC(), nil
}
