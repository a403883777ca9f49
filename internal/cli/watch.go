package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/gwaln/internal/logging"
	"github.com/ppiankov/gwaln/internal/pipeline"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	watchSchedule string
	watchOnce     bool
	runTimeout    time.Duration
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <topics.yaml>",
	Short: "Re-run a topics file on a cron schedule",
	Long: `Watch compares every topic in the file immediately and then again on
each tick of a standard 5-field cron schedule (minute hour dom month dow).

Unchanged articles are served from the cache, so only topics whose
sources changed or whose report expired are recomputed.

Example:
  gwaln watch topics.yaml
  gwaln watch topics.yaml --schedule "0 9 * * 1-5"`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron expression (default from config)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "run a single pass and exit")
	watchCmd.Flags().DurationVar(&runTimeout, "run-timeout", 30*time.Minute, "timeout for each pass")
}

func runWatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchSchedule != "" {
		cfg.Schedule = watchSchedule
	}

	sched, err := parseSchedule(cfg.Schedule)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	pass := func(ctx context.Context) {
		passCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()

		started := time.Now()
		stats, err := runTopicsFile(passCtx, p, cfg, file, pipeline.CompareOptions{})
		if err != nil {
			logging.Error("Watch pass failed", "file", file, "error", err)
			return
		}
		logging.Info("Watch pass complete",
			"topics", stats.Total,
			"computed", stats.Computed,
			"reused", stats.Reused,
			"failed", stats.Failed,
			"took", time.Since(started).Round(time.Millisecond))
	}

	ctx := cmd.Context()
	pass(ctx)
	if watchOnce {
		return nil
	}

	fmt.Fprintf(os.Stderr, "Watching %s (cron: %s), Ctrl+C to stop\n", file, cfg.Schedule)
	err = watchLoop(ctx, sched, time.Now, pass)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// parseSchedule parses a standard 5-field cron expression
func parseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("no schedule configured")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	if sched.Next(time.Now()).IsZero() {
		return nil, fmt.Errorf("schedule %q never fires", expr)
	}
	return sched, nil
}

// errNoUpcomingRun is returned when a schedule has no future activation
var errNoUpcomingRun = errors.New("schedule has no upcoming run")

// watchLoop runs pass at every tick of sched until ctx is done
func watchLoop(ctx context.Context, sched cron.Schedule, now func() time.Time, pass func(context.Context)) error {
	for {
		current := now()
		next := sched.Next(current)
		if next.IsZero() {
			return errNoUpcomingRun
		}
		wait := next.Sub(current)
		logging.Info("Next watch pass", "at", next.Format(time.RFC3339), "in", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		pass(ctx)
	}
}
