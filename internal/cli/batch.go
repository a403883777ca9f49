package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/gwaln/internal/model"
	"github.com/ppiankov/gwaln/internal/pipeline"
	"github.com/ppiankov/gwaln/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchForce   bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <topics.yaml>",
	Short: "Compare every topic in a topics file in parallel",
	Long: `Batch compares all topics listed in a YAML file concurrently:
- Read topics (id, title, wikipedia, grokipedia) from the file
- Compare topics in parallel with a configurable worker count
- Reuse fresh cached reports, recompute the rest
- Write one JSON report per topic to the output directory

Example topics file:
  topics:
    - id: mars
      title: Mars
      wikipedia: https://en.wikipedia.org/wiki/Mars
      grokipedia: https://grokipedia.com/page/Mars

Example:
  gwaln batch topics.yaml
  gwaln batch topics.yaml --concurrency 8 --output-dir ./reports
  gwaln batch topics.yaml --force --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for reports (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchForce, "force", false, "recompute even when cached reports are fresh")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  gwaln Batch Comparison\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Topics file:  %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	stats, err := runTopicsFile(ctx, p, cfg, file, pipeline.CompareOptions{Force: batchForce})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d topics\n", stats.Total)
	fmt.Fprintf(os.Stderr, "  Computed:  %d\n", stats.Computed)
	fmt.Fprintf(os.Stderr, "  Reused:    %d\n", stats.Reused)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", stats.Failed)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "\n")

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d topics failed", stats.Failed, stats.Total)
	}
	return nil
}

// batchStats counts the outcomes of one pass over a topics file
type batchStats struct {
	Total    int
	Computed int
	Reused   int
	Failed   int
}

// runTopicsFile compares every topic in file and writes each report to the
// configured output directory. Per-topic failures are counted, not returned.
func runTopicsFile(ctx context.Context, comparer worker.Comparer, cfg *model.Config, file string, opts pipeline.CompareOptions) (batchStats, error) {
	processor := worker.NewBatchProcessor(comparer, cfg.Concurrency.Workers, opts)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return batchStats{}, fmt.Errorf("process file: %w", err)
	}

	stats := batchStats{Total: len(results)}
	for _, result := range results {
		if result.Error != nil {
			stats.Failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Topic.DisplayTitle(), result.Error)
			continue
		}

		path := reportPath(cfg.Output.Dir, result.Topic.ID)
		if err := writeReportFile(path, result.Result.Report, cfg.Output.Pretty); err != nil {
			stats.Failed++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write report: %v\n", result.Topic.DisplayTitle(), err)
			continue
		}

		if result.Result.Reused {
			stats.Reused++
		} else {
			stats.Computed++
		}
		fmt.Fprintf(os.Stderr, "✓ %s\n", describeResult(result.Result))
	}

	return stats, nil
}
