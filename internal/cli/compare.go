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
	wikiSource     string
	grokSource     string
	topicTitle     string
	topicsFile     string
	outPath        string
	force          bool
	compareTimeout time.Duration
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <topic-id>",
	Short: "Compare one topic's Wikipedia and Grokipedia articles",
	Long: `Compare loads both articles (URL or local file), aligns them and
writes the structured JSON report.

The topic is described either by --wiki/--grok sources or by looking up
its ID in a topics file. A fresh cached report is reused unless --force.

Example:
  gwaln compare mars --wiki https://en.wikipedia.org/wiki/Mars --grok https://grokipedia.com/page/Mars
  gwaln compare mars --wiki mars-wiki.html --grok mars-grok.md --out mars.json
  gwaln compare mars --topics topics.yaml --force`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&wikiSource, "wiki", "", "Wikipedia source (URL or file)")
	compareCmd.Flags().StringVar(&grokSource, "grok", "", "Grokipedia source (URL or file)")
	compareCmd.Flags().StringVar(&topicTitle, "title", "", "display title (defaults to the topic ID)")
	compareCmd.Flags().StringVar(&topicsFile, "topics", "", "topics YAML file to look the topic up in")
	compareCmd.Flags().StringVar(&outPath, "out", "-", "report output path (- for stdout)")
	compareCmd.Flags().BoolVar(&force, "force", false, "recompute even when the cached report is fresh")
	compareCmd.Flags().DurationVar(&compareTimeout, "timeout", 5*time.Minute, "overall comparison timeout")
}

func runCompare(cmd *cobra.Command, args []string) error {
	topic, err := resolveTopic(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), compareTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Comparing: %s\n", topic.DisplayTitle())
		fmt.Fprintf(os.Stderr, "  Wikipedia:  %s\n", topic.WikipediaURL)
		fmt.Fprintf(os.Stderr, "  Grokipedia: %s\n", topic.GrokipediaURL)
		fmt.Fprintln(os.Stderr)
	}

	result, err := p.Compare(ctx, topic, pipeline.CompareOptions{Force: force})
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ %s\n", describeResult(result))

	if outPath == "" || outPath == "-" {
		return encodeReport(cmd.OutOrStdout(), result.Report, cfg.Output.Pretty)
	}
	if err := writeReportFile(outPath, result.Report, cfg.Output.Pretty); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Report written: %s\n", outPath)
	return nil
}

// resolveTopic builds the topic from flags or from the topics file
func resolveTopic(id string) (model.Topic, error) {
	if topicsFile != "" {
		topics, err := worker.ReadTopicsFile(topicsFile)
		if err != nil {
			return model.Topic{}, err
		}
		for _, t := range topics {
			if t.ID == id {
				return t, nil
			}
		}
		return model.Topic{}, fmt.Errorf("topic %q not found in %s", id, topicsFile)
	}

	if wikiSource == "" || grokSource == "" {
		return model.Topic{}, fmt.Errorf("both --wiki and --grok are required unless --topics is given")
	}
	return model.Topic{
		ID:            id,
		Title:         topicTitle,
		WikipediaURL:  wikiSource,
		GrokipediaURL: grokSource,
	}, nil
}
