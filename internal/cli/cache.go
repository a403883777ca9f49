package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ppiankov/gwaln/internal/cache"
	"github.com/ppiankov/gwaln/internal/model"
	"github.com/spf13/cobra"
)

var cacheJSON bool

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the analysis cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List cached reports with schema and freshness",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store := cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.TTL())
		entries, err := store.List()
		if err != nil {
			return fmt.Errorf("list cache: %w", err)
		}

		if cacheJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		return printCacheEntries(cmd.OutOrStdout(), cfg.Cache.Dir, entries)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [topic-id...]",
	Short: "Delete cached reports (all of them when no topic is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store := cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.TTL())
		if len(args) == 0 {
			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Cleared %s\n", cfg.Cache.Dir)
			return nil
		}

		for _, id := range args {
			if err := store.Delete(id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			fmt.Fprintf(os.Stderr, "✓ Deleted %s\n", store.Path(id))
		}
		return nil
	},
}

// printCacheEntries renders cache entries as an aligned table
func printCacheEntries(w io.Writer, dir string, entries []cache.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintf(w, "No cached reports in %s\n", dir)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOPIC\tSCHEMA\tGENERATED\tSTATE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.TopicID, schemaLabel(e), timestampLabel(e.Timestamp), entryState(e))
	}
	return tw.Flush()
}

func schemaLabel(e cache.Entry) string {
	switch {
	case e.Invalid:
		return "-"
	case e.Schema == "":
		return "legacy"
	default:
		return e.Schema
	}
}

func timestampLabel(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// entryState summarises whether an entry would be reused as-is
func entryState(e cache.Entry) string {
	switch {
	case e.Invalid:
		return string(cache.StatusInvalid)
	case e.Expired:
		return string(cache.StatusStale)
	case e.Schema != model.SchemaVersion:
		return "fresh (legacy, coerced on reuse)"
	default:
		return string(cache.StatusFresh)
	}
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheStatusCmd.Flags().BoolVar(&cacheJSON, "json", false, "print entries as JSON")
}
