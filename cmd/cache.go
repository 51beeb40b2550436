package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the persistent name cache",
}

// -- cache stats --

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show persistent cache size and settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCacheStats(cmd.Context(), cmd.OutOrStdout())
	},
}

// -- cache cleanup --

var cacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete cache entries older than the configured TTL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCacheCleanup(cmd.Context(), cmd.OutOrStdout())
	},
}

// -- cache clear --

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cache entry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return eris.New("cache clear: pass --yes to confirm")
		}
		return runCacheClear(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	cacheClearCmd.Flags().Bool("yes", false, "confirm deleting every entry")
	cacheCmd.AddCommand(cacheStatsCmd, cacheCleanupCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(ctx context.Context, out io.Writer) error {
	st, err := initStore(ctx)
	if err != nil {
		return eris.Wrap(err, "cache stats: init store")
	}
	defer st.Close() //nolint:errcheck

	n, err := st.Count(ctx)
	if err != nil {
		return eris.Wrap(err, "cache stats: count")
	}

	cc := cacheConfig()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Driver\t%s\n", cfg.Store.Driver)
	_, _ = fmt.Fprintf(w, "Entries\t%d\n", n)
	_, _ = fmt.Fprintf(w, "TTL\t%s\n", cc.TTL)
	_, _ = fmt.Fprintf(w, "Memory capacity\t%d\n", cc.MaxMemory)
	_, _ = fmt.Fprintf(w, "Flush batch size\t%d\n", cc.FlushBatchSize)
	return w.Flush()
}

func runCacheCleanup(ctx context.Context, out io.Writer) error {
	st, c, err := initCache(ctx)
	if err != nil {
		return eris.Wrap(err, "cache cleanup: init")
	}
	defer st.Close() //nolint:errcheck

	n, err := c.CleanupExpired(ctx)
	if err != nil {
		return eris.Wrap(err, "cache cleanup")
	}
	_, _ = fmt.Fprintf(out, "Removed %d expired entries\n", n)
	return nil
}

func runCacheClear(ctx context.Context, out io.Writer) error {
	st, c, err := initCache(ctx)
	if err != nil {
		return eris.Wrap(err, "cache clear: init")
	}
	defer st.Close() //nolint:errcheck

	n, err := st.Count(ctx)
	if err != nil {
		return eris.Wrap(err, "cache clear: count")
	}
	if err := c.ClearAll(ctx); err != nil {
		return eris.Wrap(err, "cache clear")
	}
	_, _ = fmt.Fprintf(out, "Removed %d entries\n", n)
	return nil
}
