package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jjenkins/evcms/internal/service"
	"github.com/spf13/cobra"
)

var statsStore bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show content statistics",
	Long: `Stats counts the items of every collection and reports drafts, pro and
featured items, the most covered brand and category, and the newest entry.

With --store the figures are also written to the metrics table of the
configured database.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsStore, "store", false, "Store the metrics in the configured database")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if statsStore && cfg.Database.URL == "" {
		return fmt.Errorf("--store requires database.url or DATABASE_URL")
	}

	a, err := newApp(cfg, statsStore)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	metrics := a.metricsService()

	var m *service.ContentMetrics
	if statsStore {
		m, err = metrics.CalculateAndStore(ctx)
	} else {
		m, err = metrics.Calculate(ctx)
	}
	if err != nil {
		return err
	}

	printStats(cmd.OutOrStdout(), m)
	return nil
}

func printStats(w io.Writer, m *service.ContentMetrics) {
	fmt.Fprintln(w, "=== Content Metrics ===")
	for _, c := range m.Collections {
		fmt.Fprintf(w, "%-14s %3d total  %3d published  %3d drafts  %3d pro  %3d featured\n",
			c.Collection+":", c.Total, c.Published, c.Drafts, c.Pro, c.Featured)
	}
	fmt.Fprintf(w, "Total items:     %d\n", m.TotalItems)
	fmt.Fprintf(w, "Reading minutes: %d\n", m.TotalMinutes)
	fmt.Fprintf(w, "Top brand:       %s\n", orDash(m.TopBrand))
	fmt.Fprintf(w, "Top category:    %s\n", orDash(m.TopCategory))
	if m.LatestItemID != "" {
		fmt.Fprintf(w, "Latest entry:    %s (%s)\n", m.LatestItemID, m.LatestDate)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
