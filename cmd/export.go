package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jjenkins/evcms/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the public JSON feeds to a directory",
	Long: `Export renders the published items of every collection and writes one
JSON array per collection, the same documents served under /api/public.

Examples:
  # Write intelligence.json and models.json into ./public/data
  evcms export --out public/data

  # Export from a different content checkout
  evcms export --root ../site --out ../site/public/data`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "public/data", "Directory to write the feeds into")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(exportOut, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, coll := range model.Collections {
		items, err := a.feed.Published(ctx, coll)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", coll, err)
		}

		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", coll, err)
		}

		target := filepath.Join(exportOut, string(coll)+".json")
		if err := os.WriteFile(target, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		a.logger.Info("exported collection",
			zap.String("collection", string(coll)),
			zap.Int("items", len(items)),
			zap.String("file", target),
		)
	}

	return nil
}
