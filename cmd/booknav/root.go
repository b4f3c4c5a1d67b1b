package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/netpyoung/booknav/internal/config"
	"github.com/netpyoung/booknav/internal/navtree"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "booknav",
	Short: "Mount and preview a book's sidebar table of contents",
	Long: `booknav mounts a book's navigation tree the way the sidebar does in the
browser: links are rebased for the page's depth, the current chapter is
marked and revealed, and the sidebar scroll position is carried across
navigations.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "booknav.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads and validates the configuration and resolves the tree.
func loadConfig() (config.Config, string, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, "", err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, "", fmt.Errorf("invalid configuration: %w", err)
	}
	tree, err := navtree.Load(cfg.TreeFile, cfg.SummaryFile)
	if err != nil {
		return cfg, "", fmt.Errorf("loading navigation tree: %w", err)
	}
	return cfg, tree, nil
}
