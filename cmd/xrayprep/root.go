package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alexshd/xrayprep/internal/logging"
	"github.com/alexshd/xrayprep/internal/plan"
	"github.com/spf13/cobra"
)

// logger is configured from --log-level before any command runs.
var logger = logging.NewNop()

var rootCmd = &cobra.Command{
	Use:   "xrayprep",
	Short: "Plan X-ray absorption sample preparation",
	Long: `xrayprep solves sample/diluent mixtures for a target edge step, finds the
edge step that gives a target absorption, searches the largest dilution or
thickness that keeps fluorescence self-absorption acceptable, and classifies
candidate samples for transmission and fluorescence measurement.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, _ := cmd.Flags().GetString("log-level")
		level, err := logging.ParseLevel(lvl)
		if err != nil {
			return err
		}
		logger = logging.New(level, cmd.ErrOrStderr())
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

// loadPlan reads the file named by the command's --plan flag.
func loadPlan(cmd *cobra.Command) (*plan.Plan, error) {
	path, _ := cmd.Flags().GetString("plan")
	if path == "" {
		return nil, fmt.Errorf("--plan is required")
	}
	p, err := plan.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("plan loaded",
		"path", path,
		"candidates", len(p.Candidates),
		"searches", len(p.Searches),
		"gas_edits", len(p.Gas.Edits))
	return p, nil
}
