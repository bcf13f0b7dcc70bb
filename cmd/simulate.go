package cmd

import (
	"time"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/outwriter"
	"github.com/huangsam/flowtrack/internal/session"
	"github.com/spf13/cobra"
)

// simulateCmd runs the flow simulator offline.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the deterministic flow simulator and score each tick",
	Long: `Run the flow simulator for a fixed number of ticks without a live session.

Each tick samples the simulated headset metrics, scores them against
--target-mode and reports the score, label and trend. The same --seed always
produces the same sequence, which makes this useful for tuning anchors files.

Examples:
  # Twelve ticks toward focus
  flowtrack simulate

  # A longer run with a custom anchors file and the score breakdown
  flowtrack simulate --ticks 60 --anchors-file anchors.toml --explain

  # Export ticks for analysis
  flowtrack simulate --ticks 500 --output parquet --output-file ticks.parquet`,
	PreRunE: configOnlySetup,
	Run: func(_ *cobra.Command, _ []string) {
		start := time.Now()
		outputs, err := session.Simulate(cfg, start.UnixMilli(), cfg.Ticks)
		if err != nil {
			contract.LogFatal("Simulation failed", err)
		}
		if err := outwriter.NewOutWriter().WriteSimulation(outputs, cfg); err != nil {
			contract.LogFatal("Error writing simulation output", err)
		}
	},
}
