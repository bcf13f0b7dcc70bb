package cmd

import (
	"fmt"

	"github.com/huangsam/flowtrack/core"
	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/outwriter"
	"github.com/huangsam/flowtrack/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// scoreCmd scores one snapshot given on the command line.
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute a flow score from one metrics snapshot",
	Long: `Compute a single flow score from headset metrics and browser activity.

Metric flags are 0-1 ratios except --baseline (0-100). Activity flags are
durations within --window. Pass --previous to get a trend.

Examples:
  # A steady session with some leisure browsing
  flowtrack score --baseline 70 --attention 1 --stability 1 --tab-switches 5 --window 1m --leisure 30s

  # Show the component breakdown
  flowtrack score --baseline 85 --observed focus --explain`,
	PreRunE: configOnlySetup,
	Run: func(cmd *cobra.Command, _ []string) {
		m, a, previous, err := scoreInputs(cmd.Flags())
		if err != nil {
			contract.LogFatal("Invalid score input", err)
		}
		result := core.ComputeFlowScore(m, a, cfg.TargetMode, previous)
		if err := outwriter.NewOutWriter().WriteScore(result, cfg); err != nil {
			contract.LogFatal("Error writing score output", err)
		}
	},
}

// scoreInputs reads the metrics snapshot and activity signals from flags.
func scoreInputs(flags *pflag.FlagSet) (schema.HardwareMetrics, schema.ActivitySignals, *float64, error) {
	var (
		m schema.HardwareMetrics
		a schema.ActivitySignals
	)

	floats := []struct {
		name string
		dst  *float64
	}{
		{"baseline", &m.Baseline},
		{"stability", &m.Stability},
		{"attention", &m.AttentionSpan},
		{"context-switch-rate", &m.ContextSwitchRate},
		{"fatigue", &m.MentalFatigue},
		{"tab-switches", &a.TabSwitchesPerMin},
	}
	for _, f := range floats {
		v, err := flags.GetFloat64(f.name)
		if err != nil {
			return m, a, nil, err
		}
		*f.dst = v
	}

	durations := []struct {
		name string
		dst  *int64
	}{
		{"window", &a.WindowMs},
		{"leisure", &a.LeisureMs},
		{"communication", &a.CommunicationMs},
		{"idle", &a.IdleMs},
	}
	for _, d := range durations {
		v, err := flags.GetDuration(d.name)
		if err != nil {
			return m, a, nil, err
		}
		if v < 0 {
			return m, a, nil, fmt.Errorf("--%s cannot be negative", d.name)
		}
		*d.dst = v.Milliseconds()
	}

	observed, _ := flags.GetString("observed")
	state, err := schema.ParseFlowState(observed)
	if err != nil {
		return m, a, nil, fmt.Errorf("invalid --observed: %w", err)
	}
	m.ObservedState = state

	var previous *float64
	if flags.Changed("previous") {
		v, _ := flags.GetFloat64("previous")
		previous = &v
	}
	return m, a, previous, nil
}
