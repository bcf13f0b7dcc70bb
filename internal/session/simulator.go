package session

import (
	"fmt"

	"github.com/huangsam/flowtrack/core"
	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/schema"
)

// NewSimulator builds a simulator from the seed, dwell and optional anchors
// file in cfg.
func NewSimulator(cfg *contract.Config) (*core.Simulator, error) {
	var opts []core.SimulatorOption
	if cfg.AnchorsFile != "" {
		anchors, err := core.LoadAnchorsFile(cfg.AnchorsFile)
		if err != nil {
			return nil, fmt.Errorf("load anchors: %w", err)
		}
		opts = append(opts, core.WithAnchors(anchors))
	}
	dwell := cfg.Dwell
	if dwell <= 0 {
		dwell = contract.DefaultDwell
	}
	return core.NewSimulator(cfg.Seed, dwell, opts...), nil
}

// Simulate runs ticks simulator steps spaced by cfg.TickInterval, starting one
// interval after startMs.
func Simulate(cfg *contract.Config, startMs int64, ticks int) ([]schema.SimulatorOutput, error) {
	sim, err := NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	step := cfg.TickInterval.Milliseconds()
	if step <= 0 {
		step = contract.DefaultTickInterval.Milliseconds()
	}
	target := cfg.TargetMode
	if target == "" {
		target = schema.FocusState
	}
	outputs := make([]schema.SimulatorOutput, 0, ticks)
	for i := range ticks {
		outputs = append(outputs, sim.Tick(startMs+int64(i+1)*step, target))
	}
	return outputs, nil
}
