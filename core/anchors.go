package core

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/huangsam/flowtrack/schema"
)

// DefaultAnchors is the hand-tuned reference set the simulator cycles through.
var DefaultAnchors = []schema.Anchor{
	{
		ID:                  1,
		Baseline:            88,
		ObservedState:       schema.FocusState,
		BrainStateDirection: "problem-solving",
		Insight:             "Your brain is optimized for logic, sequencing, and decision-making.",
		StabilityLabel:      "high",
		AttentionLabel:      "long",
		SwitchingLabel:      "low",
		FatigueLabel:        "low",
		HowToUse: []string{
			"Work on tasks with clear inputs and outputs",
			"Make decisions that require comparison or evaluation",
			"Finish partially completed analytical tasks",
		},
		WhatToAvoid:       []string{"Open-ended brainstorming", "Emotional or ambiguous conversations"},
		SuggestedNextTask: "Finalize financial review or debug a system issue",
	},
	{
		ID:                  2,
		Baseline:            76,
		ObservedState:       schema.CreativeState,
		BrainStateDirection: "idea generation",
		Insight:             "Your brain is forming novel connections and exploring possibilities.",
		StabilityLabel:      "medium",
		AttentionLabel:      "medium",
		SwitchingLabel:      "medium",
		FatigueLabel:        "low",
		HowToUse: []string{
			"Generate ideas without judging them",
			"Explore new directions or concepts",
			"Write freely without editing",
		},
		WhatToAvoid:       []string{"Editing or refining", "Highly structured tasks"},
		SuggestedNextTask: "Brainstorm ideas for a new feature or draft a LinkedIn post",
	},
	{
		ID:                  3,
		Baseline:            55,
		ObservedState:       schema.RecoveryState,
		BrainStateDirection: "cognitive reset",
		Insight:             "Your brain needs reduced load to restore focus and energy.",
		StabilityLabel:      "low",
		AttentionLabel:      "short",
		SwitchingLabel:      "high",
		FatigueLabel:        "medium",
		HowToUse: []string{
			"Do low-effort or routine tasks",
			"Allow mental space with light movement",
			"Prepare your environment for the next focus block",
		},
		WhatToAvoid:       []string{"Deep work", "Decision-heavy tasks"},
		SuggestedNextTask: "Organize workspace or take a short walk",
	},
	{
		ID:                  4,
		Baseline:            93,
		ObservedState:       schema.CreativeState,
		BrainStateDirection: "creative execution",
		Insight:             "Your brain is not just generating ideas but actively building them.",
		StabilityLabel:      "very_high",
		AttentionLabel:      "very_long",
		SwitchingLabel:      "very_low",
		FatigueLabel:        "very_low",
		HowToUse: []string{
			"Create or design something end-to-end",
			"Write long-form content",
			"Build core product or strategy elements",
		},
		WhatToAvoid:       []string{"Interruptions", "Switching tasks"},
		SuggestedNextTask: "Create a product spec or write a long-form article",
	},
	{
		ID:                  5,
		Baseline:            69,
		ObservedState:       schema.FocusState,
		BrainStateDirection: "planning",
		Insight:             "Your brain is well-suited for structuring and prioritization.",
		StabilityLabel:      "medium",
		AttentionLabel:      "medium",
		SwitchingLabel:      "low",
		FatigueLabel:        "medium",
		HowToUse: []string{
			"Break projects into steps",
			"Plan timelines or workflows",
			"Review and prioritize tasks",
		},
		WhatToAvoid:       []string{"Creative exploration", "High-pressure execution"},
		SuggestedNextTask: "Plan the next sprint or outline a document",
	},
}

// Label sets accepted for each qualitative anchor field.
var (
	stabilityLabels = map[string]bool{"low": true, "medium": true, "high": true, "very_high": true}
	attentionLabels = map[string]bool{"short": true, "medium": true, "long": true, "very_long": true}
	fiveStepLabels  = map[string]bool{"very_low": true, "low": true, "medium": true, "high": true, "very_high": true}
)

// anchorFile is the on-disk layout of an anchors TOML file.
type anchorFile struct {
	Anchors []schema.Anchor `toml:"anchors"`
}

// LoadAnchorsFile reads simulator anchors from a TOML file with one [[anchors]] table
// per anchor. Missing ids are numbered by position.
func LoadAnchorsFile(path string) ([]schema.Anchor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read anchors file: %w", err)
	}
	return ParseAnchors(string(data))
}

// ParseAnchors decodes and validates anchors from TOML text.
func ParseAnchors(text string) ([]schema.Anchor, error) {
	var file anchorFile
	md, err := toml.Decode(text, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode anchors: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown anchor keys: %v", undecoded)
	}
	if len(file.Anchors) == 0 {
		return nil, fmt.Errorf("anchors file defines no anchors")
	}
	for i := range file.Anchors {
		if file.Anchors[i].ID == 0 {
			file.Anchors[i].ID = i + 1
		}
		if err := ValidateAnchor(file.Anchors[i]); err != nil {
			return nil, fmt.Errorf("anchor %d: %w", file.Anchors[i].ID, err)
		}
	}
	return file.Anchors, nil
}

// ValidateAnchor checks the baseline range, observed state and qualitative labels.
func ValidateAnchor(a schema.Anchor) error {
	if a.Baseline < 0 || a.Baseline > 100 {
		return fmt.Errorf("flow_score_base %.1f outside [0, 100]", a.Baseline)
	}
	if _, ok := schema.ValidFlowStates[a.ObservedState]; !ok {
		return fmt.Errorf("invalid observed_state %q", a.ObservedState)
	}
	if !stabilityLabels[a.StabilityLabel] {
		return fmt.Errorf("invalid flow_stability %q", a.StabilityLabel)
	}
	if !attentionLabels[a.AttentionLabel] {
		return fmt.Errorf("invalid attention_span %q", a.AttentionLabel)
	}
	if !fiveStepLabels[a.SwitchingLabel] {
		return fmt.Errorf("invalid context_switching %q", a.SwitchingLabel)
	}
	if !fiveStepLabels[a.FatigueLabel] {
		return fmt.Errorf("invalid mental_fatigue %q", a.FatigueLabel)
	}
	return nil
}

// stabilityValue maps a stability label to [0, 1].
func stabilityValue(label string) float64 {
	switch label {
	case "very_high":
		return 0.95
	case "high":
		return 0.8
	case "medium":
		return 0.6
	default:
		return 0.3
	}
}

// attentionValue maps an attention-span label to [0, 1].
func attentionValue(label string) float64 {
	switch label {
	case "very_long":
		return 0.95
	case "long":
		return 0.8
	case "medium":
		return 0.55
	default:
		return 0.25
	}
}

// switchingValue maps a context-switching label to [0, 1].
func switchingValue(label string) float64 {
	switch label {
	case "very_low":
		return 0.1
	case "low":
		return 0.2
	case "medium":
		return 0.5
	case "high":
		return 0.85
	default:
		return 0.95
	}
}

// fatigueValue maps a mental-fatigue label to [0, 1].
func fatigueValue(label string) float64 {
	switch label {
	case "very_low":
		return 0.1
	case "low":
		return 0.2
	case "medium":
		return 0.55
	case "high":
		return 0.8
	default:
		return 0.95
	}
}

// stateSignals are the cognitive load, novelty and recovery need typical of a state.
type stateSignals struct {
	load, novelty, recovery float64
}

func signalsFor(state schema.FlowState) stateSignals {
	switch state {
	case schema.CreativeState:
		return stateSignals{load: 0.35, novelty: 0.85, recovery: 0.2}
	case schema.FocusState:
		return stateSignals{load: 0.8, novelty: 0.25, recovery: 0.25}
	default:
		return stateSignals{load: 0.25, novelty: 0.2, recovery: 0.85}
	}
}
