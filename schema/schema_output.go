package schema

// Flow score label values.
const (
	DeepValue      = "Deep"
	SteadyValue    = "Steady"
	DriftingValue  = "Drifting"
	ScatteredValue = "Scattered"
)

// EnrichedCategoryTotal adds presentation data to a CategoryTotal.
type EnrichedCategoryTotal struct {
	Rank  int     `json:"rank"`
	Share float64 `json:"share"` // percent of total duration
	CategoryTotal
}

// ScoreReport is the presentation form of a FlowScoreResult.
type ScoreReport struct {
	Label string `json:"label"`
	FlowScoreResult
}

// GetPlainLabel returns a plain text label describing the flow quality
// of a 0-100 score.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 80:
		return DeepValue
	case score >= 60:
		return SteadyValue
	case score >= 40:
		return DriftingValue
	default:
		return ScatteredValue
	}
}

// EnrichTotals adds rank and duration share to category totals.
// Input order is preserved; callers sort beforehand.
func EnrichTotals(totals []CategoryTotal) []EnrichedCategoryTotal {
	var sum int64
	for _, t := range totals {
		sum += t.DurationMs
	}
	output := make([]EnrichedCategoryTotal, len(totals))
	for i, t := range totals {
		share := 0.0
		if sum > 0 {
			share = float64(t.DurationMs) / float64(sum) * 100
		}
		output[i] = EnrichedCategoryTotal{
			Rank:          i + 1,
			Share:         share,
			CategoryTotal: t,
		}
	}
	return output
}

// EnrichScore attaches a label to a score result.
func EnrichScore(r FlowScoreResult) ScoreReport {
	return ScoreReport{Label: GetPlainLabel(r.Score), FlowScoreResult: r}
}

// Classification is the presentation form of one classified URL.
type Classification struct {
	URL      string   `json:"url"`
	Hostname string   `json:"hostname,omitempty"`
	Category Category `json:"category"`
}
