package blog

import "math"

// Alpha thresholds.
const (
	extractiveBelow = 0.5
	creativeFrom    = 0.8
)

// quoteBudget is the number of direct quotes requested for a given alpha.
func quoteBudget(alpha float64) int {
	return int(math.Round((1 - alpha) * 3))
}

// requiresQuotes reports whether sections must carry at least one transcript quote.
func requiresQuotes(alpha float64) bool {
	return alpha < extractiveBelow && quoteBudget(alpha) > 0
}

// styleDirective describes the extractive/creative bias for prompts.
func styleDirective(alpha float64) string {
	switch {
	case alpha < extractiveBelow:
		return "Stay close to the speaker's own words. Preserve their phrasing, " +
			"keep their examples and quote them directly where it helps."
	case alpha < creativeFrom:
		return "Balance fidelity and readability. Keep the speaker's ideas and examples " +
			"but restructure freely into clear prose."
	default:
		return "Write an original, engaging article inspired by the transcript. " +
			"Reorganize the material and add connective explanation, without inventing facts."
	}
}

// temperature maps alpha onto a sampling temperature.
func temperature(alpha float64) float64 {
	return 0.3 + 0.6*alpha
}
