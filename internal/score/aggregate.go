package score

import "math"

// WeightedMean averages scores weighted by per-zip area weights. A zip
// with no computed weight counts with weight 1.0 (pure city searches have
// no enclosing polygon to overlap against). Scores below zero are
// unavailable and excluded. The result is rounded to the nearest integer
// score; ok is false when no usable member remained.
func WeightedMean(scores map[string]float64, weights map[string]float64) (float64, bool) {
	var sum, weightSum float64
	for zip, s := range scores {
		if s < 0 {
			continue
		}
		w := 1.0
		if weights != nil {
			if ww, ok := weights[zip]; ok && ww > 0 {
				w = ww
			}
		}
		sum += s * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0, false
	}
	return math.Round(sum / weightSum), true
}
