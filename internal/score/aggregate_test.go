package score

import "testing"

func TestWeightedMean(t *testing.T) {
	scores := map[string]float64{"32204": 600, "32207": 800}
	weights := map[string]float64{"32204": 0.5, "32207": 1.0}

	got, ok := WeightedMean(scores, weights)
	if !ok {
		t.Fatal("expected a result")
	}
	// (600*0.5 + 800*1.0) / 1.5 = 733.33 -> 733
	if got != 733 {
		t.Errorf("WeightedMean = %v, want 733", got)
	}
}

func TestWeightedMeanDefaultsToUnweighted(t *testing.T) {
	scores := map[string]float64{"a": 600, "b": 800, "c": 700}

	got, ok := WeightedMean(scores, nil)
	if !ok {
		t.Fatal("expected a result")
	}
	if got != 700 {
		t.Errorf("all-default weights should reduce to the mean, got %v", got)
	}

	// Same with an empty (not nil) weight map.
	got2, _ := WeightedMean(scores, map[string]float64{})
	if got2 != 700 {
		t.Errorf("empty weight map should reduce to the mean, got %v", got2)
	}
}

func TestWeightedMeanSkipsUnavailable(t *testing.T) {
	scores := map[string]float64{"a": 500, "b": Unavailable}
	got, ok := WeightedMean(scores, nil)
	if !ok || got != 500 {
		t.Errorf("sentinel members must be excluded, got %v ok=%v", got, ok)
	}
}

func TestWeightedMeanNoMembers(t *testing.T) {
	if _, ok := WeightedMean(nil, nil); ok {
		t.Error("no scores should report not-ok")
	}
	if _, ok := WeightedMean(map[string]float64{"a": Unavailable}, nil); ok {
		t.Error("all-sentinel scores should report not-ok")
	}
}
