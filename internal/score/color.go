package score

// Bucket is one display color band for a score. The hex values are a
// display policy and can be retuned per deployment; the structure that
// matters is that buckets are ascending and cover the whole 0-1000 domain
// plus the -1 sentinel.
type Bucket struct {
	Name string
	Hex  string
	// Min is the lowest score mapped into this bucket.
	Min float64
}

// BucketUnavailable is the distinct gray bucket for the -1 sentinel.
var BucketUnavailable = Bucket{Name: "unavailable", Hex: "#9e9e9e", Min: Unavailable}

// buckets in ascending Min order. ColorFor walks them from the top down.
var buckets = []Bucket{
	{Name: "very-low", Hex: "#d73027", Min: 0},
	{Name: "low", Hex: "#fc8d59", Min: 200},
	{Name: "moderate", Hex: "#fee08b", Min: 400},
	{Name: "good", Hex: "#d9ef8b", Min: 550},
	{Name: "high", Hex: "#91cf60", Min: 700},
	{Name: "very-high", Hex: "#1a9850", Min: 850},
}

// ColorFor maps a score to its display bucket. Scores below zero are
// treated as the "not available" sentinel.
func ColorFor(score float64) Bucket {
	if score < 0 {
		return BucketUnavailable
	}
	out := buckets[0]
	for _, b := range buckets {
		if score >= b.Min {
			out = b
		}
	}
	return out
}
