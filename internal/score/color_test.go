package score

import "testing"

func TestColorForSentinel(t *testing.T) {
	if got := ColorFor(Unavailable); got != BucketUnavailable {
		t.Errorf("sentinel mapped to %q, want the unavailable bucket", got.Name)
	}
	if got := ColorFor(-42); got != BucketUnavailable {
		t.Errorf("any negative score should map to unavailable, got %q", got.Name)
	}
}

func TestColorForExhaustive(t *testing.T) {
	// Every score in the domain lands in some bucket.
	for s := 0.0; s <= 1000; s += 1 {
		b := ColorFor(s)
		if b.Name == "" || b.Hex == "" {
			t.Fatalf("score %v fell through to an empty bucket", s)
		}
		if b == BucketUnavailable {
			t.Fatalf("in-domain score %v mapped to unavailable", s)
		}
	}
}

func TestColorForMonotone(t *testing.T) {
	// Ascending scores never move to a bucket with a lower floor.
	prev := ColorFor(0)
	for s := 1.0; s <= 1000; s += 1 {
		b := ColorFor(s)
		if b.Min < prev.Min {
			t.Fatalf("bucket floor decreased at score %v: %v -> %v", s, prev.Min, b.Min)
		}
		prev = b
	}
}

func TestColorForBoundaries(t *testing.T) {
	// A bucket's own floor belongs to that bucket.
	for _, b := range buckets {
		if got := ColorFor(b.Min); got.Name != b.Name {
			t.Errorf("ColorFor(%v) = %q, want %q", b.Min, got.Name, b.Name)
		}
	}
}
