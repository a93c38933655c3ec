package score

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func scoringStub(t *testing.T, fail map[string]bool) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/score" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Zipcode int `json:"zipcode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		zip := req.Zipcode
		if fail[itoa5(zip)] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		resp := map[string]interface{}{
			"scores": Scores{PCA: 500, Linear: 600, Neural: 700, Average: 600},
			"key_components": []Component{
				{Name: "PC1", Influence: "positive", Score: 0.8},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func itoa5(n int) string {
	s := []byte("00000")
	for i := 4; i >= 0 && n > 0; i-- {
		s[i] = byte('0' + n%10)
		n /= 10
	}
	return string(s)
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(ClientConfig{BaseURL: srv.URL, HTTPClient: srv.Client()})
}

func TestGetScore(t *testing.T) {
	srv, _ := scoringStub(t, nil)
	c := newTestClient(srv)

	res, err := c.GetScore(context.Background(), "32207")
	if err != nil {
		t.Fatalf("GetScore failed: %v", err)
	}
	if res.Zip != "32207" || res.Scores.Average != 600 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(res.Components) != 1 || res.Components[0].Name != "PC1" {
		t.Errorf("unexpected components: %+v", res.Components)
	}
}

func TestGetScoreRejectsNonZip(t *testing.T) {
	srv, calls := scoringStub(t, nil)
	c := newTestClient(srv)

	if _, err := c.GetScore(context.Background(), "JACKSONVILLE"); err == nil {
		t.Fatal("city names must never reach the scoring service")
	}
	if calls.Load() != 0 {
		t.Error("client made a request for a non-zip input")
	}
}

func TestGetScoresPartialFailure(t *testing.T) {
	srv, _ := scoringStub(t, map[string]bool{"32204": true})
	c := newTestClient(srv)

	results := c.GetScores(context.Background(), []string{"32202", "32204", "32207"})
	if len(results) != 2 {
		t.Fatalf("got %d results, want failing zip omitted from 3", len(results))
	}
	if _, ok := results["32204"]; ok {
		t.Error("failed zip should be absent")
	}
	if results["32207"].Scores.Average != 600 {
		t.Errorf("surviving zip has wrong score: %+v", results["32207"])
	}
}

func TestGetScoresAllFail(t *testing.T) {
	srv, _ := scoringStub(t, map[string]bool{"32202": true, "32204": true})
	c := newTestClient(srv)

	results := c.GetScores(context.Background(), []string{"32202", "32204"})
	if len(results) != 0 {
		t.Errorf("expected empty map when nothing scored, got %v", results)
	}
}

// similarityStub answers /similar with n_regions sequential neighbors of
// the requested zip, recording the last requested count.
func similarityStub(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var lastN atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/similar" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Zipcode  int `json:"zipcode"`
			NRegions int `json:"n_regions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		lastN.Store(int32(req.NRegions))
		regions := make([]map[string]interface{}, 0, req.NRegions)
		for i := 1; i <= req.NRegions; i++ {
			regions = append(regions, map[string]interface{}{
				"zipcode": req.Zipcode + i,
				"scores":  Scores{PCA: 500, Linear: 600, Neural: 700, Average: 600},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"similar_regions": regions})
	}))
	t.Cleanup(srv.Close)
	return srv, &lastN
}

func TestGetSimilarRegions(t *testing.T) {
	srv, lastN := similarityStub(t)
	c := newTestClient(srv)

	regions, err := c.GetSimilarRegions(context.Background(), "32207", 3)
	if err != nil {
		t.Fatalf("GetSimilarRegions failed: %v", err)
	}
	if len(regions) != 3 {
		t.Fatalf("got %d regions, want 3", len(regions))
	}
	if lastN.Load() != 3 {
		t.Errorf("requested %d regions, want 3", lastN.Load())
	}
	if regions[0].Zip != "32208" || regions[0].Scores.Average != 600 {
		t.Errorf("unexpected first region: %+v", regions[0])
	}
}

func TestGetSimilarRegionsDefaultCount(t *testing.T) {
	srv, lastN := similarityStub(t)
	c := newTestClient(srv)

	regions, err := c.GetSimilarRegions(context.Background(), "32207", 0)
	if err != nil {
		t.Fatalf("GetSimilarRegions failed: %v", err)
	}
	if len(regions) != 5 || lastN.Load() != 5 {
		t.Errorf("non-positive count must fall back to the service default of 5, got %d", len(regions))
	}
}

func TestGetSimilarRegionsPadsZips(t *testing.T) {
	srv, _ := similarityStub(t)
	c := newTestClient(srv)

	// Neighbor zipcodes of 00100 come back as small ints and must round-trip
	// to 5-digit strings.
	regions, err := c.GetSimilarRegions(context.Background(), "00100", 2)
	if err != nil {
		t.Fatalf("GetSimilarRegions failed: %v", err)
	}
	if regions[0].Zip != "00101" || regions[1].Zip != "00102" {
		t.Errorf("zip codes not zero-padded: %+v", regions)
	}
}

func TestGetSimilarRegionsRejectsNonZip(t *testing.T) {
	srv, _ := similarityStub(t)
	c := newTestClient(srv)

	if _, err := c.GetSimilarRegions(context.Background(), "DUVAL", 5); err == nil {
		t.Fatal("county names must never reach the scoring service")
	}
}

func TestGetScoresManyBatches(t *testing.T) {
	srv, calls := scoringStub(t, nil)
	c := newTestClient(srv)

	zips := make([]string, 0, 23)
	for i := 0; i < 23; i++ {
		zips = append(zips, itoa5(32000+i))
	}
	results := c.GetScores(context.Background(), zips)
	if len(results) != 23 {
		t.Errorf("got %d results, want 23", len(results))
	}
	if calls.Load() != 23 {
		t.Errorf("made %d calls, want one per zip", calls.Load())
	}
}
