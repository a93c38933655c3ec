// Package score talks to the external affordability scoring service and
// owns the score-side pure logic: weighted aggregation and the score to
// display-color bucket mapping.
package score

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/affordmap/internal/search"
)

// batchSize caps concurrent outstanding score requests while still
// fanning out within a batch. Batches run sequentially.
const batchSize = 10

// defaultSimilarRegions is the service-side default ranking length.
const defaultSimilarRegions = 5

// Unavailable is the sentinel average meaning the service has no data for
// the zip.
const Unavailable = -1

// Scores carries the per-model sub-scores and their average, scaled 0-1000
// by the service. Average is Unavailable (-1) when no model had data.
type Scores struct {
	PCA     float64 `json:"pca_score"`
	Linear  float64 `json:"lin_score"`
	Neural  float64 `json:"ann_score"`
	Average float64 `json:"avg_score"`
}

// Component is one contributing factor behind a score.
type Component struct {
	Name      string  `json:"name"`
	Influence string  `json:"influence"` // "positive" or "negative"
	Score     float64 `json:"score"`
}

// Result is one zip's scoring outcome.
type Result struct {
	Zip        string      `json:"zip"`
	Scores     Scores      `json:"scores"`
	Components []Component `json:"key_components"`
}

// Region is one entry in a similarity ranking.
type Region struct {
	Zip    string `json:"zip"`
	Scores Scores `json:"scores"`
}

// ClientConfig configures the scoring client.
type ClientConfig struct {
	BaseURL string
	Logger  *slog.Logger
	// HTTPClient overrides the default retrying client, used in tests.
	HTTPClient *http.Client
}

// Client is the HTTP client for the scoring collaborator. It is only ever
// called with 5-digit zip codes; city and county names never reach it.
type Client struct {
	cfg    ClientConfig
	client *http.Client
}

// NewClient creates a scoring client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = 2
		rc.Logger = nil
		client = rc.StandardClient()
	}
	return &Client{cfg: cfg, client: client}
}

// GetScore fetches the score for one zip code.
func (c *Client) GetScore(ctx context.Context, zip string) (*Result, error) {
	if !search.IsZip(zip) {
		return nil, fmt.Errorf("invalid zip code %q", zip)
	}
	zipNum, _ := strconv.Atoi(zip)
	payload, err := json.Marshal(map[string]int{"zipcode": zipNum})
	if err != nil {
		return nil, fmt.Errorf("score request encode failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/score", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("score request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("score request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("score response read failed: %w", err)
	}
	var decoded struct {
		Scores        Scores      `json:"scores"`
		KeyComponents []Component `json:"key_components"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("score response decode failed: %w", err)
	}
	return &Result{Zip: zip, Scores: decoded.Scores, Components: decoded.KeyComponents}, nil
}

// GetSimilarRegions fetches the n regions most similar to zip, most
// similar first. n <= 0 asks for the service default of five.
func (c *Client) GetSimilarRegions(ctx context.Context, zip string, n int) ([]Region, error) {
	if !search.IsZip(zip) {
		return nil, fmt.Errorf("invalid zip code %q", zip)
	}
	if n <= 0 {
		n = defaultSimilarRegions
	}
	zipNum, _ := strconv.Atoi(zip)
	payload, err := json.Marshal(map[string]int{"zipcode": zipNum, "n_regions": n})
	if err != nil {
		return nil, fmt.Errorf("similarity request encode failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/similar", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("similarity request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("similarity request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("similarity response read failed: %w", err)
	}
	var decoded struct {
		SimilarRegions []struct {
			Zipcode int    `json:"zipcode"`
			Scores  Scores `json:"scores"`
		} `json:"similar_regions"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("similarity response decode failed: %w", err)
	}

	regions := make([]Region, 0, len(decoded.SimilarRegions))
	for _, r := range decoded.SimilarRegions {
		regions = append(regions, Region{
			Zip:    fmt.Sprintf("%05d", r.Zipcode),
			Scores: r.Scores,
		})
	}
	return regions, nil
}

// GetScores fetches scores for many zips in sequential batches of ten,
// fanning out within each batch. A zip whose fetch fails is omitted from
// the result; an empty map means no scores were available at all.
func (c *Client) GetScores(ctx context.Context, zips []string) map[string]*Result {
	results := make(map[string]*Result, len(zips))
	var mu sync.Mutex

	for start := 0; start < len(zips); start += batchSize {
		end := start + batchSize
		if end > len(zips) {
			end = len(zips)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, zip := range zips[start:end] {
			zip := zip
			g.Go(func() error {
				res, err := c.GetScore(gctx, zip)
				if err != nil {
					c.cfg.Logger.Debug("score fetch failed, omitting zip", "zip", zip, "error", err)
					return nil // partial failure never sinks the batch
				}
				mu.Lock()
				results[zip] = res
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return results
}
