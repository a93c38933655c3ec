package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/affordmap/internal/canvas"
	"github.com/MeKo-Tech/affordmap/internal/composite"
	"github.com/MeKo-Tech/affordmap/internal/interaction"
	"github.com/MeKo-Tech/affordmap/internal/score"
	"github.com/MeKo-Tech/affordmap/internal/search"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <query>",
	Short: "Resolve a query and print its affordability score",
	Long: `Resolve a free-text query (zip code, city, or county name) to its
affordability score. City and county queries print the weighted composite
aggregate over their member zips.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	lookupCmd.Flags().Int("similar", 0, "Also list the N regions most similar to a zip query (0 disables)")
	if err := viper.BindPFlag("lookup.similar", lookupCmd.Flags().Lookup("similar")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func runLookup(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	cache, err := openCache(cmd)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if cache != nil {
		defer cache.Close()
	}

	loader := buildLoader(cache)
	index := buildIndex(loader)
	scores := score.NewClient(score.ClientConfig{
		BaseURL: viper.GetString("score-api-url"),
		Logger:  logger,
	})

	ctx := cmd.Context()
	res := index.Resolve(ctx, args[0])
	if res == nil {
		return fmt.Errorf("no zip, city, or county matches %q", args[0])
	}

	switch res.Kind {
	case search.KindZip:
		result, err := scores.GetScore(ctx, res.Zip)
		if err != nil {
			return fmt.Errorf("score fetch failed: %w", err)
		}
		if n := viper.GetInt("lookup.similar"); n > 0 {
			regions, err := scores.GetSimilarRegions(ctx, res.Zip, n)
			if err != nil {
				return fmt.Errorf("similarity fetch failed: %w", err)
			}
			return printJSON(map[string]interface{}{
				"score":           result,
				"similar_regions": regions,
			})
		}
		return printJSON(result)

	case search.KindCity, search.KindCounty:
		mapCtx := interaction.NewContext(discardCanvas{})
		controller := interaction.NewShapeController(mapCtx)
		renderer := composite.NewRenderer(mapCtx, loader, index, controller, logger)
		view := renderer.Render(ctx, res.Name)
		if view == nil {
			return fmt.Errorf("could not resolve members of %q", res.Name)
		}
		defer view.Teardown()

		results := scores.GetScores(ctx, view.Sorted())
		scoreMap := make(map[string]float64, len(results))
		for zip, r := range results {
			scoreMap[zip] = r.Scores.Average
		}
		agg, ok := view.Aggregate(scoreMap)
		out := map[string]interface{}{
			"name":      res.Name,
			"kind":      res.Kind.String(),
			"zip_codes": view.Sorted(),
			"scores":    scoreMap,
		}
		if ok {
			out["aggregate"] = agg
		} else {
			out["aggregate"] = nil
		}
		return printJSON(out)

	default:
		return fmt.Errorf("cannot score %s results directly", res.Kind)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// discardCanvas resolves composites without a display surface.
type discardCanvas struct{}

func (discardCanvas) AddPolygon([]orb.Ring, canvas.Style) canvas.Shape { return discardShape{} }
func (discardCanvas) FitBounds(orb.Bound)                              {}

type discardShape struct{}

func (discardShape) SetStyle(canvas.Style)   {}
func (discardShape) On(canvas.Event, func()) {}
func (discardShape) Remove()                 {}
