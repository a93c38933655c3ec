package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Fetch both boundary collections into the persistent cache",
	RunE:  runPrefetch,
}

func init() {
	rootCmd.AddCommand(prefetchCmd)
}

func runPrefetch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	cache, err := openCache(cmd)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if cache == nil {
		return fmt.Errorf("prefetch needs a persistent cache backend (got cache-backend=none)")
	}
	defer cache.Close()

	loader := buildLoader(cache)
	ctx := cmd.Context()

	zips := loader.LoadZips(ctx)
	if zips == nil {
		return fmt.Errorf("zip boundary collection unavailable")
	}
	logger.Info("zip collection cached", "features", zips.Count(), "source", zips.Source)

	counties := loader.LoadCounties(ctx)
	if counties == nil {
		// Counties are optional; the engine degrades to city-only composites.
		logger.Warn("county boundary collection unavailable")
	} else {
		logger.Info("county collection cached", "features", counties.Count(), "source", counties.Source)
	}
	return nil
}
