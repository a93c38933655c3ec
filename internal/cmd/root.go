package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/affordmap/internal/kvcache"
	"github.com/MeKo-Tech/affordmap/internal/search"
	"github.com/MeKo-Tech/affordmap/internal/store"
)

var (
	cfgFile string
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "affordmap",
	Short: "Geographic affordability score boundary engine",
	Long: `affordmap resolves free-text queries (zip code, city, county, street
address) against zip-code and county boundary polygons, computes spatial
membership and area overlap between them, and aggregates per-zip
affordability scores into city/county composites.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("zip-data-url", "", "URL of the zip-level boundary GeoJSON")
	rootCmd.PersistentFlags().String("county-data-url", "", "URL of the county-level boundary GeoJSON")
	rootCmd.PersistentFlags().String("score-api-url", "http://localhost:8000", "Base URL of the scoring service")
	rootCmd.PersistentFlags().String("address-api-url", "", "Base URL of the address autocomplete service (empty disables)")
	rootCmd.PersistentFlags().String("address-api-key", "", "API key for the address autocomplete service")
	rootCmd.PersistentFlags().String("region", "-82.25,29.85,-81.15,30.65", "Service region bbox: minLon,minLat,maxLon,maxLat")
	rootCmd.PersistentFlags().String("cache-backend", "sqlite", "Persistent cache backend (sqlite, redis, none)")
	rootCmd.PersistentFlags().String("cache-path", "./affordmap-cache.db", "SQLite cache file path")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address for the redis cache backend")
	rootCmd.PersistentFlags().String("redis-password", "", "Redis password")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database number")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	for _, name := range []string{
		"zip-data-url", "county-data-url", "score-api-url",
		"address-api-url", "address-api-key", "region",
		"cache-backend", "cache-path",
		"redis-addr", "redis-password", "redis-db",
		"verbose",
	} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("AFFORDMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func initLogging() {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// openCache opens the configured persistent cache backend, or nil for
// "none". The caller owns Close.
func openCache(cmd *cobra.Command) (kvcache.Store, error) {
	switch viper.GetString("cache-backend") {
	case "sqlite":
		return kvcache.NewSQLite(viper.GetString("cache-path"))
	case "redis":
		return kvcache.NewRedis(cmd.Context(),
			viper.GetString("redis-addr"),
			viper.GetString("redis-password"),
			viper.GetInt("redis-db"))
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", viper.GetString("cache-backend"))
	}
}

func buildLoader(cache kvcache.Store) *store.Loader {
	return store.NewLoader(store.Config{
		ZipURL:    viper.GetString("zip-data-url"),
		CountyURL: viper.GetString("county-data-url"),
		Cache:     cache,
		Logger:    logger,
	})
}

func buildIndex(loader *store.Loader) *search.Index {
	var addresses search.AddressSource
	if base := viper.GetString("address-api-url"); base != "" {
		region, err := parseRegion(viper.GetString("region"))
		if err != nil {
			logger.Warn("invalid region, address suggestions disabled", "error", err)
		} else {
			addresses = search.NewAddressClient(search.AddressClientConfig{
				BaseURL: base,
				APIKey:  viper.GetString("address-api-key"),
				Region:  region,
			})
		}
	}
	return search.NewIndex(loader, addresses, logger)
}

func parseRegion(raw string) (orb.Bound, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("region must be minLon,minLat,maxLon,maxLat")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid region component %q: %w", p, err)
		}
		vals[i] = v
	}
	return orb.Bound{
		Min: orb.Point{vals[0], vals[1]},
		Max: orb.Point{vals[2], vals[3]},
	}, nil
}
