package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/affordmap/internal/score"
	"github.com/MeKo-Tech/affordmap/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the boundary engine HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("rate-limit", 120, "Requests per minute per client IP")

	mustBind := func(key, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}
	mustBind("serve.addr", "addr")
	mustBind("serve.rate_limit", "rate-limit")
}

func runServe(cmd *cobra.Command, args []string) error {
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

	srv := server.New(server.Config{
		Addr:      viper.GetString("serve.addr"),
		RateLimit: viper.GetInt("serve.rate_limit"),
		Logger:    logger,
	}, loader, index, scores)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
