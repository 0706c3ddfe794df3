package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/knirvcorp/knirvembed/go/internal/config"
	"github.com/knirvcorp/knirvembed/go/internal/logging"
	"github.com/knirvcorp/knirvembed/go/internal/monitoring"
	"github.com/knirvcorp/knirvembed/go/internal/tracing"
	"github.com/knirvcorp/knirvembed/go/pkg/knirvembed"
)

func main() {
	ctx := context.Background()

	configPath := os.Getenv("KNIRVEMBED_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if cfg.Tracing.JaegerEndpoint != "" {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.Fatal(err)
		}
		defer tp.Shutdown(ctx)
	}

	embedder, err := knirvembed.New(ctx, knirvembed.Options{
		Config:  cfg,
		Logger:  logger,
		Metrics: monitoring.NewMetrics(),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer embedder.Disconnect()

	corpus := []string{
		"knirvembed turns text into numeric vectors",
		"tf-idf weights terms by corpus rarity",
		"spectral projection reduces vector width",
		"embeddings power similarity search",
	}
	if err := embedder.Fit(ctx, corpus); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Fitted model: dimension=%d healthy=%v\n", embedder.Dimension(), embedder.Healthy())

	vector, err := embedder.Embed(ctx, "vector similarity search")
	if err != nil {
		log.Fatal(err)
	}

	preview := vector
	if len(preview) > 8 {
		preview = preview[:8]
	}
	fmt.Printf("Embedding (%d dims), first components: %v\n", len(vector), preview)
}
