// Command ingest triggers a batch ingestion run for one priority tier.
// Intended to run on a schedule (cron, k8s CronJob) separate from
// the query-serving process.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"legalrag/internal/config"
	"legalrag/internal/connectors"
	"legalrag/internal/embedding"
	"legalrag/internal/ingestion"
	"legalrag/internal/logging"
	"legalrag/internal/models"
	"legalrag/internal/store"
)

func main() {
	priorityFlag := flag.String("priority", "P1", "priority tier to ingest: P1, P2, or P3")
	flag.Parse()

	priority, err := models.ParsePriority(*priorityFlag)
	if err != nil {
		panic(err)
	}

	cfg := config.Load()

	logger, err := logging.New(os.Getenv("ENV") != "production")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pgOpts := store.DefaultPostgresOptions(cfg.EmbeddingDim)
	chunkStore, err := store.NewPostgresStore(ctx, cfg.PostgresDSN, logger, pgOpts)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer chunkStore.Close()

	limiter := connectors.NewHostLimiter(cfg.ConnectorMinInterval)
	registry := connectors.NewRegistry(limiter)

	var cache embedding.Cache
	if cfg.EmbedderCacheSize > 0 {
		cache = embedding.NewMemoryCache(cfg.EmbedderCacheSize)
	}
	adapterOpts := embedding.DefaultAdapterOptions()
	adapterOpts.BaseURL = cfg.EmbedderURL
	adapterOpts.Model = cfg.EmbedderModel
	adapterOpts.Dim = cfg.EmbeddingDim
	adapterOpts.MaxChars = cfg.EmbedderMaxChars
	embedder := embedding.NewAdapter(adapterOpts, cache, logger)

	ingestOpts := ingestion.DefaultOptions()
	ingestOpts.MaxAttempts = cfg.IngestMaxAttempts
	ingestOpts.BaseDelay = cfg.IngestBaseDelay
	ingestOpts.Exponent = cfg.IngestBackoffExp

	orchestrator := ingestion.NewOrchestrator(chunkStore, registry, embedder, ingestOpts,
		cfg.ConnectorUserAgent, cfg.ConnectorContact, logger)

	ingested, failed, err := orchestrator.IngestAllByPriority(ctx, priority)
	if err != nil {
		logger.Fatal("ingestion run failed", zap.Error(err))
	}

	logger.Info("ingestion run complete",
		zap.String("priority", string(priority)),
		zap.Int("ingested", ingested),
		zap.Int("failed", failed))
}
