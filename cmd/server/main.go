// Command server runs the HTTP surface of the legal RAG service: chat,
// search, and source/document catalog reads. Ingestion runs as a
// separate process (cmd/ingest) so a crawl never blocks query traffic.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"legalrag/internal/config"
	"legalrag/internal/embedding"
	"legalrag/internal/httpapi"
	"legalrag/internal/ingestion"
	"legalrag/internal/logging"
	"legalrag/internal/rag"
	"legalrag/internal/search"
	"legalrag/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(os.Getenv("ENV") != "production")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgOpts := store.DefaultPostgresOptions(cfg.EmbeddingDim)
	chunkStore, err := store.NewPostgresStore(ctx, cfg.PostgresDSN, logger, pgOpts)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer chunkStore.Close()

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

	generator := rag.NewOllamaGenerator(cfg.GeneratorURL, cfg.GeneratorModel)

	searchOpts := search.DefaultOptions()
	searchOpts.Kappa = cfg.RRFKappa
	searchOpts.WeightVec = cfg.WeightVec
	searchOpts.WeightLex = cfg.WeightLex
	searchOpts.NormativaLimit = cfg.BucketNormativaLimit
	searchOpts.DoctrinaLimit = cfg.BucketDoctrinaLimit
	searchOpts.JurisprudenciaLimit = cfg.BucketJurisprudenciaLimit
	engine := search.NewEngine(chunkStore, embedder, searchOpts, logger)

	orchestrator := rag.NewOrchestrator(engine, generator, logger)

	janitor := ingestion.NewJanitor(chunkStore, 5*time.Minute, cfg.IngestingHeartbeat, logger)
	go janitor.Run(ctx)

	server := httpapi.NewServer(orchestrator, engine, chunkStore, logger)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("legal RAG server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
