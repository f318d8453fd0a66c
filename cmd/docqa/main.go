package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"docqa/internal/api"
	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/extract"
	"docqa/internal/ingest"
	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/splitter"
	"docqa/internal/storage/docstore"
	"docqa/internal/storage/recordstore"
	"docqa/internal/vectorindex"
	"docqa/pkg/logger"
)

func main() {
	logger.Init(logrus.InfoLevel)
	appLog := logger.New("docqa")
	appLog.Info("Starting docqa service...")

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("DOCQA_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLog.Info("Configuration loaded successfully.")

	searchTimeout, err := cfg.RAG.SearchTimeoutDuration()
	if err != nil {
		log.Fatalf("Invalid search timeout: %v", err)
	}

	ctx := context.Background()

	store, err := docstore.New(cfg.Documents.Dir, logger.New("docstore"))
	if err != nil {
		log.Fatalf("Failed to initialize document store: %v", err)
	}

	mongoClient, err := recordstore.Connect(ctx, &cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	records := recordstore.New(mongoClient, &cfg.Mongo, logger.New("recordstore"))

	retrier := extract.NewRetrier(extract.NewPDFExtractor(), cfg.RAG.ExtractMaxRetries, logger.New("extract"))
	ingestor := ingest.New(store, retrier, records, logger.New("ingest"))

	split, err := splitter.NewTokenSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		log.Fatalf("Failed to create splitter: %v", err)
	}

	embedder := embedding.NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.EmbeddingModel)
	completions := llm.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)

	chunkStore, err := vectorindex.NewMilvusChunkStore(
		ctx,
		cfg.Milvus.Address, cfg.Milvus.Collection, cfg.Milvus.Dim,
		logger.New("milvus"),
	)
	if err != nil {
		log.Fatalf("Failed to initialize chunk store: %v", err)
	}
	defer chunkStore.Close()
	index := vectorindex.NewIndex(chunkStore, embedder, split, records, ingestor, logger.New("vectorindex"))

	expander := rag.NewExpander(completions, cfg.OpenAI.ExpansionModel, cfg.RAG.NumExpansions, logger.New("expander"))
	aggregator := rag.NewAggregator(index, cfg.RAG.MaxConcurrentSearches, searchTimeout, logger.New("aggregator"))
	synthesizer := rag.NewSynthesizer(completions, logger.New("synthesizer"))
	answerer := rag.NewAnswerer(expander, aggregator, synthesizer, cfg.RAG.TopK, cfg.OpenAI.CompletionModel, cfg.RAG.Temperature, logger.New("answerer"))

	handler := api.NewHandler(ingestor, index, answerer, logger.New("api"))
	router := api.NewRouter(handler)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		appLog.Info("HTTP server listening on " + cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server shutdown failed: " + err.Error())
	}
	appLog.Info("Server stopped.")
}
