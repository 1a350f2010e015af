package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"pulpit/features/document"
	"pulpit/features/failure"
	"pulpit/features/query"
	"pulpit/features/stats"
	"pulpit/internal/config"
	"pulpit/internal/lexical"
	"pulpit/internal/middleware"
	"pulpit/internal/retrieval"
	"pulpit/internal/series"
	"pulpit/internal/worker"
)

// VectorStore is everything the application needs from the vector index.
// Satisfied by the Weaviate store adapter.
type VectorStore interface {
	UpsertChunk(ctx context.Context, chunk worker.VectorChunk) error
	DeleteByDocument(ctx context.Context, documentID string) error
	Query(ctx context.Context, vector []float32, k int) ([]retrieval.SemanticHit, error)
}

// TaskPublisher is satisfied by *nsq.Producer.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler         http.Handler
	DocumentService *document.Service
	Retrieval       *retrieval.Service
	EmbedConsumer   *worker.EmbedderConsumer
	Index           *lexical.Index

	repo *document.PostgresRepo
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	taskPub TaskPublisher,
	embedder retrieval.Embedder,
) (*App, error) {

	registry := series.NewRegistry()

	// Feature: Failure ledger
	failureRepo := failure.NewPostgresRepo(db)
	failureService := failure.NewService(failureRepo)
	failureHandler := failure.NewHandler(failureService)

	// Feature: Document (ingestion + store)
	docRepo := document.NewPostgresRepo(db)
	docService := document.NewService(docRepo, taskPub, vecStore, registry, failureService, cfg.IngestionConcurrency)
	docHandler := document.NewHandler(docService)

	// Lexical index, rebuilt from the store at startup
	index := lexical.NewIndex()

	// Feature: Stats
	statsHandler := stats.NewHandler(docRepo, failureRepo, index)

	// Retrieval
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	weights := retrieval.Weights{
		Lexical:     cfg.LexicalWeight,
		Semantic:    cfg.SemanticWeight,
		SeriesBoost: cfg.SeriesBoost,
		TopK:        cfg.SearchTopK,
	}
	semTimeout := time.Duration(cfg.VectorQueryTimeoutSeconds) * time.Second

	retrievalService := retrieval.NewService(
		retrieval.NewTargetingStrategy(docRepo),
		retrieval.NewLexicalStrategy(index),
		retrieval.NewSemanticStrategy(embedder, vecStore),
		docRepo,
		registry,
		weights,
		semTimeout,
		queryLogger,
	)
	queryHandler := query.NewHandler(retrievalService)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /retrieve", middleware.CorrelationID(enableCORS(queryHandler.Retrieve)))

	mux.Handle("GET /documents", middleware.CorrelationID(enableCORS(docHandler.List)))
	mux.Handle("GET /documents/{id}", middleware.CorrelationID(enableCORS(docHandler.Get)))
	mux.Handle("DELETE /documents/{id}", middleware.CorrelationID(enableCORS(docHandler.Delete)))

	mux.Handle("GET /failures", middleware.CorrelationID(enableCORS(failureHandler.List)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	embedConsumer := worker.NewEmbedderConsumer(embedder, vecStore)

	return &App{
		Handler:         mux,
		DocumentService: docService,
		Retrieval:       retrievalService,
		EmbedConsumer:   embedConsumer,
		Index:           index,
		repo:            docRepo,
	}, nil
}

// RebuildIndex loads every chunk from the store into the lexical index.
// Called at startup and after each ingestion run.
func (a *App) RebuildIndex(ctx context.Context) error {
	chunks, err := a.repo.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("rebuild lexical index: %w", err)
	}
	a.Index.Build(chunks)
	slog.InfoContext(ctx, "lexical index rebuilt", "chunks", len(chunks))
	return nil
}

func (a *App) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
