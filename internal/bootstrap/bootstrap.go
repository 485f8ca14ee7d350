package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/childcare-policy-rag/internal/config"
	"github.com/kirillkom/childcare-policy-rag/internal/core/ports"
	"github.com/kirillkom/childcare-policy-rag/internal/core/usecase"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/chunking"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/extractor"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/extractor/xlsx"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/queue/nats"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/resilience"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/tablerepair"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/childcare-policy-rag/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue         ports.MessageQueue
	Repo          ports.DocumentRepository
	IngestUC      ports.DocumentIngestor
	ProcessUC     ports.DocumentProcessor
	QueryUC       ports.DocumentQueryService
	WorkerMetrics *metrics.WorkerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	profiler := ollama.NewProfiler(ollamaClient)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)
	judge := ollama.NewJudge(ollamaClient, float64(cfg.JudgeCallsPerSec))

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, qdrant.NewSparseEncoder(cfg.SparseVocabSize))

	workerMetrics := metrics.NewWorkerMetrics("worker")
	chunker := chunking.NewPagePolicy(
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		tablerepair.New(tablerepair.DefaultConfig()),
		func() { workerMetrics.IncTableRepaired("worker") },
	)

	pageExtractor := extractor.NewDispatcher()
	pageExtractor.Register(".pdf", pdf.NewExtractor(storage))
	pageExtractor.Register(".xlsx", xlsx.NewExtractor(storage))

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, pageExtractor, profiler, chunker, embedder, vectorDB)
	queryUC := usecase.NewQueryUseCase(embedder, vectorDB, judge, generator, usecase.QueryConfig{
		TopK:          cfg.RAGTopK,
		PrefetchLimit: cfg.HybridPrefetchLimit,
		Candidates:    cfg.HybridCandidates,
		RRFK:          cfg.FusionRRFK,

		JudgeWorkers:     cfg.JudgeWorkers,
		RerankGap:        cfg.RerankGapThreshold,
		RerankScoreFloor: cfg.RerankScoreFloor,
		RerankMaxResults: cfg.RerankMaxResults,
	})

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:      ingestUC,
		ProcessUC:     processUC,
		QueryUC:       queryUC,
		WorkerMetrics: workerMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
