package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/childcare-policy-rag/internal/bootstrap"
	"github.com/kirillkom/childcare-policy-rag/internal/config"
	"github.com/kirillkom/childcare-policy-rag/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.WorkerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		start := time.Now()
		app.WorkerMetrics.StartDocument()
		if doc, lookupErr := app.Repo.GetByID(processCtx, documentID); lookupErr == nil {
			app.WorkerMetrics.ObserveQueueLag("worker", start.Sub(doc.CreatedAt))
		}

		processErr := app.ProcessUC.ProcessByID(processCtx, documentID)
		app.WorkerMetrics.FinishDocument("worker", time.Since(start), processErr)
		return processErr
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
