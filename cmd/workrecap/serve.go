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

	"github.com/spf13/cobra"

	httphandler "github.com/yongseopkim/workrecap/internal/adapter/driving/http"
	"github.com/yongseopkim/workrecap/internal/application"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP job API and cron scheduler until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sched := buildScheduler(a.cfg, a.orchestrator, a.summarizer)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()

		jobs := application.NewJobStore()
		handler := httphandler.NewHandler(a.fetcher, a.normalizer, a.summarizer, a.orchestrator, sched, jobs, a.store, slog.Default())
		mux := httphandler.NewServeMux(handler, slog.Default())

		srv := &http.Server{
			Addr:              a.cfg.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		go func() {
			slog.Info("http server starting", "addr", a.cfg.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "error", err)
			}
		}()

		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}

		slog.Info("shutdown complete")
		return nil
	},
}
