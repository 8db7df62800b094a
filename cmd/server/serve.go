package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/personapanel/internal/config"
	"github.com/agenthands/personapanel/internal/core"
	"github.com/agenthands/personapanel/internal/driver"
	"github.com/agenthands/personapanel/internal/llm"
	"github.com/agenthands/personapanel/internal/server"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, notes, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, notes)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	if llmClient == nil {
		logger.Warn("No LLM provider configured, generation and simulation endpoints will return 503")
	} else {
		logger.Info("LLM client ready", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))
	}

	var graph driver.GraphDriver
	if cfg.Graph.Enabled {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password, logger.Named("graph"))
		if err != nil {
			return err
		}
		defer d.Close(context.Background())
		if err := d.BuildIndices(ctx); err != nil {
			logger.Warn("Failed to build graph indices", zap.Error(err))
		}
		graph = d
	}

	panel := core.NewPanel(st, llmClient, graph, cfg, logger)

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewServer(panel, logger.Named("http")).SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", cfg.Server.Addr), zap.String("db", cfg.Storage.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	if err := panel.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Background batches did not finish", zap.Error(err))
	}
	return nil
}
