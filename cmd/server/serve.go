package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/studio-onboarding/api"
	"github.com/warp/studio-onboarding/logging"
	"github.com/warp/studio-onboarding/store/sqlite"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		port      int
		dbPath    string
		logLevel  string
		logFormat string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Flags win over file and environment.
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("db") {
				cfg.Database.Path = dbPath
			}
			if flags.Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if flags.Changed("log-format") {
				cfg.Log.Format = logFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			// Initialize store
			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			handler := api.NewHandler(store, logger)
			server := &http.Server{
				Addr:         cfg.Addr(),
				Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
				ReadTimeout:  cfg.Server.ReadTimeout(),
				WriteTimeout: cfg.Server.WriteTimeout(),
				IdleTimeout:  2 * cfg.Server.ReadTimeout(),
			}

			// Start server in goroutine
			serveErr := make(chan error, 1)
			go func() {
				logger.Info("server starting",
					zap.String("addr", server.Addr),
					zap.String("db", cfg.Database.Path),
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			// Wait for interrupt signal
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-serveErr:
				if err != nil {
					return err
				}
			case <-quit:
			}

			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	cmd.Flags().StringVar(&dbPath, "db", "studio.db", "SQLite database path (\":memory:\" for in-memory)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&logFormat, "log-format", "json", "Log format: json or console")

	return cmd
}
