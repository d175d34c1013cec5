package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sbenjam1n/goaltrack/internal/api"
	"github.com/sbenjam1n/goaltrack/internal/service"
	"github.com/sbenjam1n/goaltrack/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.ListenAddr
		}
		inMemory, _ := cmd.Flags().GetBool("memory")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var (
			svc     *service.Service
			cleanup func()
			err     error
		)
		if inMemory {
			logger.Warn("serving from an in-memory goal store; data is lost on exit")
			svc, cleanup, err = newService(store.NewMemoryStore())
		} else {
			svc, cleanup, err = openService(ctx)
		}
		if err != nil {
			return err
		}
		defer cleanup()

		srv := &http.Server{
			Addr:         addr,
			Handler:      api.NewRouter(svc, logger),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default GOALS_LISTEN_ADDR)")
	serveCmd.Flags().Bool("memory", false, "Keep goals in memory instead of PostgreSQL")
}
