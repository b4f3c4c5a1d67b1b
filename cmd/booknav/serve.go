package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netpyoung/booknav/internal/api"
	"github.com/netpyoung/booknav/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sidebar preview API",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(os.Stdout)

		cfg, tree, err := loadConfig()
		if err != nil {
			log.Error("startup failed", "error", err)
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sessions := session.NewRegistry(cfg.SessionTTL, log)
		go sessions.Run(ctx, time.Minute)

		srv := api.NewServer(tree, sessions, log, cfg)
		httpServer := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			log.Info("shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		log.Info("starting booknav", "port", cfg.Port, "site_url", cfg.SiteURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
