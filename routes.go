package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sintetico/catalog"
	"sintetico/config"
	"sintetico/loader"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog as a read-only JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		addr := cfg.ListenAddr
		if listenAddr != "" {
			addr = listenAddr
		}

		db, err := loader.Prepare(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		mux := http.NewServeMux()
		SetupRoutes(mux, db, logger)
		server := &http.Server{Addr: addr, Handler: mux}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()

		logger.Info("server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides listenAddr)")
}

func SetupRoutes(mux *http.ServeMux, dbConn *sqlx.DB, logger *zap.Logger) {
	mux.HandleFunc("/api/fases", catalog.ListPhasesHandler(dbConn, logger))
	mux.HandleFunc("/api/campos", catalog.ListFieldsHandler(dbConn, logger))
	mux.HandleFunc("/api/resumen", catalog.SummaryHandler(dbConn, logger))
	mux.HandleFunc("/api/contenidos", catalog.ListContentsHandler(dbConn, logger))
	mux.HandleFunc("/api/contenidos/", catalog.ContentDetailHandler(dbConn, logger))
	mux.HandleFunc("/api/pdas/filtrados", catalog.ListDescriptorsHandler(dbConn, logger))
	mux.HandleFunc("/api/buscar", catalog.SearchHandler(dbConn, logger))
	mux.HandleFunc("/api/config", catalog.ConfigHandler())
}
