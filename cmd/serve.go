package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/passport-extractor/passport-extractor/internal/handlers"
	"github.com/passport-extractor/passport-extractor/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the passport upload web page",
		Long: `Starts a web server with a single upload page.

Each uploaded image is written to a temporary file, passed through OCR and the
configured LLM, and the extracted JSON and completeness metrics are rendered
back. The temporary file is removed when the request finishes.`,
		Example: `  # Start server on the default address
  passport-extractor serve

  # Listen on all interfaces
  passport-extractor serve --addr 0.0.0.0:8000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := storage.New(a.cfg.UploadDir)
			if err != nil {
				return err
			}
			defer store.RemoveAll()

			handler := handlers.New(a.pipeline, store, a.cfg.MaxUploadBytes)

			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Passport extractor available", "addr", addr, "url", "http://"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped", "pending_uploads", store.Pending())
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:8000", "Address to listen on")

	return cmd
}
