package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NeuroTechWizards/ai-market/internal/analyst"
	"github.com/NeuroTechWizards/ai-market/internal/api"
	"github.com/NeuroTechWizards/ai-market/internal/databook"
	"github.com/NeuroTechWizards/ai-market/internal/dataset"
	"github.com/NeuroTechWizards/ai-market/pkg/anthropic"
)

var (
	servePort   int
	serveSource string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the RFSD backend HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		source := serveSource
		if source == "" {
			source = cfg.Dataset.Source
		}
		if source == "" {
			return eris.New("serve: dataset source is required (--source or RFSD_DATASET_SOURCE)")
		}

		engine := dataset.NewEngine(dataset.NewSourceLoader())
		if err := engine.Load(ctx, source); err != nil {
			return eris.Wrap(err, "serve: initial dataset load")
		}

		opts := []api.Option{api.WithSampleLimitMax(cfg.Server.SampleLimitMax)}

		if cfg.Dataset.Databook != "" {
			book, err := databook.Load(cfg.Dataset.Databook)
			if err != nil {
				return eris.Wrap(err, "serve: load databook")
			}
			zap.L().Info("databook loaded", zap.Int("indicators", book.Len()))
			opts = append(opts, api.WithDatabook(book))
		}

		if cfg.Anthropic.Key != "" {
			llm := anthropic.NewClient(cfg.Anthropic.Key)
			opts = append(opts, api.WithAnalyst(analyst.New(engine, llm, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)))
		}

		server := api.NewServer(engine, source, opts...)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.Router(cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// SIGHUP triggers a snapshot reload without restarting the server.
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-hup:
					zap.L().Info("reload signal received")
					if err := engine.Load(ctx, source); err != nil {
						zap.L().Error("signal reload failed", zap.Error(err))
					}
				}
			}
		}()

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		rows, _ := engine.Size()
		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Int("rows", rows),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveSource, "source", "", "dataset source (default from config)")
	rootCmd.AddCommand(serveCmd)
}
