package main

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NeuroTechWizards/ai-market/internal/fetcher"
)

var fetchOutDir string

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>...",
	Short: "Download dataset files to a local directory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(fetchOutDir, 0o755); err != nil {
			return eris.Wrap(err, "fetch: create output dir")
		}

		f := fetcher.NewHTTP(fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
			RatePerSec: cfg.Fetch.RatePerSec,
		})

		for _, raw := range args {
			u, err := url.Parse(raw)
			if err != nil {
				return eris.Wrapf(err, "fetch: parse url %s", raw)
			}
			name := path.Base(u.Path)
			if name == "" || name == "." || name == "/" {
				return eris.Errorf("fetch: cannot derive filename from %s", raw)
			}

			dest := filepath.Join(fetchOutDir, name)
			start := time.Now()
			n, err := f.DownloadToFile(cmd.Context(), raw, dest)
			if err != nil {
				return eris.Wrapf(err, "fetch: download %s", raw)
			}
			zap.L().Info("downloaded",
				zap.String("url", raw),
				zap.String("dest", dest),
				zap.Int64("bytes", n),
				zap.Duration("elapsed", time.Since(start)),
			)
		}

		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchOutDir, "out", "data", "output directory")
	rootCmd.AddCommand(fetchCmd)
}
