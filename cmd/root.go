package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NeuroTechWizards/ai-market/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rfsd",
	Short: "Backend and chat-bot for the Russian Financial Statements Database",
	Long:  "Serves RFSD statement rows over HTTP (health, sampling, company time series, XLSX exports) and fronts them with a Telegram bot.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
