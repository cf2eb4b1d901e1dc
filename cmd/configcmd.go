package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Copy so secrets never hit stdout.
		redacted := *cfg
		if redacted.Bot.Token != "" {
			redacted.Bot.Token = "***"
		}
		if redacted.Anthropic.Key != "" {
			redacted.Anthropic.Key = "***"
		}

		out, err := yaml.Marshal(&redacted)
		if err != nil {
			return eris.Wrap(err, "config: marshal")
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
