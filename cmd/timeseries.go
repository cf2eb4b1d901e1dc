package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/NeuroTechWizards/ai-market/internal/model"
)

var (
	timeseriesINN    string
	timeseriesSource string
	timeseriesFields []string
)

var timeseriesCmd = &cobra.Command{
	Use:   "timeseries",
	Short: "Print all statement rows for a company, oldest year first",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := localEngine(cmd, timeseriesSource)
		if err != nil {
			return err
		}

		rows, err := engine.TimeSeries(timeseriesINN)
		if err != nil {
			return eris.Wrap(err, "timeseries")
		}

		fields := timeseriesFields
		if len(fields) == 0 {
			fields = model.DefaultFields
		}

		out := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			out = append(out, row.Project(fields))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	timeseriesCmd.Flags().StringVar(&timeseriesINN, "inn", "", "company tax id (required)")
	timeseriesCmd.MarkFlagRequired("inn")
	timeseriesCmd.Flags().StringVar(&timeseriesSource, "source", "", "dataset source (default from config)")
	timeseriesCmd.Flags().StringSliceVar(&timeseriesFields, "fields", nil, "fields to print")
	rootCmd.AddCommand(timeseriesCmd)
}
