package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/NeuroTechWizards/ai-market/internal/dataset"
	"github.com/NeuroTechWizards/ai-market/internal/model"
)

var (
	sampleLimit  int
	sampleSource string
	sampleFields []string
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Load the dataset and print the first N rows as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := localEngine(cmd, sampleSource)
		if err != nil {
			return err
		}

		rows, err := engine.Sample(sampleLimit)
		if err != nil {
			return eris.Wrap(err, "sample")
		}

		fields := sampleFields
		if len(fields) == 0 {
			fields = []string{model.ColumnINN, model.ColumnYear}
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

// localEngine loads the dataset once for a one-shot CLI query.
func localEngine(cmd *cobra.Command, source string) (*dataset.Engine, error) {
	if source == "" {
		source = cfg.Dataset.Source
	}
	if source == "" {
		return nil, eris.New("dataset source is required (--source or RFSD_DATASET_SOURCE)")
	}

	engine := dataset.NewEngine(dataset.NewSourceLoader())
	if err := engine.Load(cmd.Context(), source); err != nil {
		return nil, eris.Wrap(err, "load dataset")
	}
	return engine, nil
}

func init() {
	sampleCmd.Flags().IntVar(&sampleLimit, "limit", 5, "number of rows")
	sampleCmd.Flags().StringVar(&sampleSource, "source", "", "dataset source (default from config)")
	sampleCmd.Flags().StringSliceVar(&sampleFields, "fields", nil, "fields to print (default inn,year)")
	rootCmd.AddCommand(sampleCmd)
}
