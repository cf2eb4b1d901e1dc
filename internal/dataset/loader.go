package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NeuroTechWizards/ai-market/internal/model"
)

// Loader reads a dataset source into an immutable Dataset. Implementations
// wrap every failure with ErrLoad so the engine can classify it.
type Loader interface {
	Load(ctx context.Context, source string) (*Dataset, error)
}

// SourceLoader dispatches on the source shape: postgres:// connection
// strings, .parquet / .csv / .sqlite files, a directory of year-partitioned
// files, or a comma-separated list of any of those.
type SourceLoader struct {
	pg *PostgresLoader
}

// NewSourceLoader creates a loader covering every supported source kind.
func NewSourceLoader() *SourceLoader {
	return &SourceLoader{pg: NewPostgresLoader()}
}

// Load reads the source. Multi-part sources (directories, comma lists) are
// loaded concurrently and concatenated in lexical part order, which for the
// year-partitioned RFSD layout means year ascending.
func (l *SourceLoader) Load(ctx context.Context, source string) (*Dataset, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, eris.Wrap(ErrLoad, "empty source")
	}

	if strings.HasPrefix(source, "postgres://") || strings.HasPrefix(source, "postgresql://") {
		return l.pg.Load(ctx, source)
	}

	if strings.Contains(source, ",") {
		return l.loadMany(ctx, splitSources(source))
	}

	if info, err := os.Stat(source); err == nil && info.IsDir() {
		parts, err := listDatasetFiles(source)
		if err != nil {
			return nil, err
		}
		return l.loadMany(ctx, parts)
	}

	return l.loadOne(ctx, source)
}

func (l *SourceLoader) loadOne(ctx context.Context, source string) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".parquet":
		return LoadParquet(ctx, source)
	case ".csv":
		return LoadCSV(ctx, source)
	case ".sqlite", ".sqlite3", ".db":
		return LoadSQLite(ctx, source)
	default:
		return nil, eris.Wrapf(ErrLoad, "unsupported source %q", source)
	}
}

// loadMany loads each part concurrently, then concatenates rows in part
// order. The column set is the union across parts in first-seen order, so
// schema drift between years widens the dataset instead of failing it.
func (l *SourceLoader) loadMany(ctx context.Context, parts []string) (*Dataset, error) {
	if len(parts) == 0 {
		return nil, eris.Wrap(ErrLoad, "no dataset files in source")
	}

	results := make([]*Dataset, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, part := range parts {
		g.Go(func() error {
			d, err := l.loadOne(gctx, part)
			if err != nil {
				return err
			}
			results[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var columns []string
	seen := make(map[string]bool)
	total := 0
	for _, d := range results {
		total += d.Len()
		for _, c := range d.columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}

	rows := make([]model.StatementRow, 0, total)
	for _, d := range results {
		rows = append(rows, d.rows...)
	}

	zap.L().Debug("concatenated dataset parts",
		zap.Int("parts", len(parts)),
		zap.Int("rows", total),
	)
	return NewDataset(columns, rows)
}

func splitSources(source string) []string {
	var parts []string
	for _, p := range strings.Split(source, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// listDatasetFiles returns the loadable files in a directory, sorted by name.
func listDatasetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "read dir %s: %v", dir, err)
	}
	var parts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".parquet", ".csv", ".sqlite", ".sqlite3", ".db":
			parts = append(parts, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(parts)
	return parts, nil
}
