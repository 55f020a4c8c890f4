package pipeline

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/techchallenge/vitibrasil-etl/load"
	"github.com/techchallenge/vitibrasil-etl/template"
	"github.com/techchallenge/vitibrasil-etl/transform"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

const (
	portfolioTable        = "b3_portfolio"
	refinedPortfolioTable = "b3_portfolio_refined"
)

// QualityError reports a data-quality rule that the refined portfolio failed.
type QualityError struct {
	Rule  string
	Value int
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("data quality rule %q failed (value %d)", e.Rule, e.Value)
}

// IngestPortfolio downloads the B3 theoretical portfolio, reshapes it, loads it
// into DuckDB and exports it as b3-<date>.parquet. The file is uploaded to the
// raw bucket when uploader is not nil. It returns the parquet path.
func (p *Pipeline) IngestPortfolio(ctx context.Context, db *load.DuckDB, uploader load.Uploader) (string, error) {
	cfg := p.Config.B3
	text, err := p.Client.FetchPortfolio(ctx, cfg.URL, cfg.Encoding)
	if err != nil {
		return "", fmt.Errorf("error fetching portfolio: %w", err)
	}

	portfolio, err := transform.ReshapePortfolio(text)
	if err != nil {
		return "", fmt.Errorf("error reshaping portfolio: %w", err)
	}

	csv, err := portfolio.Table.CSV()
	if err != nil {
		return "", err
	}
	csv, removed, err := load.RemoveDuplicateRows(csv)
	if err != nil {
		return "", fmt.Errorf("error removing duplicate rows: %w", err)
	}
	if removed > 0 {
		p.Logger.Info(fmt.Sprintf("Removed %d duplicate portfolio rows", removed))
	}

	if err := db.ReplaceTableFromCSV(csv, portfolioTable); err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating %s: %w", cfg.Dir, err)
	}
	path := filepath.Join(cfg.Dir, fmt.Sprintf("b3-%s.parquet", portfolio.Date))
	if err := db.ExportParquet("SELECT * FROM "+portfolioTable, path); err != nil {
		return "", fmt.Errorf("error exporting portfolio: %w", err)
	}
	p.Logger.Info(fmt.Sprintf("Exported %d portfolio rows of %s to %s", portfolio.Table.Len()-removed, portfolio.Date, path))

	if uploader != nil {
		if err := uploader.Upload(ctx, p.Config.ObjectStore.RawBucket, cfg.ObjectKey, path); err != nil {
			return path, err
		}
	}
	return path, nil
}

// RefinePortfolio deduplicates and aggregates a raw portfolio parquet file,
// checks the data-quality rules and exports the refined parquet next to it.
func (p *Pipeline) RefinePortfolio(ctx context.Context, db *load.DuckDB, uploader load.Uploader, rawPath string) (string, error) {
	query, err := template.ExecuteSqlTemplate(sqlFiles, "sql/refine_portfolio.sql", map[string]any{
		"Table":   refinedPortfolioTable,
		"RawFile": strings.ReplaceAll(rawPath, "'", "''"),
	})
	if err != nil {
		return "", err
	}
	if err := db.RunQuery(query); err != nil {
		return "", fmt.Errorf("error refining %s: %w", rawPath, err)
	}

	if err := p.checkQuality(db, refinedPortfolioTable); err != nil {
		return "", err
	}

	path := strings.TrimSuffix(rawPath, filepath.Ext(rawPath)) + "-refined.parquet"
	if err := db.ExportParquet("SELECT * FROM "+refinedPortfolioTable, path); err != nil {
		return "", fmt.Errorf("error exporting refined portfolio: %w", err)
	}
	p.Logger.Info(fmt.Sprintf("Exported refined portfolio to %s", path))

	if uploader != nil {
		if err := uploader.Upload(ctx, p.Config.ObjectStore.RefinedBucket, filepath.Base(path), path); err != nil {
			return path, err
		}
	}
	return path, nil
}

func (p *Pipeline) checkQuality(db *load.DuckDB, table string) error {
	cols, err := db.Columns("SELECT * FROM " + table)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return &QualityError{Rule: "ColumnCount > 0", Value: 0}
	}

	res, err := db.GetQueryResults("SELECT count(*) AS n FROM " + table)
	if err != nil {
		return err
	}
	rows, err := strconv.Atoi(res["n"][0])
	if err != nil {
		return fmt.Errorf("error reading row count: %w", err)
	}
	if rows == 0 {
		return &QualityError{Rule: "RowCount > 0", Value: 0}
	}

	p.Logger.Info("Data quality rules passed", "columns", len(cols), "rows", rows)
	return nil
}
