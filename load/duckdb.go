package load

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"github.com/marcboeker/go-duckdb"

	"github.com/techchallenge/vitibrasil-etl/config"
)

const tmpCSVPattern = "vitibrasil-*.csv"

type DuckDB struct {
	Logger    *slog.Logger
	DB        *sql.DB
	Connector *duckdb.Connector
	DBType    string
}

func NewDuckDB(config *config.Config, logger *slog.Logger) (*DuckDB, error) {
	var path string
	var dbType string
	if strings.HasPrefix(config.DuckDB.Path, "md:") {
		motherduckToken := os.Getenv("MOTHERDUCK_TOKEN")
		if motherduckToken == "" {
			return nil, fmt.Errorf("MOTHERDUCK_TOKEN env variable is not set")
		}
		path = fmt.Sprintf("%s?motherduck_token=%s", config.DuckDB.Path, motherduckToken)
		dbType = ":md:"
	} else if config.DuckDB.Path == "" || config.DuckDB.Path == ":memory:" {
		path = ""
		dbType = ":memory:"
	} else {
		path = config.DuckDB.Path
		dbType = path
	}

	var connInitFn func(driver.ExecerContext) error
	if len(config.DuckDB.ConnInitFnQueries) > 0 {
		connInitFn = func(exec driver.ExecerContext) error {
			for _, path := range config.DuckDB.ConnInitFnQueries {
				query, err := readQuery(path)
				if err != nil {
					return err
				}
				if _, err = exec.ExecContext(context.Background(), string(query), nil); err != nil {
					return fmt.Errorf("failed to execute query from file %s: %w", path, err)
				}
			}
			return nil
		}
		logger.Debug(fmt.Sprintf("Connection initialization queries: %v", config.DuckDB.ConnInitFnQueries))
	}

	connector, err := duckdb.NewConnector(path, connInitFn)
	if err != nil {
		return nil, fmt.Errorf("error creating DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	switch dbType {
	case ":memory:":
		logger.Info("Connected to DuckDB in-memory database")
	case ":md:":
		logger.Info("Connected to MotherDuck database")
	default:
		logger.Info(fmt.Sprintf("Connected to local DuckDB database at %s", dbType))
	}

	return &DuckDB{
		Logger:    logger,
		DB:        db,
		Connector: connector,
		DBType:    dbType,
	}, nil
}

func readQuery(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	query, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return query, nil
}

func (db *DuckDB) Close() {
	db.DB.Close()
	db.Connector.Close()
}

// LoadCSVWithQuery loads CSV data using a templated SQL query.
// The query template should use {{.CsvFile}} where the temporary CSV filename should be inserted.
func (db *DuckDB) LoadCSVWithQuery(csv []byte, queryTemplate string, params map[string]any) (sql.Result, error) {
	tmpFile, err := createTmpFile(csv)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpFile)

	if params == nil {
		params = make(map[string]any)
	}
	params["CsvFile"] = tmpFile

	tmpl, err := template.New("sql").Parse(queryTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query template: %w", err)
	}

	var queryBuffer bytes.Buffer
	if err := tmpl.Execute(&queryBuffer, params); err != nil {
		return nil, fmt.Errorf("failed to execute query template: %w", err)
	}

	db.Logger.Debug("Executing DuckDB query", "query", queryBuffer.String())
	res, err := db.DB.ExecContext(context.Background(), queryBuffer.String())
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	return res, nil
}

// ReplaceTableFromCSV (re)creates table from comma-delimited CSV with a header,
// letting DuckDB infer the column types.
func (db *DuckDB) ReplaceTableFromCSV(csv []byte, table string) error {
	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv('{{.CsvFile}}', delim=',', quote='\"', escape='\"', header=true);",
		table,
	)
	if _, err := db.LoadCSVWithQuery(csv, query, nil); err != nil {
		return fmt.Errorf("error loading CSV into %s: %w", table, err)
	}
	return nil
}

// ExportParquet writes the result of query to a parquet file at path.
func (db *DuckDB) ExportParquet(query, path string) error {
	q := fmt.Sprintf("COPY (%s) TO '%s' (FORMAT PARQUET);", strings.TrimSuffix(strings.TrimSpace(query), ";"), escapeLiteral(path))
	return db.RunQuery(q)
}

func createTmpFile(csv []byte) (string, error) {
	if len(csv) == 0 {
		return "", fmt.Errorf("received empty CSV data")
	}

	tmpFile, err := os.CreateTemp("", tmpCSVPattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := tmpFile.Write(csv); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write to temporary file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary file: %w", err)
	}

	return tmpFile.Name(), nil
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (db *DuckDB) RunQuery(query string) error {
	db.Logger.Debug("Executing DuckDB query", "query", query)
	_, err := db.DB.ExecContext(context.Background(), query)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	return nil
}

// GetQueryResults executes a query and returns the results as a map of column names to slices of values
func (db *DuckDB) GetQueryResults(query string) (map[string][]string, error) {
	rows, err := db.DB.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := make(map[string][]string)
	for _, col := range columns {
		results[col] = []string{}
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, col := range columns {
			results[col] = append(results[col], fmt.Sprintf("%v", values[i]))
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return results, nil
}

// Columns returns the column names of the result of query, in order.
func (db *DuckDB) Columns(query string) ([]string, error) {
	rows, err := db.DB.QueryContext(context.Background(), fmt.Sprintf("SELECT * FROM (%s) LIMIT 0", strings.TrimSuffix(strings.TrimSpace(query), ";")))
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()
	return rows.Columns()
}
