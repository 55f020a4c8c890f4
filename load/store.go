package load

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/techchallenge/vitibrasil-etl/config"
	"github.com/techchallenge/vitibrasil-etl/dataset"
	"github.com/techchallenge/vitibrasil-etl/template"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

const (
	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the relational database the sanitized datasets are imported into.
type Store struct {
	DB     *sql.DB
	Driver string
	Logger *slog.Logger
	closer func()
}

// OpenStore connects to the configured driver. DuckDB reuses the DuckDB
// connector, with store.dsn overriding duckdb.path when set.
func OpenStore(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	driver := strings.ToLower(cfg.Store.Driver)
	if driver == "" {
		driver = DriverDuckDB
	}

	switch driver {
	case DriverDuckDB:
		duckCfg := *cfg
		if cfg.Store.DSN != "" {
			duckCfg.DuckDB.Path = cfg.Store.DSN
		}
		duck, err := NewDuckDB(&duckCfg, logger)
		if err != nil {
			return nil, err
		}
		return &Store{DB: duck.DB, Driver: driver, Logger: logger, closer: duck.Close}, nil

	case DriverSQLite, DriverPostgres:
		dsn := cfg.Store.DSN
		if driver == DriverSQLite && dsn == "" {
			dsn = ":memory:"
		}
		db, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("error opening %s store: %w", driver, err)
		}
		if driver == DriverSQLite {
			// An in-memory SQLite database exists per connection.
			db.SetMaxOpenConns(1)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("error connecting to %s store: %w", driver, err)
		}
		logger.Info(fmt.Sprintf("Connected to %s store", driver))
		return &Store{DB: db, Driver: driver, Logger: logger, closer: func() { db.Close() }}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func (s *Store) Close() {
	if s.closer != nil {
		s.closer()
	}
}

// Migrate creates the tables of every dataset if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	params := map[string]any{"Grouped": []string{}, "Trade": []string{}}
	for _, k := range dataset.All() {
		key := "Grouped"
		if dataset.SpecFor(k, nil).Behavior == dataset.Trade {
			key = "Trade"
		}
		params[key] = append(params[key].([]string), k.String())
	}

	script, err := template.ExecuteSqlTemplate(sqlFiles, "sql/schema.sql", params)
	if err != nil {
		return fmt.Errorf("error rendering schema: %w", err)
	}

	for _, stmt := range template.SplitStatements(script) {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}
	return nil
}

// Rebind rewrites '?' placeholders for drivers that number their parameters.
func (s *Store) Rebind(query string) string {
	if s.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
