package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"capital-risk/internal/catalog"
	"capital-risk/internal/logger"
	"capital-risk/internal/model"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Backend names a storage implementation.
type Backend string

const (
	BackendCSV      Backend = "csv"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendMySQL    Backend = "mysql"
)

const (
	tableActualRuns      = "actual_runs"
	tableExperimentRuns  = "experiment_runs"
	tableScenarioRuns    = "scenario_runs"
	tableBusinessUnits   = "business_units"
	tableProducts        = "products"
	tableBaselEventTypes = "basel_event_types"
)

// SQLStore keeps runs in a SQL database. Rows are returned in insertion order.
type SQLStore struct {
	db      *sql.DB
	backend Backend
	log     *logger.Logger
}

// NewSQLStore connects to the database and creates missing tables.
// dsn formats:
//
//	sqlite:   file path, e.g. data/runs.db
//	postgres: host=localhost port=5432 user=postgres dbname=capital
//	mysql:    user:password@tcp(host:port)/dbname
func NewSQLStore(ctx context.Context, backend Backend, dsn string, log *logger.Logger) (*SQLStore, error) {
	if log == nil {
		log = logger.Nop()
	}
	var driverName string
	switch backend {
	case BackendSQLite:
		driverName = "sqlite"
	case BackendPostgres:
		driverName = "pgx"
	case BackendMySQL:
		driverName = "mysql"
	default:
		return nil, fmt.Errorf("unsupported SQL backend: %q. Must be sqlite, postgres, or mysql", backend)
	}
	if dsn == "" {
		return nil, fmt.Errorf("a DSN is required for the %s backend", backend)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == BackendSQLite {
		// avoid "database is locked" under concurrent handlers
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}

	s := &SQLStore{db: db, backend: backend, log: log.With("component", "SQLStore", "backend", string(backend))}
	for _, q := range s.schema() {
		if _, err := db.ExecContext(ctx, q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return s, nil
}

func (s *SQLStore) schema() []string {
	var seq, text, long string
	switch s.backend {
	case BackendPostgres:
		seq, text, long = "seq BIGSERIAL PRIMARY KEY", "TEXT", "TEXT"
	case BackendMySQL:
		seq, text, long = "seq BIGINT AUTO_INCREMENT PRIMARY KEY", "VARCHAR(255)", "TEXT"
	default:
		seq, text, long = "seq INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT", "TEXT"
	}
	table := func(name string, cols []string) string {
		defs := []string{seq}
		for _, c := range cols {
			typ := text
			if c == "description" {
				typ = long
			}
			def := fmt.Sprintf("%s %s NOT NULL DEFAULT ''", c, typ)
			if c == "id" {
				def = fmt.Sprintf("id %s NOT NULL UNIQUE", text)
			}
			if s.backend == BackendMySQL && typ == long {
				// MySQL rejects defaults on TEXT columns
				def = fmt.Sprintf("%s %s", c, typ)
			}
			defs = append(defs, def)
		}
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", name, strings.Join(defs, ", "))
	}
	return []string{
		table(tableActualRuns, actualColumns),
		table(tableExperimentRuns, experimentColumns),
		table(tableScenarioRuns, scenarioColumns),
		table(tableBusinessUnits, businessUnitColumns),
		table(tableProducts, productColumns),
		table(tableBaselEventTypes, baselColumns),
	}
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *SQLStore) rebind(q string) string {
	if s.backend != BackendPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func insertQuery(table string, cols []string) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks)
}

func args(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) insert(ctx context.Context, db execer, table string, cols []string, rows ...[]string) error {
	q := s.rebind(insertQuery(table, cols))
	for _, r := range rows {
		if _, err := db.ExecContext(ctx, q, args(r)...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

// selectRows returns every row of table keyed by column name.
func (s *SQLStore) selectRows(ctx context.Context, table string, cols []string, where string, whereArgs ...any) ([]map[string]string, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), table)
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY seq"
	rows, err := s.db.QueryContext(ctx, s.rebind(q), whereArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []map[string]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		row := make(map[string]string, len(cols))
		for i, c := range cols {
			row[c] = vals[i].String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SQLStore) BusinessUnits(ctx context.Context) ([]string, error) {
	rows, err := s.selectRows(ctx, tableBusinessUnits, businessUnitColumns, "")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return catalog.Names(catalog.Defaults()), nil
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r["name"])
	}
	return out, nil
}

func (s *SQLStore) Products(ctx context.Context, businessUnit string) ([]string, error) {
	return s.reference(ctx, tableProducts, productColumns, businessUnit, func() []string {
		return catalog.Products(catalog.Defaults(), businessUnit)
	})
}

func (s *SQLStore) BaselEventTypes(ctx context.Context, businessUnit string) ([]string, error) {
	return s.reference(ctx, tableBaselEventTypes, baselColumns, businessUnit, func() []string {
		return catalog.BaselEventTypes(catalog.Defaults(), businessUnit)
	})
}

func (s *SQLStore) reference(ctx context.Context, table string, cols []string, businessUnit string, fallback func() []string) ([]string, error) {
	rows, err := s.selectRows(ctx, table, cols, "")
	if err != nil {
		return nil, err
	}
	flat := make([][]string, 0, len(rows))
	for _, r := range rows {
		flat = append(flat, []string{r[cols[0]], r[cols[1]]})
	}
	return referenceValues(flat, businessUnit, fallback), nil
}

func (s *SQLStore) CreateBusinessUnit(ctx context.Context, bu model.BusinessUnit) (bool, error) {
	if err := validateBusinessUnit(bu); err != nil {
		return false, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var total, existing int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tableBusinessUnits).Scan(&total); err != nil {
		return false, fmt.Errorf("failed to count business units: %w", err)
	}
	if total == 0 {
		if err := s.seedReference(ctx, tx); err != nil {
			return false, err
		}
	}
	q := s.rebind("SELECT COUNT(*) FROM " + tableBusinessUnits + " WHERE name = ?")
	if err := tx.QueryRowContext(ctx, q, bu.Name).Scan(&existing); err != nil {
		return false, fmt.Errorf("failed to look up business unit: %w", err)
	}
	if existing > 0 {
		return false, tx.Commit()
	}

	if err := s.insert(ctx, tx, tableBusinessUnits, businessUnitColumns, []string{bu.Name}); err != nil {
		return false, err
	}
	one := []model.BusinessUnit{bu}
	if err := s.insert(ctx, tx, tableProducts, productColumns, pairs(one, unitProducts)...); err != nil {
		return false, err
	}
	if err := s.insert(ctx, tx, tableBaselEventTypes, baselColumns, pairs(one, unitBasel)...); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	s.log.Info("Created business unit", "name", bu.Name)
	return true, nil
}

func (s *SQLStore) CreateActualRun(ctx context.Context, run model.ActualRun) (model.ActualRun, error) {
	run, err := prepareActual(run)
	if err != nil {
		return run, err
	}
	return run, s.insert(ctx, s.db, tableActualRuns, actualColumns, actualRow(run))
}

func (s *SQLStore) ActualRuns(ctx context.Context) ([]model.ActualRun, error) {
	rows, err := s.selectRows(ctx, tableActualRuns, actualColumns, "")
	if err != nil {
		return nil, err
	}
	out := make([]model.ActualRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, actualFrom(r))
	}
	return out, nil
}

func (s *SQLStore) CreateExperimentRuns(ctx context.Context, in ...model.ExperimentRun) ([]model.ExperimentRun, error) {
	prepared, err := prepareExperiments(in)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	for _, r := range prepared {
		if err := s.insert(ctx, tx, tableExperimentRuns, experimentColumns, experimentRow(r)); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return prepared, nil
}

func (s *SQLStore) ExperimentRuns(ctx context.Context) ([]model.ExperimentRun, error) {
	rows, err := s.selectRows(ctx, tableExperimentRuns, experimentColumns, "")
	if err != nil {
		return nil, err
	}
	out := make([]model.ExperimentRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, experimentFrom(r))
	}
	return out, nil
}

func (s *SQLStore) DeleteExperimentRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM "+tableExperimentRuns+" WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete experiment run: %w", err)
	}
	return affected(res, "experiment run", id)
}

func (s *SQLStore) CreateScenarioRun(ctx context.Context, run model.ScenarioRun) (model.ScenarioRun, error) {
	run, err := prepareScenario(run)
	if err != nil {
		return run, err
	}
	return run, s.insert(ctx, s.db, tableScenarioRuns, scenarioColumns, scenarioRow(run))
}

func (s *SQLStore) ScenarioRuns(ctx context.Context) ([]model.ScenarioRun, error) {
	rows, err := s.selectRows(ctx, tableScenarioRuns, scenarioColumns, "")
	if err != nil {
		return nil, err
	}
	out := make([]model.ScenarioRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, scenarioFrom(r))
	}
	return out, nil
}

func (s *SQLStore) UpdateScenarioRun(ctx context.Context, id, status string) error {
	if err := validateStatus(status); err != nil {
		return err
	}
	// MySQL reports zero affected rows when the value is unchanged, so
	// existence is checked separately.
	var n int
	q := s.rebind("SELECT COUNT(*) FROM " + tableScenarioRuns + " WHERE id = ?")
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up scenario run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("scenario run %s: %w", id, ErrNotFound)
	}
	_, err := s.db.ExecContext(ctx, s.rebind("UPDATE "+tableScenarioRuns+" SET status = ? WHERE id = ?"), status, id)
	if err != nil {
		return fmt.Errorf("failed to update scenario run: %w", err)
	}
	return nil
}

func (s *SQLStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, t := range []string{tableActualRuns, tableExperimentRuns, tableScenarioRuns} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("failed to clear %s: %w", t, err)
		}
	}
	if err := s.seedReference(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info("Reset run data")
	return nil
}

// seedReference replaces the reference tables with the catalog defaults.
func (s *SQLStore) seedReference(ctx context.Context, tx *sql.Tx) error {
	for _, t := range []string{tableBusinessUnits, tableProducts, tableBaselEventTypes} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("failed to clear %s: %w", t, err)
		}
	}
	defaults := catalog.Defaults()
	for _, n := range catalog.Names(defaults) {
		if err := s.insert(ctx, tx, tableBusinessUnits, businessUnitColumns, []string{n}); err != nil {
			return err
		}
	}
	if err := s.insert(ctx, tx, tableProducts, productColumns, pairs(defaults, unitProducts)...); err != nil {
		return err
	}
	return s.insert(ctx, tx, tableBaselEventTypes, baselColumns, pairs(defaults, unitBasel)...)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func affected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

// Open builds the store named by backend. The csv backend treats dsn as the
// data directory.
func Open(ctx context.Context, backend Backend, dsn string, log *logger.Logger) (Store, error) {
	switch backend {
	case BackendCSV, "":
		if dsn == "" {
			return nil, errors.New("a data directory is required for the csv backend")
		}
		return NewCSVStore(dsn, log)
	default:
		return NewSQLStore(ctx, backend, dsn, log)
	}
}
