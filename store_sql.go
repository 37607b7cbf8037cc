package querycache

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type sqlStore struct {
	db         *sql.DB
	table      string
	driverName string
	prefix     string
	getStmt    *sql.Stmt
	upsertStmt *sql.Stmt
	deleteStmt *sql.Stmt
	flushStmt  *sql.Stmt
	countStmt  *sql.Stmt
}

var sqlIdentPartRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func newSQLStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	if cfg.SQLDriverName == "" || cfg.SQLDSN == "" {
		return nil, errors.New("sql driver requires driver name and dsn")
	}
	table := cfg.SQLTable
	if table == "" {
		table = defaultSQLTable
	}
	if err := validateSQLTableName(table); err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.SQLDriverName, cfg.SQLDSN)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.SQLDriverName)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping %s", cfg.SQLDriverName)
	}
	s := &sqlStore{
		db:         db,
		table:      table,
		driverName: cfg.SQLDriverName,
		prefix:     cfg.Prefix,
	}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ensure query cache table")
	}
	if err := s.prepareStatements(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "prepare query cache statements")
	}
	return s, nil
}

func (s *sqlStore) Driver() Driver { return DriverSQL }

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) ensureSchema(ctx context.Context) error {
	var stmt string
	switch s.dialect() {
	case "postgres":
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k TEXT PRIMARY KEY,
			v BYTEA NOT NULL
		);`, s.table)
	case "mysql":
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k VARBINARY(255) PRIMARY KEY,
			v LONGBLOB NOT NULL
		) ENGINE=InnoDB;`, s.table)
	default:
		stmt = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			k TEXT PRIMARY KEY,
			v BLOB NOT NULL
		);`, s.table)
	}
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := s.getStmt.QueryRowContext(ctx, s.cacheKey(key)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cloneBytes(v), true, nil
}

func (s *sqlStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.upsertStmt.ExecContext(ctx, s.cacheKey(key), value, value)
	return err
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	_, err := s.deleteStmt.ExecContext(ctx, s.cacheKey(key))
	return err
}

func (s *sqlStore) Flush(ctx context.Context) error {
	_, err := s.flushStmt.ExecContext(ctx, s.prefixPattern())
	return err
}

func (s *sqlStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.countStmt.QueryRowContext(ctx, s.prefixPattern()).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *sqlStore) cacheKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// prefixPattern matches every key this store owns. Derived keys never
// contain LIKE wildcards.
func (s *sqlStore) prefixPattern() string {
	if s.prefix == "" {
		return "%"
	}
	return s.prefix + ":%"
}

func (s *sqlStore) dialect() string {
	switch s.driverName {
	case "postgres", "pgx":
		return "postgres"
	case "mysql":
		return "mysql"
	default:
		return "sqlite"
	}
}

func (s *sqlStore) upsertSQL() string {
	p1, p2, p3 := s.ph(1), s.ph(2), s.ph(3)
	switch s.dialect() {
	case "mysql":
		return fmt.Sprintf("INSERT INTO %s (k, v) VALUES (%s, %s) ON DUPLICATE KEY UPDATE v = %s", s.table, p1, p2, p3)
	default:
		return fmt.Sprintf("INSERT INTO %s (k, v) VALUES (%s, %s) ON CONFLICT (k) DO UPDATE SET v = %s", s.table, p1, p2, p3)
	}
}

func (s *sqlStore) prepareStatements(ctx context.Context) error {
	statements := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.getStmt, fmt.Sprintf("SELECT v FROM %s WHERE k = %s", s.table, s.ph(1))},
		{&s.upsertStmt, s.upsertSQL()},
		{&s.deleteStmt, fmt.Sprintf("DELETE FROM %s WHERE k = %s", s.table, s.ph(1))},
		{&s.flushStmt, fmt.Sprintf("DELETE FROM %s WHERE k LIKE %s", s.table, s.ph(1))},
		{&s.countStmt, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE k LIKE %s", s.table, s.ph(1))},
	}
	for _, st := range statements {
		stmt, err := s.db.PrepareContext(ctx, st.query)
		if err != nil {
			return err
		}
		*st.dst = stmt
	}
	return nil
}

// ph returns the positional placeholder for the store's dialect.
func (s *sqlStore) ph(i int) string {
	if s.dialect() == "postgres" {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

func validateSQLTableName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("sql table name is required")
	}
	for _, part := range strings.Split(name, ".") {
		if !sqlIdentPartRE.MatchString(part) {
			return errors.Newf("invalid sql table name %q", name)
		}
	}
	return nil
}
