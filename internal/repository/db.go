// Package repository is the data access layer: a pooled SQL executor and the
// catalog queries built on top of it.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/catalogbot/internal/domain"
)

var logger = loggo.GetLogger("catalogbot.repository")

// Mode selects what Execute returns.
type Mode int

const (
	// ModeWrite commits the statement and reports success.
	ModeWrite Mode = iota
	// ModeFetchAll returns every row.
	ModeFetchAll
	// ModeFetchOne returns at most one row.
	ModeFetchOne
)

func (m Mode) String() string {
	switch m {
	case ModeWrite:
		return "write"
	case ModeFetchAll:
		return "fetch_all"
	case ModeFetchOne:
		return "fetch_one"
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

// Row is one result tuple, in column order.
type Row []any

// Result is the outcome of Execute.
type Result struct {
	Rows         []Row
	OK           bool
	RowsAffected int64
}

// First returns the first row, if any.
func (r Result) First() (Row, bool) {
	if len(r.Rows) == 0 {
		return nil, false
	}
	return r.Rows[0], true
}

// PoolOptions bounds the connection pool.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
}

// DB executes parameterized queries over a bounded connection pool.
type DB struct {
	db      *sql.DB
	dialect dialect
}

// Open opens a database handle for the DSN. postgres:// and postgresql://
// DSNs use lib/pq; everything else is treated as a SQLite DSN.
func Open(dsn string, opts PoolOptions) (*DB, error) {
	d := dialectFor(dsn)
	if d.name == dialectSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open database")
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	// Shared-cache connections fail with SQLITE_LOCKED instead of waiting on
	// the busy timeout, so they are pinned the same way.
	if d.name == dialectSQLite && (isSQLiteMemory(dsn) || strings.Contains(dsn, "cache=shared")) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxIdleTime(0)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Annotate(err, "failed to connect to database")
	}

	return &DB{db: db, dialect: d}, nil
}

// Dialect returns the SQL dialect name ("sqlite" or "postgres").
func (d *DB) Dialect() string {
	return d.dialect.name
}

// Close closes the pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Execute runs query with params inside a transaction on one pooled
// connection. The transaction is committed on success and rolled back on any
// error; the connection always goes back to the pool. Failures are logged here
// and reported to callers only as domain.ErrDataAccess.
func (d *DB) Execute(ctx context.Context, query string, params []any, mode Mode) (Result, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Errorf("database error (%s): begin: %v", mode, err)
		return Result{}, domain.ErrDataAccess
	}

	res, err := run(ctx, tx, d.dialect.rebind(query), params, mode)
	if err != nil {
		logger.Errorf("database error (%s): %v", mode, err)
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			logger.Errorf("database error (%s): rollback: %v", mode, rbErr)
		}
		return Result{}, domain.ErrDataAccess
	}

	if err := tx.Commit(); err != nil {
		logger.Errorf("database error (%s): commit: %v", mode, err)
		return Result{}, domain.ErrDataAccess
	}
	return res, nil
}

func run(ctx context.Context, tx *sql.Tx, query string, params []any, mode Mode) (Result, error) {
	switch mode {
	case ModeWrite:
		r, err := tx.ExecContext(ctx, query, params...)
		if err != nil {
			return Result{}, err
		}
		affected, err := r.RowsAffected()
		if err != nil {
			affected = -1
		}
		return Result{OK: true, RowsAffected: affected}, nil
	case ModeFetchAll, ModeFetchOne:
		rows, err := tx.QueryContext(ctx, query, params...)
		if err != nil {
			return Result{}, err
		}
		defer rows.Close()
		out, err := scanRows(rows, mode == ModeFetchOne)
		if err != nil {
			return Result{}, err
		}
		return Result{Rows: out, OK: true}, nil
	}
	return Result{}, fmt.Errorf("unknown execute mode %d", int(mode))
}

func scanRows(rows *sql.Rows, onlyFirst bool) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			// Drivers may reuse byte slices between rows.
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, Row(values))
		if onlyFirst {
			break
		}
	}
	return out, rows.Err()
}

// String returns column i as text. NULL becomes "".
func (r Row) String(i int) string {
	switch v := r[i].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// NullString returns column i as text, or nil for NULL.
func (r Row) NullString(i int) *string {
	if r[i] == nil {
		return nil
	}
	s := r.String(i)
	return &s
}

// Int64 returns column i as an integer.
func (r Row) Int64(i int) (int64, error) {
	switch v := r[i].(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, errors.NotValidf("integer column %d (%q)", i, v)
		}
		return n, nil
	case nil:
		return 0, errors.NotValidf("NULL integer column %d", i)
	}
	return 0, errors.NotValidf("integer column %d of type %T", i, r[i])
}

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

type dialect struct {
	name   string
	driver string
}

func dialectFor(dsn string) dialect {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return dialect{name: dialectPostgres, driver: "postgres"}
	}
	return dialect{name: dialectSQLite, driver: "sqlite3"}
}

// rebind turns ? placeholders into $1, $2, ... for Postgres.
func (d dialect) rebind(query string) string {
	if d.name != dialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isSQLiteMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// sqliteDSN enables foreign keys and, for file databases, makes writers wait
// for each other: transactions take the write lock up front and retry for up
// to sqliteBusyTimeout instead of failing with "database is locked".
func sqliteDSN(dsn string) string {
	dsn = withSQLiteOption(dsn, "_foreign_keys", "on", "_fk")
	if isSQLiteMemory(dsn) {
		return dsn
	}
	dsn = withSQLiteOption(dsn, "_busy_timeout", sqliteBusyTimeout, "_timeout")
	return withSQLiteOption(dsn, "_txlock", "immediate")
}

const sqliteBusyTimeout = "5000"

// withSQLiteOption appends key=value unless key or one of its aliases is
// already present.
func withSQLiteOption(dsn, key, value string, aliases ...string) string {
	for _, k := range append([]string{key}, aliases...) {
		if strings.Contains(dsn, k+"=") {
			return dsn
		}
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + value
}
