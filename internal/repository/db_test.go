package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/catalogbot/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", PoolOptions{MaxOpenConns: 4})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestExecuteModes(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	res, err := db.Execute(ctx, `INSERT INTO attributes (name) VALUES (?)`, []any{"Color"}, ModeWrite)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.EqualValues(t, 1, res.RowsAffected)

	_, err = db.Execute(ctx, `INSERT INTO attributes (name) VALUES (?)`, []any{"Size"}, ModeWrite)
	require.NoError(t, err)

	all, err := db.Execute(ctx, `SELECT id, name FROM attributes ORDER BY id ASC`, nil, ModeFetchAll)
	require.NoError(t, err)
	require.Len(t, all.Rows, 2)
	assert.Equal(t, "Color", all.Rows[0].String(1))
	assert.Equal(t, "Size", all.Rows[1].String(1))

	one, err := db.Execute(ctx, `SELECT id, name FROM attributes ORDER BY id ASC`, nil, ModeFetchOne)
	require.NoError(t, err)
	require.Len(t, one.Rows, 1)
	id, err := one.Rows[0].Int64(0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	none, err := db.Execute(ctx, `SELECT id FROM attributes WHERE name = ?`, []any{"Missing"}, ModeFetchOne)
	require.NoError(t, err)
	_, ok := none.First()
	assert.False(t, ok)
}

func TestExecuteFailureIsDataAccessError(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.Execute(ctx, `SELECT * FROM no_such_table`, nil, ModeFetchAll)
	assert.ErrorIs(t, err, domain.ErrDataAccess)
	assert.True(t, domain.IsDataAccess(err))

	_, err = db.Execute(ctx, `INSERT INTO attributes (name) VALUES (?)`, []any{nil}, ModeWrite)
	assert.ErrorIs(t, err, domain.ErrDataAccess)
}

func TestExecuteRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.Execute(ctx, `INSERT INTO attributes (name) VALUES (?)`, []any{"Color"}, ModeWrite)
	require.NoError(t, err)

	// The second row violates the unique name constraint, so the whole statement is rolled back.
	_, err = db.Execute(ctx, `INSERT INTO attributes (name) VALUES (?), (?)`, []any{"Size", "Color"}, ModeWrite)
	require.ErrorIs(t, err, domain.ErrDataAccess)

	res, err := db.Execute(ctx, `SELECT COUNT(*) FROM attributes`, nil, ModeFetchOne)
	require.NoError(t, err)
	count, err := res.Rows[0].Int64(0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// The single pooled connection was released: further queries still work.
	_, err = db.Execute(ctx, `SELECT id FROM attributes`, nil, ModeFetchAll)
	assert.NoError(t, err)
}

func TestExecuteAfterCloseFails(t *testing.T) {
	db, err := Open(":memory:", PoolOptions{})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.Execute(context.Background(), `SELECT 1`, nil, ModeFetchOne)
	assert.ErrorIs(t, err, domain.ErrDataAccess)
}

func TestRebind(t *testing.T) {
	pg := dialectFor("postgres://u:p@localhost/db")
	assert.Equal(t, dialectPostgres, pg.name)
	assert.Equal(t,
		`SELECT id FROM customers WHERE username = $1 AND password = $2 AND role = 'admin?'`,
		pg.rebind(`SELECT id FROM customers WHERE username = ? AND password = ? AND role = 'admin?'`))

	lite := dialectFor("file:catalog.db")
	assert.Equal(t, dialectSQLite, lite.name)
	assert.Equal(t, `SELECT ?`, lite.rebind(`SELECT ?`))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate",
		sqliteDSN("file:x.db?mode=rwc"))
	assert.Equal(t, "file:x.db?_fk=1&_timeout=100&_txlock=immediate", sqliteDSN("file:x.db?_fk=1&_timeout=100"))
	assert.Equal(t, "catalog.db?_foreign_keys=on&_busy_timeout=5000&_txlock=deferred",
		sqliteDSN("catalog.db?_foreign_keys=on&_busy_timeout=5000&_txlock=deferred"))
}

func TestRowConversions(t *testing.T) {
	row := Row{int64(7), "name", []byte("bytes"), 9.5, nil}
	assert.Equal(t, "7", row.String(0))
	assert.Equal(t, "bytes", row.String(2))
	assert.Equal(t, "9.5", row.String(3))
	assert.Equal(t, "", row.String(4))
	assert.Nil(t, row.NullString(4))
	assert.Equal(t, "name", *row.NullString(1))

	_, err := row.Int64(1)
	assert.True(t, domain.IsValidation(err))
	_, err = row.Int64(4)
	assert.True(t, domain.IsValidation(err))
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	opts := SeedOptions{AdminUsername: "alice", AdminPassword: "secret", Attributes: []string{"Color", "Size"}}

	require.NoError(t, db.Seed(ctx, opts))
	require.NoError(t, db.Seed(ctx, opts))

	res, err := db.Execute(ctx, `SELECT COUNT(*) FROM customers WHERE username = 'alice' AND role = 'admin'`, nil, ModeFetchOne)
	require.NoError(t, err)
	n, _ := res.Rows[0].Int64(0)
	assert.EqualValues(t, 1, n)

	res, err = db.Execute(ctx, `SELECT COUNT(*) FROM attributes`, nil, ModeFetchOne)
	require.NoError(t, err)
	n, _ = res.Rows[0].Int64(0)
	assert.EqualValues(t, 2, n)
}
