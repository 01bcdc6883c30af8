package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                    { return nil }
func (nopStmt) NumInput() int                                   { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func resetSingleton() {
	singletonMu.Lock()
	singletonDB = nil
	singletonInFly = false
	singletonMu.Unlock()
}

func TestGetSingletonReturnsSamePointer(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	resetSingleton()

	db1, err := GetSingleton(context.Background(), "ignored", DefaultLambdaOptions())
	require.NoError(t, err)
	db2, err := GetSingleton(context.Background(), "ignored", DefaultLambdaOptions())
	require.NoError(t, err)
	assert.Same(t, db1, db2)
}

func TestGetSingletonRetriesAfterFailure(t *testing.T) {
	var calls int32
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, driver.ErrBadConn
		}
		ensureTestDriverRegistered()
		return sql.Open("dbtest", dsn)
	}
	defer func() { openDB = prev }()
	resetSingleton()

	_, err := GetSingleton(context.Background(), "ignored", DefaultLambdaOptions())
	require.Error(t, err)

	db, err := GetSingleton(context.Background(), "ignored", DefaultLambdaOptions())
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestGetSingletonConcurrentCallersShareOnePool(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	resetSingleton()

	var wg sync.WaitGroup
	results := make([]*sql.DB, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := GetSingleton(context.Background(), "ignored", DefaultLambdaOptions())
			if err == nil {
				results[i] = db
			}
		}(i)
	}
	wg.Wait()
	for _, db := range results {
		assert.Same(t, results[0], db)
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), "  ", DefaultServerOptions())
	assert.Error(t, err)
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := OptionsFromEnv(DefaultServerOptions())
	db, err := Connect(context.Background(), "ignored", opts)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
	assert.Equal(t, 3, opts.MaxIdleConns)
	assert.Equal(t, 20*time.Minute, opts.ConnMaxLifetime)
	assert.Equal(t, 45*time.Second, opts.ConnMaxIdleTime)
	assert.Equal(t, time.Second, opts.PingTimeout)
}

func TestOptionsFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")
	t.Setenv("DB_PING_TIMEOUT", "soon")

	opts := OptionsFromEnv(DefaultServerOptions())
	assert.Equal(t, DefaultServerOptions().MaxOpenConns, opts.MaxOpenConns)
	assert.Equal(t, DefaultServerOptions().PingTimeout, opts.PingTimeout)
}

func TestRuntimeOptionsPicksLambdaDefaults(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "docreader-http")
	assert.Equal(t, DefaultLambdaOptions(), RuntimeOptions())

	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	assert.Equal(t, DefaultServerOptions(), RuntimeOptions())
}

func TestMigrationsAreEmbedded(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "migrations/00001_documents.sql", names[0])
	assert.NoError(t, RunMigrations(context.Background(), nil))
}
