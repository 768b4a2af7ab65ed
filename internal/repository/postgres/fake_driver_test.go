package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
)

// fakeDB answers the handful of statements SnapshotRepository issues,
// keeping rows in a map keyed by snapshot key.
type fakeDB struct {
	mu      sync.Mutex
	rows    map[string]string
	upserts int
	execErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: make(map[string]string)}
}

// open returns a *sql.DB backed by f. Nothing is registered globally.
func (f *fakeDB) open() *sql.DB {
	return sql.OpenDB(fakeConnector{db: f})
}

func (f *fakeDB) row(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.rows[key]
	return v, ok
}

func (f *fakeDB) put(key, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[key] = data
}

type fakeConnector struct{ db *fakeDB }

func (c fakeConnector) Connect(context.Context) (driver.Conn, error) { return &fakeConn{db: c.db}, nil }
func (c fakeConnector) Driver() driver.Driver                        { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open through fakeConnector")
}

type fakeConn struct{ db *fakeDB }

func (c *fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions are not supported") }

func (c *fakeConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	if c.db.execErr != nil {
		return nil, c.db.execErr
	}
	switch {
	case strings.Contains(query, "CREATE TABLE"):
		return driver.RowsAffected(0), nil
	case strings.Contains(query, "INSERT INTO financial_snapshots"):
		c.db.rows[args[0].Value.(string)] = args[1].Value.(string)
		c.db.upserts++
		return driver.RowsAffected(1), nil
	case strings.Contains(query, "DELETE FROM financial_snapshots"):
		delete(c.db.rows, args[0].Value.(string))
		return driver.RowsAffected(1), nil
	}
	return nil, errors.New("unexpected statement: " + query)
}

func (c *fakeConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if !strings.Contains(query, "SELECT data FROM financial_snapshots") {
		return nil, errors.New("unexpected query: " + query)
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	rows := &fakeRows{}
	if data, ok := c.db.rows[args[0].Value.(string)]; ok {
		rows.values = []string{data}
	}
	return rows, nil
}

type fakeRows struct {
	values []string
	next   int
}

func (r *fakeRows) Columns() []string { return []string{"data"} }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.next >= len(r.values) {
		return io.EOF
	}
	dest[0] = r.values[r.next]
	r.next++
	return nil
}
