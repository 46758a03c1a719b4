// Package testutil fakes the snapshots table behind a database/sql driver so
// the postgres store can be tested without a server.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// Row is one stored snapshot.
type Row struct {
	Name      string
	Kind      string
	Payload   []byte
	UpdatedAt time.Time
}

// StubConn is the single connection handed out by the fake driver. It
// records every statement and keeps snapshot rows by name.
type StubConn struct {
	Statements []string
	Rows       map[string]Row

	FailPing   bool
	FailBegin  bool
	FailCommit bool
	// FailWrites rejects INSERT and DELETE statements.
	FailWrites bool
	// RowsErr is returned after the last row of a SELECT.
	RowsErr error
}

var registered atomic.Int64

// NewStubDB opens a sql.DB on a freshly registered fake driver.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Rows: make(map[string]Row)}
	name := fmt.Sprintf("psidpanel-stub-%d", registered.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Seed stores rows as if they had been written earlier.
func (c *StubConn) Seed(rows ...Row) {
	for _, r := range rows {
		c.Rows[r.Name] = r
	}
}

// Ran reports whether a recorded statement starts with prefix, ignoring case.
func (c *StubConn) Ran(prefix string) bool {
	for _, stmt := range c.Statements {
		if hasPrefixFold(stmt, prefix) {
			return true
		}
	}
	return false
}

type stubDriver struct{ conn *StubConn }

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *StubConn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("stub: prepared statements not supported")
}

func (c *StubConn) Close() error { return nil }

func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("stub: ping refused")
	}
	return nil
}

func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("stub: begin refused")
	}
	return stubTx{conn: c}, nil
}

// ExecContext understands the snapshots DDL, the upsert and the delete.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	query = strings.TrimSpace(query)
	c.Statements = append(c.Statements, query)
	switch {
	case hasPrefixFold(query, "CREATE TABLE"):
		return driver.RowsAffected(0), nil
	case hasPrefixFold(query, "INSERT INTO snapshots"):
		if c.FailWrites {
			return nil, fmt.Errorf("stub: insert refused")
		}
		row, err := rowFromArgs(args)
		if err != nil {
			return nil, err
		}
		c.Rows[row.Name] = row
		return driver.RowsAffected(1), nil
	case hasPrefixFold(query, "DELETE FROM snapshots"):
		if c.FailWrites {
			return nil, fmt.Errorf("stub: delete refused")
		}
		if len(args) != 1 {
			return nil, fmt.Errorf("stub: delete wants 1 arg, got %d", len(args))
		}
		name, _ := args[0].Value.(string)
		if _, ok := c.Rows[name]; !ok {
			return driver.RowsAffected(0), nil
		}
		delete(c.Rows, name)
		return driver.RowsAffected(1), nil
	}
	return nil, fmt.Errorf("stub: unsupported statement %q", query)
}

// QueryContext serves the full-table snapshot read in name order.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	query = strings.TrimSpace(query)
	c.Statements = append(c.Statements, query)
	if !hasPrefixFold(query, "SELECT name, kind, payload, updated_at FROM snapshots") {
		return nil, fmt.Errorf("stub: unsupported query %q", query)
	}
	names := make([]string, 0, len(c.Rows))
	for name := range c.Rows {
		names = append(names, name)
	}
	sort.Strings(names)
	out := &stubRows{err: c.RowsErr}
	for _, name := range names {
		r := c.Rows[name]
		out.rows = append(out.rows, []driver.Value{r.Name, r.Kind, r.Payload, r.UpdatedAt})
	}
	return out, nil
}

func rowFromArgs(args []driver.NamedValue) (Row, error) {
	if len(args) != 4 {
		return Row{}, fmt.Errorf("stub: upsert wants 4 args, got %d", len(args))
	}
	var row Row
	var ok [4]bool
	row.Name, ok[0] = args[0].Value.(string)
	row.Kind, ok[1] = args[1].Value.(string)
	row.Payload, ok[2] = args[2].Value.([]byte)
	row.UpdatedAt, ok[3] = args[3].Value.(time.Time)
	for i, good := range ok {
		if !good {
			return Row{}, fmt.Errorf("stub: upsert arg %d has type %T", i+1, args[i].Value)
		}
	}
	row.Payload = append([]byte(nil), row.Payload...)
	return row, nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

type stubTx struct{ conn *StubConn }

func (t stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("stub: commit refused")
	}
	return nil
}

func (t stubTx) Rollback() error { return nil }

type stubRows struct {
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return []string{"name", "kind", "payload", "updated_at"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
