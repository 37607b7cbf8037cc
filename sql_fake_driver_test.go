package querycache

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
)

// fakeDriver lets tests fail a sql store at each construction step.
type fakeDriver struct {
	execErr error
	pingErr error
}

func (d *fakeDriver) Open(string) (driver.Conn, error) {
	return &fakeConn{execErr: d.execErr, pingErr: d.pingErr}, nil
}

type fakeConn struct {
	execErr error
	pingErr error
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare not supported") }
func (c *fakeConn) Close() error                        { return nil }
func (c *fakeConn) Begin() (driver.Tx, error)           { return nil, errors.New("not impl") }

func (c *fakeConn) ExecContext(context.Context, string, []driver.NamedValue) (driver.Result, error) {
	return driver.RowsAffected(1), c.execErr
}

func (c *fakeConn) Ping(context.Context) error { return c.pingErr }

func init() {
	sql.Register("qcpreparefail", &fakeDriver{})
	sql.Register("qcexecfail", &fakeDriver{execErr: errors.New("exec boom")})
	sql.Register("qcpingfail", &fakeDriver{pingErr: errors.New("ping boom")})
}
