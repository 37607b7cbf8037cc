package querycache

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNotConnected is returned by Query when the session has not connected.
	ErrNotConnected = errors.New("querycache: not connected to database")

	// ErrClosed is returned when a session is used after Close. It wraps
	// ErrNotConnected.
	ErrClosed = errors.Wrap(ErrNotConnected, "session closed")
)

// ConnectionError reports a failed connection attempt. The session stays
// disconnected and nothing retries.
type ConnectionError struct {
	DSN string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("querycache: failed to connect to %s: %v", e.DSN, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
