// Package probe attempts TCP connections against resolved addresses.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/multierr"

	"github.com/hamed0406/portcheck/internal/domain"
)

const (
	reasonAllFailed   = "All connection attempts failed"
	reasonUnreachable = "port closed or unreachable"
)

// Dialer is satisfied by *net.Dialer.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober checks a list of candidate addresses and reports the first that accepts.
type Prober interface {
	Probe(ctx context.Context, addrs []domain.ResolvedAddress) domain.CheckOutcome
}

var _ Prober = (*TCPChecker)(nil)

// ConnectError is returned when no candidate address accepted a connection.
// Err combines the error of every attempt, in order.
type ConnectError struct {
	Reason string
	Err    error
}

func (e *ConnectError) Error() string { return e.Reason }

func (e *ConnectError) Unwrap() error { return e.Err }

// AsError converts a failed outcome into a *ConnectError; it returns nil on success.
func AsError(o domain.CheckOutcome) error {
	if o.OK() {
		return nil
	}
	var combined error
	for _, a := range o.Attempts {
		combined = multierr.Append(combined, fmt.Errorf("%s: %w", a.Address, a.Err))
	}
	return &ConnectError{Reason: o.Reason, Err: combined}
}

// describe strips the "dial tcp4 <addr>:" prefix so the system error stands alone.
func describe(err error) string {
	var op *net.OpError
	if errors.As(err, &op) && op.Err != nil {
		return op.Err.Error()
	}
	return err.Error()
}
