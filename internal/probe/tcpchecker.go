package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/portcheck/internal/domain"
)

// TCPChecker is the Prober that dials plain TCP connections.
type TCPChecker struct {
	Dialer  Dialer
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewTCPChecker returns a checker using a zero net.Dialer; a nil logger discards logs.
func NewTCPChecker(logger *zap.Logger, timeout time.Duration) *TCPChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TCPChecker{
		Dialer:  &net.Dialer{},
		Timeout: timeout,
		Logger:  logger,
	}
}

// Probe dials each address in order, one at a time, giving every attempt its
// own Timeout. The first accepted connection is closed right away and its
// address returned. A failure falls through to the next address; the last
// failure becomes the outcome's reason.
func (c *TCPChecker) Probe(ctx context.Context, addrs []domain.ResolvedAddress) domain.CheckOutcome {
	if len(addrs) == 0 {
		return domain.Failed(reasonAllFailed, nil)
	}

	attempts := make([]domain.Attempt, 0, len(addrs))
	for i, addr := range addrs {
		c.Logger.Debug("probe_attempt",
			zap.Stringer("addr", addr),
			zap.Int("index", i),
			zap.Duration("timeout", c.Timeout),
		)

		start := time.Now()
		at := domain.Attempt{Address: addr, Err: c.dialOnce(ctx, addr)}
		at.Elapsed = time.Since(start)
		attempts = append(attempts, at)

		if at.Err == nil {
			c.Logger.Debug("probe_succeeded",
				zap.Stringer("addr", at.Address),
				zap.Duration("elapsed", at.Elapsed),
			)
			return domain.Succeeded(addr, attempts)
		}

		c.Logger.Debug("probe_attempt_failed",
			zap.Stringer("addr", at.Address),
			zap.Duration("elapsed", at.Elapsed),
			zap.Error(at.Err),
		)

		// interrupted: no point trying the rest
		if i == len(addrs)-1 || ctx.Err() != nil {
			return domain.Failed(fmt.Sprintf("%s (%s)", reasonUnreachable, describe(at.Err)), attempts)
		}
	}
	return domain.Failed(reasonAllFailed, attempts)
}

func (c *TCPChecker) dialOnce(ctx context.Context, addr domain.ResolvedAddress) error {
	actx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	conn, err := c.Dialer.DialContext(actx, addr.Network(), addr.String())
	if err != nil {
		return err
	}
	_ = conn.Close()
	return nil
}
