package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/hamed0406/portcheck/internal/domain"
)

// fakeDialer answers from a per-address table and records the dial order.
type fakeDialer struct {
	mu      sync.Mutex
	results map[string]error
	dialed  []string
}

func (f *fakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialed = append(f.dialed, address)
	if err := f.results[address]; err != nil {
		return nil, err
	}
	client, server := net.Pipe()
	_ = server.Close()
	return client, nil
}

func addr(ip string, port uint16) domain.ResolvedAddress {
	return domain.ResolvedAddress{IP: net.ParseIP(ip), Port: port}
}

func refused() error {
	return &net.OpError{Op: "dial", Net: "tcp4", Err: errors.New("connect: connection refused")}
}

func TestTCPChecker_LiveListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	chk := NewTCPChecker(zaptest.NewLogger(t), time.Second)
	out := chk.Probe(context.Background(), []domain.ResolvedAddress{addr("127.0.0.1", port)})
	if !out.OK() {
		t.Fatalf("want success, got %+v", out)
	}
	if out.Address.String() != ln.Addr().String() {
		t.Fatalf("want %s, got %s", ln.Addr(), out.Address)
	}
	if len(out.Attempts) != 1 || out.Attempts[0].Elapsed <= 0 {
		t.Fatalf("attempt timing not recorded: %+v", out.Attempts)
	}
}

func TestTCPChecker_ClosedPort(t *testing.T) {
	// grab a free port, then release it so nothing listens there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	chk := NewTCPChecker(zaptest.NewLogger(t), time.Second)
	out := chk.Probe(context.Background(), []domain.ResolvedAddress{addr("127.0.0.1", port)})
	if out.OK() {
		t.Fatalf("want failure, got %+v", out)
	}
	if !strings.HasPrefix(out.Reason, "port closed or unreachable (") {
		t.Fatalf("unexpected reason %q", out.Reason)
	}
	if strings.Contains(out.Reason, "dial tcp") {
		t.Fatalf("reason should carry only the system error, got %q", out.Reason)
	}
}

func TestTCPChecker_FallsThroughToSecondAddress(t *testing.T) {
	first, second := addr("192.0.2.1", 80), addr("192.0.2.2", 80)
	d := &fakeDialer{results: map[string]error{first.String(): refused()}}
	chk := &TCPChecker{Dialer: d, Timeout: time.Second, Logger: zaptest.NewLogger(t)}

	out := chk.Probe(context.Background(), []domain.ResolvedAddress{first, second})
	if !out.OK() {
		t.Fatalf("want success via second address, got %+v", out)
	}
	if out.Address.String() != second.String() {
		t.Fatalf("want %s, got %s", second, out.Address)
	}
	if out.Reason != "" {
		t.Fatalf("success must not carry a reason, got %q", out.Reason)
	}
	if len(out.Attempts) != 2 || out.Attempts[0].Err == nil || out.Attempts[1].Err != nil {
		t.Fatalf("attempts not recorded: %+v", out.Attempts)
	}
}

func TestTCPChecker_StopsAtFirstSuccess(t *testing.T) {
	a, b, c := addr("192.0.2.1", 22), addr("192.0.2.2", 22), addr("192.0.2.3", 22)
	d := &fakeDialer{results: map[string]error{}}
	chk := &TCPChecker{Dialer: d, Timeout: time.Second, Logger: zaptest.NewLogger(t)}

	out := chk.Probe(context.Background(), []domain.ResolvedAddress{a, b, c})
	if !out.OK() || out.Address.String() != a.String() {
		t.Fatalf("want success on first address, got %+v", out)
	}
	if diff := cmp.Diff([]string{a.String()}, d.dialed); diff != "" {
		t.Fatalf("dial order mismatch (-want +got):\n%s", diff)
	}
}

func TestTCPChecker_AllFailReportsLastError(t *testing.T) {
	a, b := addr("192.0.2.1", 22), addr("2001:db8::1", 22)
	d := &fakeDialer{results: map[string]error{
		a.String(): &net.OpError{Op: "dial", Err: errors.New("connect: network is unreachable")},
		b.String(): &net.OpError{Op: "dial", Err: errors.New("i/o timeout")},
	}}
	chk := &TCPChecker{Dialer: d, Timeout: time.Second, Logger: zaptest.NewLogger(t)}

	out := chk.Probe(context.Background(), []domain.ResolvedAddress{a, b})
	if out.OK() {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.Reason != "port closed or unreachable (i/o timeout)" {
		t.Fatalf("unexpected reason %q", out.Reason)
	}
	if diff := cmp.Diff([]string{a.String(), b.String()}, d.dialed); diff != "" {
		t.Fatalf("dial order mismatch (-want +got):\n%s", diff)
	}

	err := AsError(out)
	var ce *ConnectError
	if !errors.As(err, &ce) {
		t.Fatalf("want *ConnectError, got %T", err)
	}
	if n := len(multierr.Errors(ce.Err)); n != 2 {
		t.Fatalf("want 2 combined attempt errors, got %d", n)
	}
}

func TestTCPChecker_EmptyAddressList(t *testing.T) {
	chk := NewTCPChecker(nil, time.Second)
	out := chk.Probe(context.Background(), nil)
	if out.OK() || out.Reason != "All connection attempts failed" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestTCPChecker_TimeoutIsPerAttempt(t *testing.T) {
	var deadlines []time.Duration
	d := dialerFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
		dl, ok := ctx.Deadline()
		if !ok {
			t.Fatalf("attempt without deadline")
		}
		deadlines = append(deadlines, time.Until(dl))
		return nil, &net.OpError{Op: "dial", Err: errors.New("i/o timeout")}
	})
	chk := &TCPChecker{Dialer: d, Timeout: 2 * time.Second, Logger: zaptest.NewLogger(t)}
	chk.Probe(context.Background(), []domain.ResolvedAddress{addr("192.0.2.1", 1), addr("192.0.2.2", 1)})

	if len(deadlines) != 2 {
		t.Fatalf("want 2 attempts, got %d", len(deadlines))
	}
	for i, left := range deadlines {
		if left <= time.Second || left > 2*time.Second {
			t.Fatalf("attempt %d: deadline %v not a fresh 2s budget", i, left)
		}
	}
}

func TestTCPChecker_CanceledContextStopsFallthrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, b := addr("192.0.2.1", 22), addr("192.0.2.2", 22)
	d := &fakeDialer{results: map[string]error{
		a.String(): &net.OpError{Op: "dial", Err: context.Canceled},
	}}
	chk := &TCPChecker{Dialer: d, Timeout: time.Second, Logger: zaptest.NewLogger(t)}
	out := chk.Probe(ctx, []domain.ResolvedAddress{a, b})
	if out.OK() {
		t.Fatalf("want failure, got %+v", out)
	}
	if len(d.dialed) != 1 {
		t.Fatalf("want a single attempt after cancellation, got %v", d.dialed)
	}
}

type dialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (f dialerFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}
