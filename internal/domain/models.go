package domain

import (
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"time"
)

// MaxTimeoutSeconds is the largest timeout a time.Duration can hold.
const MaxTimeoutSeconds = int64(math.MaxInt64 / int64(time.Second))

var (
	ErrInvalidPort    = errors.New("invalid port number")
	ErrInvalidTimeout = errors.New("timeout must be a positive number")
)

// CheckRequest is one validated invocation: which host and port to probe and
// how long a single connect attempt may take.
type CheckRequest struct {
	Hostname string
	Port     uint16
	Timeout  time.Duration
}

// NewCheckRequest validates port and timeout. The timeout is a whole number of seconds.
func NewCheckRequest(hostname string, port uint16, timeoutSeconds int64) (CheckRequest, error) {
	if port == 0 {
		return CheckRequest{}, fmt.Errorf("%w: 0", ErrInvalidPort)
	}
	if timeoutSeconds <= 0 {
		return CheckRequest{}, fmt.Errorf("%w: %d", ErrInvalidTimeout, timeoutSeconds)
	}
	if timeoutSeconds > MaxTimeoutSeconds {
		return CheckRequest{}, fmt.Errorf("%w: %d exceeds %d", ErrInvalidTimeout, timeoutSeconds, MaxTimeoutSeconds)
	}
	return CheckRequest{
		Hostname: hostname,
		Port:     port,
		Timeout:  time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// Target is the host:port form shown to users, without brackets for IPv6 literals.
func (r CheckRequest) Target() string {
	return r.Hostname + ":" + strconv.Itoa(int(r.Port))
}

// TimeoutSeconds returns the per-attempt timeout in whole seconds.
func (r CheckRequest) TimeoutSeconds() int64 {
	return int64(r.Timeout / time.Second)
}

type ResolvedAddress struct {
	IP   net.IP
	Zone string // IPv6 scope, e.g. "eth0" for link-local addresses
	Port uint16
}

// Host is the IP with its zone, e.g. "fe80::1%eth0".
func (a ResolvedAddress) Host() string {
	if a.Zone == "" {
		return a.IP.String()
	}
	return a.IP.String() + "%" + a.Zone
}

// String returns the dialable form, e.g. "127.0.0.1:22", "[::1]:22" or "[fe80::1%eth0]:22".
func (a ResolvedAddress) String() string {
	return net.JoinHostPort(a.Host(), strconv.Itoa(int(a.Port)))
}

// Network picks the dial network matching the address family.
func (a ResolvedAddress) Network() string {
	if a.IP.To4() != nil {
		return "tcp4"
	}
	return "tcp6"
}

// Attempt records a single connect attempt.
type Attempt struct {
	Address ResolvedAddress
	Err     error
	Elapsed time.Duration
}

// CheckOutcome holds either the address that accepted the connection or the
// reason every attempt failed. Exactly one of Address and Reason is set.
type CheckOutcome struct {
	Address  *ResolvedAddress
	Reason   string
	Attempts []Attempt
}

func Succeeded(addr ResolvedAddress, attempts []Attempt) CheckOutcome {
	return CheckOutcome{Address: &addr, Attempts: attempts}
}

func Failed(reason string, attempts []Attempt) CheckOutcome {
	return CheckOutcome{Reason: reason, Attempts: attempts}
}

func (o CheckOutcome) OK() bool {
	return o.Address != nil
}
