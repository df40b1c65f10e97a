// Package resolve turns a hostname into the ordered list of addresses a port
// check will try.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/hamed0406/portcheck/internal/domain"
)

var ErrNoAddresses = errors.New("no addresses found")

// Resolver yields every candidate address for host:port in resolution order.
type Resolver interface {
	Resolve(ctx context.Context, host string, port uint16) ([]domain.ResolvedAddress, error)
}

// ResolutionError names the host that failed to resolve and why.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	if errors.Is(e.Err, ErrNoAddresses) {
		return fmt.Sprintf("No addresses found for hostname '%s'", e.Host)
	}
	return fmt.Sprintf("Failed to resolve hostname '%s': %v", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

type ipLookuper interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// System resolves through the operating system resolver.
type System struct {
	Lookup ipLookuper
}

func NewSystem() *System {
	return &System{Lookup: &net.Resolver{}}
}

func (s *System) Resolve(ctx context.Context, host string, port uint16) ([]domain.ResolvedAddress, error) {
	if addrs, ok := literal(host, port); ok {
		return addrs, nil
	}
	if invalidName(host) {
		return nil, &ResolutionError{Host: host, Err: &net.DNSError{Err: "invalid hostname", Name: host}}
	}

	ips, err := s.Lookup.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, &ResolutionError{Host: host, Err: err}
	}
	out := make([]domain.ResolvedAddress, 0, len(ips))
	for _, ip := range ips {
		out = append(out, domain.ResolvedAddress{IP: ip.IP, Zone: ip.Zone, Port: port})
	}
	if len(out) == 0 {
		return nil, &ResolutionError{Host: host, Err: ErrNoAddresses}
	}
	return out, nil
}

// literal short-circuits IP literals, including bracketed and zoned IPv6
// ("[::1]", "fe80::1%eth0").
func literal(host string, port uint16) ([]domain.ResolvedAddress, bool) {
	h := strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	h, zone, _ := strings.Cut(h, "%")
	ip := net.ParseIP(h)
	if ip == nil || (zone != "" && ip.To4() != nil) {
		return nil, false
	}
	return []domain.ResolvedAddress{{IP: ip, Zone: zone, Port: port}}, true
}

func invalidName(host string) bool {
	h := strings.TrimSpace(host)
	return h == "" || strings.Contains(h, "://")
}

// Class values mirror how DNS failures are usually triaged.
const (
	ClassNXDomain    = "NXDOMAIN"
	ClassNoRecords   = "NO_A_RECORD"
	ClassServfail    = "SERVFAIL_or_TIMEOUT"
	ClassInvalidName = "INVALID_NAME"
	ClassUnknown     = "UNKNOWN"
)

// Classify buckets a resolution error for diagnostics.
func Classify(err error) string {
	if errors.Is(err, ErrNoAddresses) {
		return ClassNoRecords
	}
	var de *net.DNSError
	if errors.As(err, &de) {
		switch {
		case de.Err == "invalid hostname":
			return ClassInvalidName
		case de.IsNotFound:
			return ClassNXDomain
		case de.IsTemporary || de.Timeout():
			return ClassServfail
		}
	}
	return ClassUnknown
}
