package resolve

import (
	"context"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/hamed0406/portcheck/internal/domain"
)

// DNS resolves by querying one nameserver directly, A records first and then
// AAAA. CNAME chains are left to the server; only address records are kept.
type DNS struct {
	Server string
	Client *dns.Client
}

// NewDNS queries server over UDP; a missing port defaults to 53.
func NewDNS(server string, timeout time.Duration) *DNS {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &DNS{
		Server: server,
		Client: &dns.Client{Net: "udp", Timeout: timeout},
	}
}

// Resolve returns the A answers followed by the AAAA answers for host.
func (d *DNS) Resolve(ctx context.Context, host string, port uint16) ([]domain.ResolvedAddress, error) {
	if addrs, ok := literal(host, port); ok {
		return addrs, nil
	}
	if invalidName(host) {
		return nil, &ResolutionError{Host: host, Err: &net.DNSError{Err: "invalid hostname", Name: host}}
	}

	var (
		out     []domain.ResolvedAddress
		lastErr error
	)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		ips, err := d.query(ctx, host, qtype)
		if err != nil {
			lastErr = err
			continue
		}
		for _, ip := range ips {
			out = append(out, domain.ResolvedAddress{IP: ip, Port: port})
		}
	}
	if len(out) == 0 {
		if lastErr != nil {
			return nil, &ResolutionError{Host: host, Err: lastErr}
		}
		return nil, &ResolutionError{Host: host, Err: ErrNoAddresses}
	}
	return out, nil
}

func (d *DNS) query(ctx context.Context, host string, qtype uint16) ([]net.IP, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)
	m.RecursionDesired = true

	resp, _, err := d.Client.ExchangeContext(ctx, m, d.Server)
	if err != nil {
		derr := &net.DNSError{Err: err.Error(), Name: host, Server: d.Server}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			derr.IsTimeout = true
		}
		return nil, derr
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, &net.DNSError{Err: "no such host", Name: host, Server: d.Server, IsNotFound: true}
	default:
		return nil, &net.DNSError{
			Err:         dns.RcodeToString[resp.Rcode],
			Name:        host,
			Server:      d.Server,
			IsTemporary: resp.Rcode == dns.RcodeServerFailure,
		}
	}

	var ips []net.IP
	for _, rr := range resp.Answer {
		switch v := rr.(type) {
		case *dns.A:
			ips = append(ips, v.A)
		case *dns.AAAA:
			ips = append(ips, v.AAAA)
		}
	}
	return ips, nil
}
