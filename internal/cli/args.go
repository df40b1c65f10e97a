package cli

import (
	"fmt"
	"strconv"

	"github.com/hamed0406/portcheck/internal/domain"
)

// UsageError is a malformed invocation. Msg may be empty when only the usage
// text should be shown.
type UsageError struct {
	Msg string
	Err error
}

func (e *UsageError) Error() string {
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *UsageError) Unwrap() error { return e.Err }

const usageText = `Usage: %[1]s <hostname> <port> [--timeout <seconds>]

Arguments:
  <hostname>  The hostname or IP address to check
  <port>      The TCP port number to test

Options:
  --timeout <seconds>  Connection timeout in seconds (default: %[2]d)
  --resolver <server>  Query this DNS server instead of the system resolver
  -v, --verbose        Log every connection attempt to stderr
  -h, --help           Show this help

Examples:
  %[1]s google.com 80
  %[1]s google.com 443 --timeout 10
  %[1]s localhost 22 --timeout 1
  %[1]s 192.168.1.1 3389 --timeout 15
`

// missingTimeoutValue reports whether --timeout is the last argument, i.e.
// given without the value it requires.
func missingTimeoutValue(args []string) bool {
	return len(args) > 0 && args[len(args)-1] == "--timeout"
}

func usage(program string, defaultTimeout int64) string {
	return fmt.Sprintf(usageText, program, defaultTimeout)
}

// parseRequest turns the positional arguments and the raw --timeout value
// into a CheckRequest. timeoutSet reports whether --timeout was given at all.
func parseRequest(args []string, timeout string, timeoutSet bool, defaultTimeout int64) (domain.CheckRequest, error) {
	switch {
	case len(args) == 0:
		return domain.CheckRequest{}, &UsageError{}
	case len(args) != 2:
		return domain.CheckRequest{}, &UsageError{Msg: "Invalid arguments"}
	}
	host, portArg := args[0], args[1]

	port, err := strconv.ParseUint(portArg, 10, 16)
	if err != nil || port == 0 {
		return domain.CheckRequest{}, &UsageError{
			Msg: fmt.Sprintf("Invalid port number '%s'", portArg),
			Err: domain.ErrInvalidPort,
		}
	}

	secs := defaultTimeout
	if timeoutSet {
		secs, err = strconv.ParseInt(timeout, 10, 64)
		if err != nil || secs <= 0 {
			return domain.CheckRequest{}, &UsageError{
				Msg: "Timeout must be a positive number",
				Err: domain.ErrInvalidTimeout,
			}
		}
		if secs > domain.MaxTimeoutSeconds {
			return domain.CheckRequest{}, &UsageError{
				Msg: fmt.Sprintf("Timeout must be at most %d seconds", domain.MaxTimeoutSeconds),
				Err: domain.ErrInvalidTimeout,
			}
		}
	}

	req, err := domain.NewCheckRequest(host, uint16(port), secs)
	if err != nil {
		return domain.CheckRequest{}, &UsageError{Msg: err.Error(), Err: err}
	}
	return req, nil
}
