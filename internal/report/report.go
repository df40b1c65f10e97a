// Package report prints check progress and results and picks the exit code.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/hamed0406/portcheck/internal/domain"
)

const (
	ExitOK      = 0
	ExitFailure = 1
)

type Reporter struct {
	Stdout io.Writer
	Stderr io.Writer

	okMark   *color.Color
	failMark *color.Color
}

// New colors the ✓/✗ markers only when stdout is the terminal.
func New(stdout, stderr io.Writer) *Reporter {
	r := &Reporter{
		Stdout:   stdout,
		Stderr:   stderr,
		okMark:   color.New(color.FgGreen, color.Bold),
		failMark: color.New(color.FgRed, color.Bold),
	}
	if f, ok := stdout.(*os.File); !ok || f != os.Stdout || color.NoColor {
		r.okMark.DisableColor()
		r.failMark.DisableColor()
	}
	return r
}

// Checking prints the status line shown before any connection attempt.
func (r *Reporter) Checking(req domain.CheckRequest, primary domain.ResolvedAddress) {
	fmt.Fprintf(r.Stdout, "Checking %s (%s) (timeout: %ds)\n", req.Target(), primary.Host(), req.TimeoutSeconds())
}

// Result prints the outcome line and returns the process exit code.
func (r *Reporter) Result(req domain.CheckRequest, primary domain.ResolvedAddress, out domain.CheckOutcome) int {
	if out.OK() {
		fmt.Fprintf(r.Stdout, "%s Connection to %s (%s) succeeded - port is open\n",
			r.okMark.Sprint("✓"), req.Target(), out.Address.Host())
		return ExitOK
	}
	fmt.Fprintf(r.Stdout, "%s Connection to %s (%s) failed - %s\n",
		r.failMark.Sprint("✗"), req.Target(), primary.Host(), out.Reason)
	return ExitFailure
}

// ResolutionFailed reports a name resolution failure on stderr.
func (r *Reporter) ResolutionFailed(err error) int {
	fmt.Fprintf(r.Stderr, "%s %v\n", r.failMark.Sprint("✗"), err)
	return ExitFailure
}

// UsageFailed prints the error, then the usage text, on stderr.
func (r *Reporter) UsageFailed(err error, usage string) int {
	if err != nil {
		fmt.Fprintf(r.Stderr, "Error: %v\n", err)
	}
	fmt.Fprint(r.Stderr, usage)
	return ExitFailure
}
