// Package cli wires argument parsing, resolution, probing and reporting into
// a single command invocation.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/portcheck/internal/config"
	"github.com/hamed0406/portcheck/internal/domain"
	"github.com/hamed0406/portcheck/internal/logging"
	"github.com/hamed0406/portcheck/internal/probe"
	"github.com/hamed0406/portcheck/internal/report"
	"github.com/hamed0406/portcheck/internal/resolve"
)

// App holds the program's I/O and optional overrides. Nil overrides fall back
// to the real system resolver, dialer, environment config and logger.
type App struct {
	Program string
	Stdout  io.Writer
	Stderr  io.Writer

	Config   *config.Config
	Resolver resolve.Resolver
	Dialer   probe.Dialer
	Logger   *zap.Logger
}

type flags struct {
	timeout  string
	resolver string
	verbose  bool
}

// Run executes one check for args (without the program name) and returns the
// process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	rep := report.New(a.Stdout, a.Stderr)

	cfg := a.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(); err != nil {
			return rep.UsageFailed(err, "")
		}
	}

	var f flags
	var helpShown bool
	code := report.ExitFailure
	cmd := &cobra.Command{
		Use:           a.Program + " <hostname> <port>",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseRequest(args, f.timeout, cmd.Flags().Changed("timeout"), cfg.Timeout)
			if err != nil {
				return err
			}
			code = a.check(cmd.Context(), rep, cfg, f, req)
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(a.Stderr)
	cmd.SetErr(a.Stderr)
	cmd.SetHelpFunc(func(*cobra.Command, []string) {
		helpShown = true
		_, _ = io.WriteString(a.Stderr, usage(a.Program, cfg.Timeout))
	})
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		if missingTimeoutValue(args) {
			return &UsageError{Msg: "--timeout requires a value", Err: err}
		}
		return &UsageError{Msg: err.Error(), Err: err}
	})

	fl := cmd.Flags()
	fl.StringVar(&f.timeout, "timeout", "", "Connection timeout in seconds")
	fl.StringVar(&f.resolver, "resolver", cfg.Resolver, "DNS server to query instead of the system resolver")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Log every connection attempt")

	if err := cmd.ExecuteContext(ctx); err != nil {
		var ue *UsageError
		if errors.As(err, &ue) && ue.Msg == "" && ue.Err == nil {
			return rep.UsageFailed(nil, usage(a.Program, cfg.Timeout))
		}
		return rep.UsageFailed(err, usage(a.Program, cfg.Timeout))
	}
	if helpShown {
		return report.ExitOK
	}
	return code
}

func (a *App) check(ctx context.Context, rep *report.Reporter, cfg *config.Config, f flags, req domain.CheckRequest) int {
	logger, err := a.logger(cfg, f.verbose)
	if err != nil {
		return rep.UsageFailed(err, "")
	}
	defer func() { _ = logger.Sync() }()

	resolver := a.resolver(cfg, f.resolver)

	logger.Debug("resolve_start",
		zap.String("host", req.Hostname),
		zap.Uint16("port", req.Port),
	)
	rctx, cancel := context.WithTimeout(ctx, cfg.ResolveDeadline())
	addrs, err := resolver.Resolve(rctx, req.Hostname, req.Port)
	cancel()
	if err != nil {
		logger.Info("resolve_failed",
			zap.String("host", req.Hostname),
			zap.String("class", resolve.Classify(err)),
			zap.Error(err),
		)
		return rep.ResolutionFailed(err)
	}
	logger.Debug("resolved",
		zap.String("host", req.Hostname),
		zap.Int("count", len(addrs)),
		zap.Stringer("primary", addrs[0]),
	)

	primary := addrs[0]
	rep.Checking(req, primary)

	out := a.prober(logger, req).Probe(ctx, addrs)
	if err := probe.AsError(out); err != nil {
		logger.Info("probe_failed", zap.String("target", req.Target()), zap.Error(err))
	}
	return rep.Result(req, primary, out)
}

func (a *App) logger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	if a.Logger != nil {
		return a.Logger, nil
	}
	lvl, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zap.DebugLevel
	}
	return logging.NewLogger(logging.Options{Level: lvl, LogDir: cfg.LogDir, Stderr: a.Stderr})
}

func (a *App) prober(logger *zap.Logger, req domain.CheckRequest) probe.Prober {
	chk := probe.NewTCPChecker(logger, req.Timeout)
	if a.Dialer != nil {
		chk.Dialer = a.Dialer
	}
	return chk
}

func (a *App) resolver(cfg *config.Config, server string) resolve.Resolver {
	switch {
	case a.Resolver != nil:
		return a.Resolver
	case server != "":
		return resolve.NewDNS(server, cfg.ResolveDeadline())
	default:
		return resolve.NewSystem()
	}
}
