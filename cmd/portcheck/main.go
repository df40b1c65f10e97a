package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/hamed0406/portcheck/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	app := &cli.App{
		Program: filepath.Base(os.Args[0]),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
	code := app.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
