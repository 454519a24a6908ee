package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	harness "github.com/openrobotics/ikos-harness"
	"github.com/openrobotics/ikos-harness/exitcodes"
	"github.com/openrobotics/ikos-harness/flags"
	"github.com/openrobotics/ikos-harness/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "ikos-harness"
	app.Usage = "IKOS Static Analysis Test Harness"
	app.Description = "ikos-harness runs static analyses and collects their reports as test results"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// Use the exit code from the ExitCoder
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			// Check for typed runtime errors
			if harness.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if harness.IsTestFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			} else {
				// For other unspecified errors, default to exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	// Start telemetry
	shutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		slog.Error("failed to set up open telemetry", "error", err)
		os.Exit(exitcodes.RuntimeErr)
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start healthz and metrics servers
	svc := service.New()
	svc.Start(ctx)
	defer svc.Shutdown()

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(exitcodes.RuntimeErr)
	}
}

func run(cliCtx *cli.Context) error {
	log := newLogger(cliCtx.String(flags.LogLevel.Name), cliCtx.String(flags.LogFormat.Name))
	slog.SetDefault(log)

	cfg, err := harness.NewConfig(cliCtx, log)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return harness.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	ctx, done := context.WithCancelCause(cliCtx.Context)
	defer done(nil)

	h, err := harness.New(ctx, cfg, Version, done)
	if err != nil {
		return harness.NewRuntimeError(fmt.Errorf("failed to create harness: %w", err))
	}

	if err := h.Start(ctx); err != nil {
		return err
	}
	if cfg.RunOnce {
		return nil
	}

	// Continuous mode: run until interrupted.
	<-ctx.Done()
	if err := h.Stop(context.Background()); err != nil {
		return harness.NewRuntimeError(err)
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return h.WaitForShutdown(waitCtx)
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
