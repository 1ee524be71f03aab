package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-i2p/sloris/lib/core"
	apperrors "github.com/go-i2p/sloris/lib/errors"
	"github.com/go-i2p/sloris/lib/metrics"
	"github.com/go-i2p/sloris/lib/transport"
	"github.com/go-i2p/sloris/lib/tui"
	"github.com/go-i2p/sloris/lib/web"
	"github.com/go-i2p/sloris/version"
	"github.com/mattn/go-isatty"
)

const (
	resolveTimeout  = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

// run resolves the target, starts the engine and blocks until the user
// quits or a signal arrives.
func run(ctx context.Context, cfg *core.Config, verbose bool, stdout, stderr io.Writer) error {
	interactive := useTUI(cfg.UI.Mode, stdout)

	logger, closeLog, err := newLogger(cfg.UI.LogFile, verbose, interactive, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	// Create a context that is cancelled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	resolveCtx, cancelResolve := context.WithTimeout(ctx, resolveTimeout)
	ip, err := cfg.ResolveTarget(resolveCtx)
	cancelResolve()
	if err != nil {
		return err
	}
	logger.Debug("resolved target", "host", cfg.Target.Host, "ip", ip)

	dialer := transport.NewDialer(cfg.Target.Host, cfg.Target.Port)
	dialer.IP = ip

	runner, err := core.NewRunner(cfg, core.DialerFactory(dialer), logger)
	if err != nil {
		return err
	}
	metrics.RecordStartTime()

	if cfg.Metrics.Listen != "" {
		server, err := web.New(web.Config{
			ListenAddr: cfg.Metrics.Listen,
			Source:     runner,
			Version:    version.Full(),
			Logger:     logger,
		})
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "creating status server", err)
		}
		if err := server.Start(); err != nil {
			return apperrors.Configuration(fmt.Sprintf("listening on %s", cfg.Metrics.Listen), err)
		}
		logger.Info("status server listening", "addr", server.Addr().String())

		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := server.Stop(stopCtx); err != nil {
				logger.Error("stopping status server", "error", err)
			}
		}()
	}

	if err := runner.Start(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "starting engine", err)
	}
	logger.Info("sloris started", "target", cfg.Target.Host, "ip", ip, "version", version.Full())

	if interactive {
		if err := runTUI(ctx, runner, stdout); err != nil {
			logger.Error("tui failed", "error", err)
		}
	} else {
		renderPlain(ctx, stdout, runner.Snapshot, runner.Done(), plainInterval)
	}

	// Graceful shutdown
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := runner.Stop(shutdownCtx); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "shutdown", err)
	}

	if !interactive {
		fmt.Fprintln(stdout, statusLine(runner.Snapshot()))
	}
	logger.Info("sloris stopped")
	return nil
}

// runTUI shows the interactive dashboard until the user quits, ctx is
// cancelled or the engine stops.
func runTUI(ctx context.Context, runner *core.Runner, out io.Writer) error {
	model, err := tui.New(tui.Config{
		Source:  runner.Snapshot,
		Version: version.Full(),
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(out))

	go func() {
		select {
		case <-runner.Done():
			p.Quit()
		case <-ctx.Done():
		}
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// useTUI reports whether the dashboard should be shown for mode.
// In auto mode the dashboard is used only when out is a terminal.
func useTUI(mode string, out io.Writer) bool {
	switch mode {
	case core.UITUI:
		return true
	case core.UIPlain:
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newLogger builds the process logger. Logs go to path when set; otherwise
// to stderr, or nowhere while the dashboard owns the terminal.
func newLogger(path string, verbose, interactive bool, stderr io.Writer) (*slog.Logger, func(), error) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	out := stderr
	closeFn := func() {}
	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, apperrors.Configuration("opening log file", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	case interactive:
		out = io.Discard
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: logLevel,
	}))
	return logger, closeFn, nil
}
