package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-i2p/sloris/lib/core"
	apperrors "github.com/go-i2p/sloris/lib/errors"
	"github.com/go-i2p/sloris/lib/pool"
	"github.com/go-i2p/sloris/version"
	"github.com/spf13/pflag"
)

// isolate points HOME at a fresh directory and clears SLORIS_* variables
// so a developer's own configuration cannot leak into a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{
		"SLORIS_TARGET", "SLORIS_PORT", "SLORIS_TIMEOUT",
		"SLORIS_MAX", "SLORIS_TICK_INTERVAL", "SLORIS_METRICS_LISTEN",
	} {
		t.Setenv(name, "")
	}
}

func executeArgs(t *testing.T, ctx context.Context, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecute_UsageErrors(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantStderr []string
	}{
		{
			name:       "missing target",
			args:       nil,
			wantStderr: []string{"missing target", usageLine},
		},
		{
			name:       "second positional",
			args:       []string{"a.example", "b.example"},
			wantStderr: []string{"unexpected nameless argument", `"b.example"`, usageLine},
		},
		{
			name:       "positional after host flag",
			args:       []string{"-h", "a.example", "b.example"},
			wantStderr: []string{"unexpected nameless argument", usageLine},
		},
		{
			name:       "host flag after positional",
			args:       []string{"a.example", "-h", "b.example"},
			wantStderr: []string{"unexpected nameless argument", `"a.example"`, usageLine},
		},
		{
			name:       "unknown flag",
			args:       []string{"--bogus", "a.example"},
			wantStderr: []string{"unknown flag", usageLine},
		},
		{
			name:       "invalid max",
			args:       []string{"-m", "lots", "a.example"},
			wantStderr: []string{"invalid arguments", usageLine},
		},
		{
			name:       "port out of range",
			args:       []string{"-p", "70000", "a.example"},
			wantStderr: []string{"invalid arguments"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			code, _, stderr := executeArgs(t, context.Background(), tt.args...)
			if code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			for _, want := range tt.wantStderr {
				if !strings.Contains(stderr, want) {
					t.Errorf("stderr should contain %q, got:\n%s", want, stderr)
				}
			}
		})
	}
}

func TestExecute_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero port", []string{"-p", "0", "a.example"}, "target.port"},
		{"zero timeout", []string{"-t", "0", "a.example"}, "pool.timeout"},
		{"zero max", []string{"-m", "0", "a.example"}, "pool.max"},
		{"bad ui mode", []string{"--ui", "fancy", "a.example"}, "ui.mode"},
		{"bad metrics address", []string{"--metrics-listen", "nocolon", "a.example"}, "metrics.listen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			code, _, stderr := executeArgs(t, context.Background(), tt.args...)
			if code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr should mention %q, got:\n%s", tt.want, stderr)
			}
			if strings.Contains(stderr, usageLine) {
				t.Error("configuration errors should not print the usage line")
			}
		})
	}
}

func TestExecute_Help(t *testing.T) {
	isolate(t)

	code, stdout, stderr := executeArgs(t, context.Background(), "--help")
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout, "sloris [flags] TARGET") {
		t.Errorf("help should show usage, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "--host") {
		t.Error("help should list the host flag")
	}
	if stderr != "" {
		t.Errorf("help should not write to stderr, got %q", stderr)
	}
}

func TestExecute_Version(t *testing.T) {
	isolate(t)

	code, stdout, _ := executeArgs(t, context.Background(), "--version")
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout, version.Full()) {
		t.Errorf("version output should contain %q, got %q", version.Full(), stdout)
	}
}

func TestExecute_ConfigInit(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "sloris.toml")

	code, stdout, stderr := executeArgs(t, context.Background(), "config", "init", path)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
	}
	if !strings.Contains(stdout, path) {
		t.Errorf("stdout should name the written file, got %q", stdout)
	}

	cfg, err := core.LoadConfig(path)
	if err != nil {
		t.Fatalf("written file should load: %v", err)
	}
	if cfg.Target.Port != core.DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Target.Port, core.DefaultPort)
	}
	if cfg.Pool.Max.IsBounded() {
		t.Error("default max should be infinite")
	}

	// A second init refuses to overwrite without --force
	code, _, stderr = executeArgs(t, context.Background(), "config", "init", path)
	if code != 1 {
		t.Errorf("second init exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "already exists") {
		t.Errorf("stderr should explain the refusal, got %q", stderr)
	}

	code, _, stderr = executeArgs(t, context.Background(), "config", "init", "--force", path)
	if code != 0 {
		t.Errorf("init --force exit code = %d, want 0 (stderr: %s)", code, stderr)
	}
}

func TestExecute_ConfigInitDefaultPath(t *testing.T) {
	isolate(t)

	code, _, stderr := executeArgs(t, context.Background(), "config", "init")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
	}
	if _, err := os.Stat(defaultConfigPath()); err != nil {
		t.Errorf("default config file should exist: %v", err)
	}
}

func parseFlags(t *testing.T, args ...string) (*pflag.FlagSet, *options) {
	t.Helper()
	opts := newOptions()
	flags := pflag.NewFlagSet("sloris", pflag.ContinueOnError)
	bindFlags(flags, opts)
	if err := flags.Parse(args); err != nil {
		t.Fatalf("Parse(%v) failed: %v", args, err)
	}
	return flags, opts
}

func TestBuildConfig_Flags(t *testing.T) {
	isolate(t)

	flags, opts := parseFlags(t, "-p", "8080", "-t", "10", "-m", "500", "--interval", "50ms", "--ui", "plain", "10.0.0.1")
	cfg, err := buildConfig(flags, opts, flags.Args())
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}

	if cfg.Target.Host != "10.0.0.1" {
		t.Errorf("Host = %q, want 10.0.0.1", cfg.Target.Host)
	}
	if cfg.Target.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Target.Port)
	}
	if cfg.Pool.Timeout != 10 {
		t.Errorf("Timeout = %d, want 10", cfg.Pool.Timeout)
	}
	if n, ok := cfg.Pool.Max.Max(); !ok || n != 500 {
		t.Errorf("Max = %s, want 500", cfg.Pool.Max)
	}
	if time.Duration(cfg.Pool.TickInterval) != 50*time.Millisecond {
		t.Errorf("TickInterval = %s, want 50ms", cfg.Pool.TickInterval)
	}
	if cfg.UI.Mode != core.UIPlain {
		t.Errorf("UI.Mode = %q, want plain", cfg.UI.Mode)
	}
}

func TestBuildConfig_HostFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-h", "a.example"}, "a.example"},
		{"long", []string{"--host", "b.example"}, "b.example"},
		{"target alias", []string{"--target", "c.example"}, "c.example"},
		{"positional", []string{"d.example"}, "d.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			flags, opts := parseFlags(t, tt.args...)
			cfg, err := buildConfig(flags, opts, flags.Args())
			if err != nil {
				t.Fatalf("buildConfig failed: %v", err)
			}
			if cfg.Target.Host != tt.want {
				t.Errorf("Host = %q, want %q", cfg.Target.Host, tt.want)
			}
		})
	}
}

func TestBuildConfig_Precedence(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "sloris.toml")
	content := `
[target]
host = "file.example"
port = 8081

[pool]
timeout = 10
max = "5"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("SLORIS_TIMEOUT", "20")
	t.Setenv("SLORIS_TARGET", "env.example")

	flags, opts := parseFlags(t, "--config", path, "-m", "7")
	cfg, err := buildConfig(flags, opts, flags.Args())
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}

	if cfg.Target.Host != "env.example" {
		t.Errorf("Host = %q, env should override file", cfg.Target.Host)
	}
	if cfg.Target.Port != 8081 {
		t.Errorf("Port = %d, file should override default", cfg.Target.Port)
	}
	if cfg.Pool.Timeout != 20 {
		t.Errorf("Timeout = %d, env should override file", cfg.Pool.Timeout)
	}
	if n, _ := cfg.Pool.Max.Max(); n != 7 {
		t.Errorf("Max = %s, flag should override file", cfg.Pool.Max)
	}

	// Positional target beats the environment
	flags, opts = parseFlags(t, "--config", path, "cli.example")
	cfg, err = buildConfig(flags, opts, flags.Args())
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.Target.Host != "cli.example" {
		t.Errorf("Host = %q, positional should override env", cfg.Target.Host)
	}
}

func TestBuildConfig_UnsetFlagsKeepFileValues(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "sloris.toml")
	if err := os.WriteFile(path, []byte("[target]\nport = 9000\n[ui]\nmode = \"plain\"\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	flags, opts := parseFlags(t, "--config", path, "a.example")
	cfg, err := buildConfig(flags, opts, flags.Args())
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.Target.Port != 9000 {
		t.Errorf("Port = %d, flag default must not override file", cfg.Target.Port)
	}
	if cfg.UI.Mode != core.UIPlain {
		t.Errorf("UI.Mode = %q, flag default must not override file", cfg.UI.Mode)
	}
}

func TestUseTUI(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		mode string
		want bool
	}{
		{core.UITUI, true},
		{core.UIPlain, false},
		{core.UIAuto, false},
	}
	for _, tt := range tests {
		if got := useTUI(tt.mode, &buf); got != tt.want {
			t.Errorf("useTUI(%q, buffer) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("stderr", func(t *testing.T) {
		var stderr bytes.Buffer
		logger, closeFn, err := newLogger("", false, false, &stderr)
		if err != nil {
			t.Fatalf("newLogger failed: %v", err)
		}
		defer closeFn()
		logger.Info("hello")
		logger.Debug("hidden")
		if !strings.Contains(stderr.String(), "hello") {
			t.Errorf("info should reach stderr, got %q", stderr.String())
		}
		if strings.Contains(stderr.String(), "hidden") {
			t.Error("debug should be filtered without verbose")
		}
	})

	t.Run("verbose", func(t *testing.T) {
		var stderr bytes.Buffer
		logger, closeFn, err := newLogger("", true, false, &stderr)
		if err != nil {
			t.Fatalf("newLogger failed: %v", err)
		}
		defer closeFn()
		logger.Debug("shown")
		if !strings.Contains(stderr.String(), "shown") {
			t.Error("debug should reach stderr with verbose")
		}
	})

	t.Run("interactive discards", func(t *testing.T) {
		var stderr bytes.Buffer
		logger, closeFn, err := newLogger("", false, true, &stderr)
		if err != nil {
			t.Fatalf("newLogger failed: %v", err)
		}
		defer closeFn()
		logger.Info("hello")
		if stderr.Len() != 0 {
			t.Errorf("interactive mode should not write to stderr, got %q", stderr.String())
		}
	})

	t.Run("file", func(t *testing.T) {
		var stderr bytes.Buffer
		path := filepath.Join(t.TempDir(), "sloris.log")
		logger, closeFn, err := newLogger(path, false, true, &stderr)
		if err != nil {
			t.Fatalf("newLogger failed: %v", err)
		}
		logger.Info("to file")
		closeFn()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading log file: %v", err)
		}
		if !strings.Contains(string(data), "to file") {
			t.Errorf("log file should contain the message, got %q", data)
		}
	})

	t.Run("unwritable file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "sloris.log")
		if _, _, err := newLogger(path, false, false, &bytes.Buffer{}); err == nil {
			t.Error("expected error for a log file in a missing directory")
		}
	})
}

func TestStatusLine(t *testing.T) {
	if got := statusLine(nil); got != "no statistics yet" {
		t.Errorf("statusLine(nil) = %q", got)
	}

	snap := &pool.Snapshot{
		Target:                 "10.0.0.1",
		Port:                   8080,
		Live:                   2,
		Dead:                   1,
		Failed:                 1,
		TimeoutSeconds:         5,
		AverageLifetimeSeconds: 5,
	}
	want := "target=10.0.0.1 port=8080 live=2 dead=1 failed=1 timeout=5s average_lifetime=5s"
	if got := statusLine(snap); got != want {
		t.Errorf("statusLine = %q, want %q", got, want)
	}
}

// syncBuffer is a bytes.Buffer safe for one writer and a later reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRenderPlain_PrintsOnChange(t *testing.T) {
	var mu sync.Mutex
	live := 0
	source := func() *pool.Snapshot {
		mu.Lock()
		defer mu.Unlock()
		live++
		if live > 3 {
			live = 3
		}
		return &pool.Snapshot{Target: "h", Port: 80, Live: live}
	}

	var out syncBuffer
	done := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	renderPlain(ctx, &out, source, done, 5*time.Millisecond)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 distinct lines, got %d:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[2], "live=3") {
		t.Errorf("last line should report live=3, got %q", lines[2])
	}
}

func TestRenderPlain_StopsOnDone(t *testing.T) {
	done := make(chan struct{})
	close(done)

	finished := make(chan struct{})
	go func() {
		renderPlain(context.Background(), &syncBuffer{}, func() *pool.Snapshot { return nil }, done, time.Hour)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("renderPlain did not return after done was closed")
	}
}

// holdListener accepts connections and keeps them open until the test ends.
func holdListener(t *testing.T) uint16 {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})

	return uint16(ln.Addr().(*net.TCPAddr).Port)
}

func TestExecute_PlainRunAgainstLoopback(t *testing.T) {
	isolate(t)
	port := holdListener(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	code, stdout, stderr := executeArgs(t, ctx,
		"--ui", "plain",
		"-p", strconv.Itoa(int(port)),
		"-m", "3",
		"--interval", "1ms",
		"--metrics-listen", "127.0.0.1:0",
		"127.0.0.1",
	)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
	}
	if !strings.Contains(stdout, "target=127.0.0.1") {
		t.Errorf("stdout should carry status lines, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "live=3") {
		t.Errorf("pool should have reached its cap of 3, got:\n%s", stdout)
	}
	if !strings.Contains(stderr, "sloris stopped") {
		t.Errorf("logs should report shutdown, got:\n%s", stderr)
	}
}

func TestBuildConfig_MaxSpellings(t *testing.T) {
	for _, spelling := range []string{"infinite", "ininite", "unbounded"} {
		t.Run(spelling, func(t *testing.T) {
			isolate(t)
			flags, opts := parseFlags(t, "-m", spelling, "a.example")
			cfg, err := buildConfig(flags, opts, flags.Args())
			if err != nil {
				t.Fatalf("buildConfig failed: %v", err)
			}
			if cfg.Pool.Max.IsBounded() {
				t.Errorf("-m %s should leave the pool unbounded, got %s", spelling, cfg.Pool.Max)
			}
		})
	}
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      []string
		wantUsage bool
	}{
		{
			name: "nil",
		},
		{
			name:      "usage",
			err:       apperrors.Usage("missing target"),
			want:      []string{"Error: missing target"},
			wantUsage: true,
		},
		{
			name: "configuration",
			err:  apperrors.Configuration("pool.timeout must be at least 1 second", nil),
			want: []string{"Error: pool.timeout must be at least 1 second"},
		},
		{
			name: "resolve",
			err:  apperrors.New(apperrors.CodeResolve, "resolving nowhere.invalid"),
			want: []string{"Error: resolving nowhere.invalid"},
		},
		{
			name: "internal",
			err:  apperrors.Wrap(apperrors.CodeInternal, "shutdown", errors.New("deadline exceeded")),
			want: []string{"Error: shutdown: deadline exceeded", "rerun with -v"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tt.err)
			out := buf.String()

			if tt.err == nil && out != "" {
				t.Errorf("nil error should print nothing, got %q", out)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output should contain %q, got %q", want, out)
				}
			}
			if got := strings.Contains(out, usageLine); got != tt.wantUsage {
				t.Errorf("usage line printed = %v, want %v", got, tt.wantUsage)
			}
			if apperrors.IsFatal(tt.err) && strings.Contains(out, "rerun with -v") {
				t.Error("startup failures should not suggest rerunning with -v")
			}
		})
	}
}
