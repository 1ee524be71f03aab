// sloris holds as many slow HTTP connections open against one target as it
// can, keeping each alive by dripping a header line whenever it has been
// silent for longer than the timeout.
//
// Usage:
//
//	sloris [flags] TARGET
//	sloris config init [path]
//
// Flags:
//
//	-h, --host string        target host (alternative to TARGET)
//	-p, --port uint16        target TCP port (default 80)
//	-t, --timeout uint32     seconds of silence before a header line is dripped (default 30)
//	-m, --max admission      maximum held connections, or "infinite" (default infinite)
//	    --interval duration  delay between engine ticks (default 0s)
//	    --config string      path to TOML configuration file (default "~/.sloris/config.toml")
//	    --metrics-listen     serve status and metrics on this address
//	    --ui string          display mode: auto, tui or plain (default "auto")
//	    --log-file string    write logs to this file
//	-v, --verbose            enable debug logging
//
// Settings are merged from defaults, the configuration file, SLORIS_*
// environment variables and flags, in that order.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/go-i2p/sloris/lib/errors"
	"github.com/go-i2p/sloris/version"
	"github.com/spf13/cobra"
)

// usageLine is printed after every usage error.
const usageLine = "Usage: sloris [--port PORT] [--timeout TIMEOUT] [--max MAX] TARGET"

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	reportError(stderr, err)
	return apperrors.ExitCode(err)
}

// reportError prints err for the user. Usage errors are followed by the
// usage line; anything that is not a startup failure points at -v.
func reportError(w io.Writer, err error) {
	switch {
	case err == nil:
	case apperrors.IsFatal(err):
		fmt.Fprintf(w, "Error: %v\n", err)
		if errors.Is(err, apperrors.ErrUsage) {
			fmt.Fprintln(w, usageLine)
		}
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
		fmt.Fprintln(w, "sloris stopped unexpectedly; rerun with -v for details")
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := newOptions()

	cmd := &cobra.Command{
		Use:   "sloris [flags] TARGET",
		Short: "Hold slow HTTP connections open against a target",
		Long: `sloris opens TCP connections to TARGET, sends a partial HTTP request on each
and keeps them open by dripping one header line whenever a connection has been
silent for longer than the timeout. Dead connections are replaced as long as
the admission limit allows.

Examples:
  sloris example.com                      # hold connections on port 80
  sloris -p 8080 -t 10 -m 500 10.0.0.1    # bounded pool, 10s drip timeout
  sloris --ui plain --metrics-listen 127.0.0.1:9102 example.com
  sloris config init                      # write ~/.sloris/config.toml`,
		Version:       version.Full(),
		Args:          targetArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd.Flags(), opts, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts.verbose, stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.Wrap(apperrors.CodeUsage, "invalid arguments", err)
	})

	bindFlags(cmd.Flags(), opts)
	// -h is the host flag, so help is registered as --help only.
	cmd.Flags().Bool("help", false, "help for sloris")
	cmd.AddCommand(newConfigCmd(stdout))

	return cmd
}

// targetArgs accepts at most one positional target, and none when the
// host was given as a flag.
func targetArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 1 || (len(args) == 1 && cmd.Flags().Changed("host")) {
		return apperrors.Usage("unexpected nameless argument %q", args[len(args)-1])
	}
	return nil
}

// defaultConfigPath returns ~/.sloris/config.toml, falling back to the
// working directory when the home directory is unknown.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".sloris", "config.toml")
}
