package main

import (
	"github.com/go-i2p/sloris/lib/core"
	apperrors "github.com/go-i2p/sloris/lib/errors"
	"github.com/go-i2p/sloris/lib/pool"
	"github.com/spf13/pflag"
)

// options holds the raw flag values. Only flags the user actually set are
// applied on top of the loaded configuration.
type options struct {
	configPath    string
	host          string
	port          uint16
	timeout       uint32
	max           pool.Admission
	interval      core.Duration
	metricsListen string
	ui            string
	logFile       string
	verbose       bool
}

func newOptions() *options {
	return &options{
		configPath: defaultConfigPath(),
		max:        pool.Unbounded(),
	}
}

// bindFlags registers the root command flags on flags.
func bindFlags(flags *pflag.FlagSet, opts *options) {
	flags.SetNormalizeFunc(aliasTarget)

	flags.StringVar(&opts.configPath, "config", opts.configPath, "path to TOML configuration file")
	flags.StringVarP(&opts.host, "host", "h", "", "target host (alternative to TARGET)")
	flags.Uint16VarP(&opts.port, "port", "p", core.DefaultPort, "target TCP port")
	flags.Uint32VarP(&opts.timeout, "timeout", "t", core.DefaultTimeoutSeconds, "seconds of silence before a header line is dripped")
	flags.VarP(&opts.max, "max", "m", `maximum held connections, or "infinite"`)
	flags.Var(&opts.interval, "interval", "delay between engine ticks (0 runs them back-to-back)")
	flags.StringVar(&opts.metricsListen, "metrics-listen", "", "serve status and metrics on this address")
	flags.StringVar(&opts.ui, "ui", core.UIAuto, "display mode: auto, tui or plain")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
}

// aliasTarget makes --target an alias of --host.
func aliasTarget(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "target" {
		name = "host"
	}
	return pflag.NormalizedName(name)
}

// buildConfig loads the configuration file and environment, then applies
// the flags that were set and the positional target.
func buildConfig(flags *pflag.FlagSet, opts *options, args []string) (*core.Config, error) {
	cfg, err := core.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	if flags.Changed("host") {
		cfg.Target.Host = opts.host
	}
	if len(args) == 1 {
		cfg.Target.Host = args[0]
	}
	if flags.Changed("port") {
		cfg.Target.Port = opts.port
	}
	if flags.Changed("timeout") {
		cfg.Pool.Timeout = opts.timeout
	}
	if flags.Changed("max") {
		cfg.Pool.Max = opts.max
	}
	if flags.Changed("interval") {
		cfg.Pool.TickInterval = opts.interval
	}
	if flags.Changed("metrics-listen") {
		cfg.Metrics.Listen = opts.metricsListen
	}
	if flags.Changed("ui") {
		cfg.UI.Mode = opts.ui
	}
	if flags.Changed("log-file") {
		cfg.UI.LogFile = opts.logFile
	}

	if cfg.Target.Host == "" {
		return nil, apperrors.Usage("missing target")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
