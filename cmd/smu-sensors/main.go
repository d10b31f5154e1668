// smu-sensors: live AMD Ryzen telemetry from the SMU PM table
//
// Usage:
//
//	smu-sensors                    one-shot report
//	smu-sensors --watch            refresh every --interval
//	smu-sensors --json --temps     machine-readable, temperatures only
//	smu-sensors tui                interactive dashboard
//	smu-sensors serve --port 9143  HTTP API + web dashboard
//	smu-sensors info               driver metadata and core count
//	smu-sensors dump --min 30 --max 95 --arrays 8
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hartyporpoise/smusensors/internal/config"
	"github.com/hartyporpoise/smusensors/internal/cpu"
	"github.com/hartyporpoise/smusensors/internal/smu"
)

const banner = `
  ┌─┐┌┬┐┬ ┬   ┌─┐┌─┐┌┐┌┌─┐┌─┐┬─┐┌─┐
  └─┐││││ │───└─┐├┤ │││└─┐│ │├┬┘└─┐
  └─┘┴ ┴└─┘   └─┘└─┘┘└┘└─┘└─┘┴└─└─┘

  AMD Ryzen SMU telemetry  ·  github.com/hartyporpoise/smusensors
`

// flags holds raw flag values; they are folded into a config.Config
// by resolveConfig so that file and environment settings sit beneath
// anything set on the command line.
type flags struct {
	configPath string
	sysfsPath  string
	interval   time.Duration
	cores      int
	logLevel   string
	format     string
	json       bool
	watch      bool
	temps      bool
	power      bool
	freq       bool
	host       string
	port       int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var fl flags
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "smu-sensors",
		Short:         "Read AMD Ryzen SMU power-management telemetry",
		Long:          banner,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = resolveConfig(cmd.Flags(), &fl, os.LookupEnv)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if fl.watch {
				return runWatch(cmd.Context(), cfg, cmd.OutOrStdout())
			}
			return runOnce(cfg, cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&fl.configPath, "config", envOrDefault(config.EnvConfig, ""), "YAML config file")
	pf.StringVar(&fl.sysfsPath, "sysfs-path", smu.DefaultPath, "ryzen_smu driver directory")
	pf.DurationVarP(&fl.interval, "interval", "i", time.Second, "refresh interval (min 100ms)")
	pf.IntVar(&fl.cores, "cores", 0, "override active core count (0 = detect)")
	pf.StringVar(&fl.logLevel, "log-level", "info", "log level for long-running commands")
	pf.StringVar(&fl.format, "format", config.FormatText, "output format: text, json or cbor")
	pf.BoolVar(&fl.json, "json", false, "shorthand for --format json")

	f := root.Flags()
	f.BoolVarP(&fl.watch, "watch", "w", false, "refresh continuously until interrupted")
	f.BoolVar(&fl.temps, "temps", false, "show temperatures only")
	f.BoolVar(&fl.power, "power", false, "show power and current only")
	f.BoolVar(&fl.freq, "freq", false, "show clocks and frequencies only")

	serve := newServeCommand(&cfg)
	sf := serve.Flags()
	sf.StringVar(&fl.host, "host", "127.0.0.1", "bind address")
	sf.IntVarP(&fl.port, "port", "p", 9143, "HTTP port")

	root.AddCommand(
		serve,
		newTUICommand(&cfg),
		newInfoCommand(&cfg),
		newDumpCommand(&cfg),
	)
	return root
}

// resolveConfig layers defaults, the config file, SMU_* variables and
// explicitly set flags, in that order, then validates the result.
func resolveConfig(fs *pflag.FlagSet, fl *flags, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg := config.Default()
	if fl.configPath != "" {
		loaded, err := config.LoadFile(fl.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		flag := fs.Lookup(name)
		return flag != nil && flag.Changed
	}
	if changed("sysfs-path") {
		cfg.SysfsPath = fl.sysfsPath
	}
	if changed("interval") {
		cfg.Interval = fl.interval
	}
	if changed("cores") {
		cfg.CoreCount = fl.cores
	}
	if changed("log-level") {
		cfg.LogLevel = fl.logLevel
	}
	if changed("format") {
		cfg.Format = fl.format
	}
	if fl.json {
		cfg.Format = config.FormatJSON
	}
	if changed("temps") || changed("power") || changed("freq") {
		cfg.Sections = config.Sections{Temps: fl.temps, Power: fl.power, Freq: fl.freq}
	}
	if changed("host") {
		cfg.Host = fl.host
	}
	if changed("port") {
		cfg.Port = fl.port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// coreHint returns the active core count source for reads: the
// configured override if set, OS enumeration otherwise.
func coreHint(cfg *config.Config) func() int {
	if n := cfg.CoreCount; n > 0 {
		return func() int { return n }
	}
	return cpu.ActiveCores
}

func openReader(cfg *config.Config) (*smu.Access, *smu.Reader, error) {
	access, err := smu.Open(cfg.SysfsPath)
	if err != nil {
		return nil, nil, err
	}
	return access, smu.NewReader(access, coreHint(cfg)), nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// describe renders err for the terminal, adding a remedy where the
// failure kind has an obvious one.
func describe(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, smu.ErrAccessDenied):
		return msg + " (try running as root)"
	case errors.Is(err, smu.ErrAccessUnavailable):
		return msg + " (is the ryzen_smu kernel module loaded?)"
	case errors.Is(err, smu.ErrUnsupportedVersion):
		return msg + " (supported: " + supportedVersions() + ")"
	case errors.Is(err, smu.ErrCoreCountUnknown):
		return msg + " (set --cores)"
	}
	return msg
}

func supportedVersions() string {
	var parts []string
	for _, v := range smu.Layouts.Versions() {
		parts = append(parts, fmt.Sprintf("%#x", v))
	}
	return strings.Join(parts, ", ")
}

// envOrDefault returns the value of an env var, or fallback if unset.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
