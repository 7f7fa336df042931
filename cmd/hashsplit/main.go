package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoangsonww/hashsplit/config"
	"github.com/hoangsonww/hashsplit/internal/compression"
	hserrors "github.com/hoangsonww/hashsplit/internal/errors"
	"github.com/hoangsonww/hashsplit/internal/hashsplit"
	"github.com/hoangsonww/hashsplit/internal/monitoring"
	"github.com/hoangsonww/hashsplit/internal/ratelimit"
	"github.com/hoangsonww/hashsplit/internal/shutdown"
)

// app carries what every subcommand needs once the configuration is resolved
type app struct {
	cfgFile    string
	algorithm  string
	threshold  uint32
	minSize    string
	maxSize    string
	decompress string
	rateLimit  string
	format     string
	workers    int
	digests    bool
	logLevel   string

	cfg     *config.Config
	engine  hashsplit.Engine
	codec   compression.Type
	limiter *ratelimit.Limiter
	log     *monitoring.Logger
	metrics *monitoring.Metrics

	in  io.Reader
	out io.Writer
}

func main() {
	sd := shutdown.NewManager(context.Background())
	err := newRootCommand().ExecuteContext(sd.Context())
	sd.Stop()

	log := monitoring.GetLogger()
	if err != nil {
		log.WithError(err).
			WithField("code", string(hserrors.GetErrorCode(err))).
			Error("hashsplit failed")
	}
	_ = log.Sync()
	os.Exit(hserrors.GetExitCode(err))
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "hashsplit",
		Short:         "Split byte streams into content-defined chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "path to config")
	flags.StringVarP(&a.algorithm, "algorithm", "a", "", fmt.Sprintf("checksum algorithm %v", hashsplit.Algorithms()))
	flags.Uint32VarP(&a.threshold, "threshold", "t", 0, "trailing zero bits that mark a boundary")
	flags.StringVar(&a.minSize, "min-size", "", "smallest chunk that may end on a boundary (e.g. 64Ki)")
	flags.StringVar(&a.maxSize, "max-size", "", "largest chunk (e.g. 2Mi)")
	flags.StringVarP(&a.decompress, "decompress", "d", "", "input compression: none, gzip, zstd or auto")
	flags.StringVar(&a.rateLimit, "rate-limit", "", "cap on input bytes read per second (e.g. 50Mi)")
	flags.StringVarP(&a.format, "format", "f", "", "output format: text or json")
	flags.IntVarP(&a.workers, "workers", "w", 0, "files chunked concurrently")
	flags.BoolVar(&a.digests, "digests", true, "print chunk digests")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newNameCommand(a),
		newSplitCommand(a),
		newTreeCommand(a),
		newStatsCommand(a),
		newVerifyCommand(a),
	)
	return root
}

// setup loads the configuration, applies flag overrides and opens the engine
func (a *app) setup(cmd *cobra.Command) error {
	a.in = cmd.InOrStdin()
	a.out = cmd.OutOrStdout()

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return configError(a.cfgFile, err)
	}

	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		cfg.Algorithm = a.algorithm
	}
	if flags.Changed("threshold") {
		cfg.Threshold = a.threshold
	}
	if flags.Changed("min-size") {
		if cfg.MinSize, err = config.ParseSize(a.minSize); err != nil {
			return hserrors.NewConfigInvalidError(err)
		}
	}
	if flags.Changed("max-size") {
		if cfg.MaxSize, err = config.ParseSize(a.maxSize); err != nil {
			return hserrors.NewConfigInvalidError(err)
		}
	}
	if flags.Changed("decompress") {
		cfg.Input.Decompress = a.decompress
	}
	if flags.Changed("rate-limit") {
		if cfg.Input.RateLimit, err = config.ParseSize(a.rateLimit); err != nil {
			return hserrors.NewConfigInvalidError(err)
		}
	}
	if flags.Changed("format") {
		cfg.Output.Format = a.format
	}
	if flags.Changed("workers") {
		cfg.Workers = a.workers
	}
	if flags.Changed("digests") {
		cfg.Output.Digests = a.digests
	}
	if flags.Changed("log-level") {
		cfg.Monitoring.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return configError(a.cfgFile, err)
	}

	a.log = monitoring.NewLoggerTo(cmd.ErrOrStderr(), cfg.Monitoring.LogLevel, cfg.Monitoring.LogFormat).
		WithField("command", cmd.Name())
	monitoring.SetGlobalLogger(a.log)

	if a.codec, err = compression.ParseType(cfg.Input.Decompress); err != nil {
		return hserrors.NewConfigInvalidError(err)
	}
	if a.engine, err = hashsplit.Open(cfg.Algorithm, cfg.Policy()); err != nil {
		return configError(a.cfgFile, err)
	}

	a.limiter = ratelimit.NewLimiter(int(cfg.Input.RateLimit))
	a.cfg = cfg
	a.metrics = monitoring.NewMetrics()
	a.log.WithFields(map[string]interface{}{
		"engine":  a.engine.String(),
		"workers": cfg.Workers,
	}).Debug("configuration loaded")
	return nil
}

func configError(path string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return hserrors.NewConfigMissingError(path, err)
	case errors.Is(err, hashsplit.ErrUnknownAlgorithm):
		return hserrors.NewAlgorithmUnknownError(err)
	default:
		return hserrors.NewConfigInvalidError(err)
	}
}

func newNameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "name",
		Short: "Print the diagnostic name of the configured splitter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := fmt.Fprintln(a.out, a.engine.String()); err != nil {
				return hserrors.NewOutputFailedError(err)
			}
			return nil
		},
	}
}
