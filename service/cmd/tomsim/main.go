// tomsim runs Theory of Mind mod game simulations and prints per-round
// scores for every agent group, averaged over independent replicates.
//
// Configuration is layered: built-in defaults, then an optional YAML or
// JSONC file (--config), then TOMSIM_* variables from the environment or
// a .env file (--env-file), then command-line flags.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jason-s-yu/tomgame/service/internal/config"
	"github.com/jason-s-yu/tomgame/service/internal/simulation"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	envFile    string
	format     string
	snapshot   bool

	rounds      int
	replicates  int
	seed        uint64
	workers     int
	epsilon     float64
	numChoices  uint16
	decay       string
	feedback    string
	logLevel    string
	simulations []string
}

func newFlagSet(opts *options, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("tomsim", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML or JSONC run configuration")
	fs.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with TOMSIM_* overrides (ignored if missing)")
	fs.StringVar(&opts.format, "format", "table", "report format: table or json")
	fs.BoolVar(&opts.snapshot, "snapshot", false, "include the final agent states of the last replicate in the report")

	fs.IntVarP(&opts.rounds, "rounds", "n", 0, "rounds per replicate")
	fs.IntVarP(&opts.replicates, "replicates", "r", 0, "independent replicates per simulation")
	fs.Uint64Var(&opts.seed, "seed", 0, "base seed; replicate i uses seed+i")
	fs.IntVar(&opts.workers, "workers", 0, "replicates run concurrently (0 = GOMAXPROCS)")
	fs.Float64Var(&opts.epsilon, "epsilon", 0, "exploration probability")
	fs.Uint16VarP(&opts.numChoices, "choices", "k", 0, "size of the choice set")
	fs.StringVar(&opts.decay, "decay", "", "belief decay mode: normalize or inert")
	fs.StringVar(&opts.feedback, "feedback", "", "realized action fed back to agents: own or population")
	fs.StringVar(&opts.logLevel, "log-level", "", "logrus level (trace, debug, info, warn, error)")
	fs.StringSliceVarP(&opts.simulations, "simulation", "s", nil, "simulations to run: regular, signaling")
	return fs
}

// loadConfig layers defaults, file, environment and the flags that were set.
func loadConfig(fs *pflag.FlagSet, opts *options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, err
		}
	}

	lookup, err := config.EnvLookup(opts.envFile)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}

	var errs []error
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "rounds":
			cfg.Rounds = opts.rounds
		case "replicates":
			cfg.Replicates = opts.replicates
		case "seed":
			cfg.Seed = opts.seed
		case "workers":
			cfg.Workers = opts.workers
		case "epsilon":
			cfg.Rules.Epsilon = opts.epsilon
		case "choices":
			cfg.Rules.NumChoices = opts.numChoices
		case "decay":
			errs = append(errs, cfg.Rules.Decay.UnmarshalText([]byte(opts.decay)))
		case "feedback":
			errs = append(errs, cfg.Rules.Feedback.UnmarshalText([]byte(opts.feedback)))
		case "log-level":
			cfg.LogLevel = opts.logLevel
		case "simulation":
			cfg.Simulations = opts.simulations
		}
	})
	if err := errors.Join(errs...); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

func factoryFor(name string, cfg config.Config) (simulation.Factory, error) {
	switch name {
	case simulation.NameRegular:
		return func(seed uint64, log *logrus.Entry) (*simulation.Simulation, error) {
			return simulation.NewRegular(cfg.Regular, cfg.Rules, seed, log)
		}, nil
	case simulation.NameSignaling:
		return func(seed uint64, log *logrus.Entry) (*simulation.Simulation, error) {
			return simulation.NewSignaling(cfg.Signaling, cfg.Rules, seed, log)
		}, nil
	}
	return nil, fmt.Errorf("unknown simulation %q", name)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	fs := newFlagSet(&opts, stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	format := strings.ToLower(opts.format)
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown report format %q", opts.format)
	}

	cfg, err := loadConfig(fs, &opts)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"rounds":     cfg.Rounds,
		"replicates": cfg.Replicates,
		"seed":       cfg.Seed,
		"choices":    cfg.Rules.NumChoices,
		"decay":      cfg.Rules.Decay,
		"feedback":   cfg.Rules.Feedback,
	}).Info("Starting simulations.")

	var reports []Report
	for _, name := range cfg.Simulations {
		f, err := factoryFor(name, cfg)
		if err != nil {
			return err
		}
		entry := logrus.NewEntry(log)

		var last *simulation.Simulation
		if opts.snapshot {
			inner := f
			f = func(seed uint64, l *logrus.Entry) (*simulation.Simulation, error) {
				sim, err := inner(seed, l)
				if err == nil && seed == cfg.Seed+uint64(cfg.Replicates-1) {
					last = sim
				}
				return sim, err
			}
		}

		groups, err := simulation.Replicate(ctx, f, simulation.ReplicateOptions{
			Replicates: cfg.Replicates,
			Rounds:     cfg.Rounds,
			Seed:       cfg.Seed,
			Workers:    cfg.Workers,
		}, entry)
		if err != nil {
			return fmt.Errorf("%s simulation: %w", name, err)
		}
		rep := Report{Simulation: name, Rounds: cfg.Rounds, Replicates: cfg.Replicates, Groups: groups}
		if last != nil {
			st := last.Snapshot()
			rep.Snapshot = &st
		}
		reports = append(reports, rep)
	}

	if format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	return writeTable(stdout, cfg.Rules, reports)
}
