// internal/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	engine "github.com/jason-s-yu/tomgame/engine"
	"github.com/jason-s-yu/tomgame/service/internal/population"
	"github.com/jason-s-yu/tomgame/service/internal/simulation"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the configuration reads.
const EnvPrefix = "TOMSIM_"

// ErrInvalidConfig is returned for a configuration that cannot drive a run.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config describes one invocation: the shared rules, the populations of
// both simulation variants and how many rounds and replicates to play.
type Config struct {
	Rules       engine.GameRules           `yaml:"rules" json:"rules"`
	Regular     population.Config          `yaml:"regular" json:"regular"`
	Signaling   population.SignalingConfig `yaml:"signaling" json:"signaling"`
	Simulations []string                   `yaml:"simulations" json:"simulations"` // Variants to run, in order.
	Rounds      int                        `yaml:"rounds" json:"rounds"`
	Replicates  int                        `yaml:"replicates" json:"replicates"`
	Seed        uint64                     `yaml:"seed" json:"seed"`
	Workers     int                        `yaml:"workers" json:"workers"` // <= 0 uses GOMAXPROCS.
	LogLevel    string                     `yaml:"log_level" json:"logLevel"`
}

// Default returns the reference experiment: a regular population of
// 100/100/1200 agents and a signaling population of 50 per order and role,
// each played for 1000 rounds over 10 replicates.
func Default() Config {
	fifty := population.Config{ZeroOrder: 50, FirstOrder: 50, SecondOrder: 50}
	return Config{
		Rules:       engine.DefaultGameRules(),
		Regular:     population.Config{ZeroOrder: 100, FirstOrder: 100, SecondOrder: 1200},
		Signaling:   population.SignalingConfig{Signaling: fifty, Plain: fifty, Receiving: fifty},
		Simulations: []string{simulation.NameRegular, simulation.NameSignaling},
		Rounds:      1000,
		Replicates:  10,
		Seed:        1,
		LogLevel:    "info",
	}
}

// Load reads a YAML (.yaml, .yml) or JSONC (.json, .jsonc) file over the
// defaults. Keys absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// EnvLookup returns a lookup over the process environment, falling back to
// the variables of a .env file when dotenvPath is set. The process
// environment is never modified. A missing .env file is not an error.
func EnvLookup(dotenvPath string) (func(string) (string, bool), error) {
	file := map[string]string{}
	if dotenvPath != "" {
		vars, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", dotenvPath, err)
		}
		if vars != nil {
			file = vars
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}

// ApplyEnv overrides fields from TOMSIM_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	setInt := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setFloat := func(name string, dst *float64) {
		if v, ok := get(name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}

	setInt("ROUNDS", &c.Rounds)
	setInt("REPLICATES", &c.Replicates)
	setInt("WORKERS", &c.Workers)
	setFloat("EPSILON", &c.Rules.Epsilon)
	setFloat("LEARNING_SPEED", &c.Rules.LearningSpeed)
	setFloat("SIGNAL_LEARNING_SPEED", &c.Rules.SignalLearningSpeed)

	if v, ok := get("SEED"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEED: %w", EnvPrefix, err))
		} else {
			c.Seed = n
		}
	}
	if v, ok := get("NUM_CHOICES"); ok {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sNUM_CHOICES: %w", EnvPrefix, err))
		} else {
			c.Rules.NumChoices = uint16(n)
		}
	}
	if v, ok := get("DECAY"); ok {
		if err := c.Rules.Decay.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, err)
		}
	}
	if v, ok := get("FEEDBACK"); ok {
		if err := c.Rules.Feedback.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, err)
		}
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("SIMULATIONS"); ok {
		c.Simulations = splitList(v)
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks every section and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	if err := c.Rules.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Rounds <= 0 {
		errs = append(errs, fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidConfig, c.Rounds))
	}
	if c.Replicates <= 0 {
		errs = append(errs, fmt.Errorf("%w: replicates must be positive, got %d", ErrInvalidConfig, c.Replicates))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	if len(c.Simulations) == 0 {
		errs = append(errs, fmt.Errorf("%w: no simulations selected", ErrInvalidConfig))
	}
	for _, name := range c.Simulations {
		switch name {
		case simulation.NameRegular:
			if err := c.Regular.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("regular population: %w", err))
			}
		case simulation.NameSignaling:
			if err := c.Signaling.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("signaling population: %w", err))
			}
		default:
			errs = append(errs, fmt.Errorf("%w: unknown simulation %q", ErrInvalidConfig, name))
		}
	}
	return errors.Join(errs...)
}
