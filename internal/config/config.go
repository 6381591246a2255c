// Package config holds the immutable parameters shared by the vocabulary
// generator, the network builders and the evaluator.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-logr/logr"

	"hrrnet/internal/graph"
)

const (
	DefaultDimension                 = 30
	DefaultNeuronsPerDimension       = 25
	DefaultVocabularySeed      int64 = 100
	DefaultSimilarityThreshold       = 1.0
	DefaultMaxRelaxations            = 10
	DefaultSynapticTau               = 0.007
	DefaultRelayTau                  = 0.0001
)

// Config is passed by value to every builder. Nothing in it is mutated after
// construction.
type Config struct {
	Dimension                 int
	NeuronsPerDimension       int
	VocabularySeed            int64
	VectorSimilarityThreshold float64
	SplitDimensions           bool
	Mode                      graph.Mode
	ProbesEnabled             bool
	MaxRelaxations            int
	SynapticTau               float64
	RelayTau                  float64
	Logger                    logr.Logger
}

func Default() Config {
	return Config{
		Dimension:                 DefaultDimension,
		NeuronsPerDimension:       DefaultNeuronsPerDimension,
		VocabularySeed:            DefaultVocabularySeed,
		VectorSimilarityThreshold: DefaultSimilarityThreshold,
		SplitDimensions:           true,
		Mode:                      graph.Simulated,
		ProbesEnabled:             true,
		MaxRelaxations:            DefaultMaxRelaxations,
		SynapticTau:               DefaultSynapticTau,
		RelayTau:                  DefaultRelayTau,
		Logger:                    logr.Discard(),
	}
}

// WithLogger returns a copy of c logging to logger.
func (c Config) WithLogger(logger logr.Logger) Config {
	c.Logger = logger
	return c
}

// Capacity is the population size for a d-dimensional node.
func (c Config) Capacity() int {
	return c.NeuronsPerDimension * c.Dimension
}

func (c Config) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be > 0, got %d", c.Dimension)
	}
	if c.NeuronsPerDimension <= 0 {
		return fmt.Errorf("neurons per dimension must be > 0, got %d", c.NeuronsPerDimension)
	}
	if c.MaxRelaxations < 0 {
		return fmt.Errorf("max relaxations must be >= 0, got %d", c.MaxRelaxations)
	}
	if c.SynapticTau < 0 || c.RelayTau < 0 {
		return errors.New("time constants must be >= 0")
	}
	return nil
}

// Load reads a JSON configuration file over the defaults. Unknown keys are
// ignored; keys with the wrong type keep the default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg := Default()
	if v, ok := asInt(raw["dimension"]); ok {
		cfg.Dimension = v
	}
	if v, ok := asInt(raw["neurons_per_dimension"]); ok {
		cfg.NeuronsPerDimension = v
	}
	if v, ok := asInt64(raw["vocabulary_seed"]); ok {
		cfg.VocabularySeed = v
	}
	if v, ok := asFloat64(raw["vector_similarity_threshold"]); ok {
		cfg.VectorSimilarityThreshold = v
	}
	if v, ok := asBool(raw["split_dimensions"]); ok {
		cfg.SplitDimensions = v
	}
	if v, ok := asString(raw["execution_mode"]); ok {
		mode, err := graph.ParseMode(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Mode = mode
	}
	if v, ok := asBool(raw["probes_enabled"]); ok {
		cfg.ProbesEnabled = v
	}
	if v, ok := asInt(raw["max_relaxations"]); ok {
		cfg.MaxRelaxations = v
	}
	if v, ok := asFloat64(raw["synaptic_tau"]); ok {
		cfg.SynapticTau = v
	}
	if v, ok := asFloat64(raw["relay_tau"]); ok {
		cfg.RelayTau = v
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
