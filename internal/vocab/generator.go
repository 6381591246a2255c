package vocab

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/go-logr/logr"

	"hrrnet/internal/config"
	"hrrnet/internal/hrr"
)

var ErrUniquenessExhausted = errors.New("vocabulary uniqueness relaxation limit reached")

const (
	// AttemptBudget is the number of consecutive rejections that triggers a
	// relaxation. It resets on every accepted vector.
	AttemptBudget = 1000
	// RelaxationStep is added to the threshold on every relaxation.
	RelaxationStep = 0.1
)

// Generator draws mutually dissimilar random unit vectors from a private
// random source.
type Generator struct {
	rng            *rand.Rand
	dimension      int
	maxRelaxations int
	logger         logr.Logger
}

func NewGenerator(dimension int, seed int64, maxRelaxations int, logger logr.Logger) *Generator {
	return &Generator{
		rng:            rand.New(rand.NewSource(seed)),
		dimension:      dimension,
		maxRelaxations: maxRelaxations,
		logger:         logger,
	}
}

// Fill returns n unit vectors whose pairwise similarity is below the returned
// threshold. Each time AttemptBudget draws in a row are rejected the threshold
// is raised by RelaxationStep and the fill restarts from scratch.
func (g *Generator) Fill(n int, threshold float64) ([]hrr.Vector, float64, int, error) {
	for relaxations := 0; ; relaxations++ {
		current := threshold + float64(relaxations)*RelaxationStep
		if vecs, ok := g.fillOnce(n, current); ok {
			return vecs, current, relaxations, nil
		}
		if relaxations >= g.maxRelaxations {
			return nil, current, relaxations, fmt.Errorf("%w: %d words at threshold %.2f after %d relaxations",
				ErrUniquenessExhausted, n, current, relaxations)
		}
		g.logger.Info("uniqueness relaxed",
			"words", n, "threshold", current+RelaxationStep, "relaxations", relaxations+1)
	}
}

func (g *Generator) fillOnce(n int, threshold float64) ([]hrr.Vector, bool) {
	accepted := make([]hrr.Vector, 0, n)
	budget := AttemptBudget
	for len(accepted) < n {
		vec := hrr.RandomUnit(g.rng, g.dimension)
		unique := true
		for _, prev := range accepted {
			if hrr.Dot(prev, vec) >= threshold {
				unique = false
				break
			}
		}
		if unique {
			accepted = append(accepted, vec)
			budget = AttemptBudget
			continue
		}
		budget--
		if budget == 0 {
			return nil, false
		}
	}
	return accepted, true
}

// Result is a generated vocabulary together with how it was produced.
type Result struct {
	Vocabulary  *Vocabulary
	Catalog     string
	Seed        int64
	Threshold   float64
	Relaxations int
}

// Relaxed reports whether the similarity threshold had to be raised.
func (r Result) Relaxed() bool {
	return r.Relaxations > 0
}

// Generate builds the catalog's vocabulary from cfg. The same configuration
// always yields bit-identical vectors.
func Generate(cfg config.Config, cat Catalog) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if len(cat.Names) > cat.BaseSlots {
		return Result{}, fmt.Errorf("catalog %s names %d words but has %d slots", cat.Name, len(cat.Names), cat.BaseSlots)
	}
	logger := cfg.Logger.WithValues("catalog", cat.Name)
	gen := NewGenerator(cfg.Dimension, cfg.VocabularySeed, cfg.MaxRelaxations, logger)

	vecs, threshold, relaxations, err := gen.Fill(cat.BaseSlots, cfg.VectorSimilarityThreshold)
	if err != nil {
		return Result{}, err
	}

	zero := make(map[string]bool, len(cat.Zero))
	for _, name := range cat.Zero {
		zero[name] = true
	}

	v := New()
	for i, name := range cat.Names {
		if name == "" {
			continue
		}
		vec := vecs[i]
		if zero[name] {
			vec = hrr.Zero(cfg.Dimension)
		}
		if err := v.Add(name, vec); err != nil {
			return Result{}, err
		}
	}
	if err := Derive(v, cat.Derivations); err != nil {
		return Result{}, err
	}

	logger.V(1).Info("vocabulary generated",
		"symbols", v.Len(), "dimension", cfg.Dimension, "threshold", threshold, "relaxations", relaxations)
	return Result{
		Vocabulary:  v,
		Catalog:     cat.Name,
		Seed:        cfg.VocabularySeed,
		Threshold:   threshold,
		Relaxations: relaxations,
	}, nil
}
