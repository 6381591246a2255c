// Package vocab generates, derives, stores and loads the symbol vocabularies
// the networks operate on.
package vocab

import (
	"errors"
	"fmt"

	"hrrnet/internal/hrr"
)

var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrSymbolExists   = errors.New("symbol already defined")
)

type Symbol struct {
	Name   string
	Vector hrr.Vector
}

// Vocabulary is an ordered set of uniquely named symbols. It is read-only once
// generation finishes.
type Vocabulary struct {
	symbols []Symbol
	index   map[string]int
}

func New() *Vocabulary {
	return &Vocabulary{index: make(map[string]int)}
}

// Add appends a symbol. The vector is copied.
func (v *Vocabulary) Add(name string, vec hrr.Vector) error {
	if name == "" {
		return errors.New("symbol name is required")
	}
	if _, exists := v.index[name]; exists {
		return fmt.Errorf("%w: %s", ErrSymbolExists, name)
	}
	v.index[name] = len(v.symbols)
	v.symbols = append(v.symbols, Symbol{Name: name, Vector: vec.Clone()})
	return nil
}

// Lookup returns a copy of the named vector.
func (v *Vocabulary) Lookup(name string) (hrr.Vector, error) {
	idx, ok := v.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return v.symbols[idx].Vector.Clone(), nil
}

func (v *Vocabulary) Has(name string) bool {
	_, ok := v.index[name]
	return ok
}

func (v *Vocabulary) Len() int {
	return len(v.symbols)
}

// Dimension is the width of the first symbol, or 0 for an empty vocabulary.
func (v *Vocabulary) Dimension() int {
	if len(v.symbols) == 0 {
		return 0
	}
	return len(v.symbols[0].Vector)
}

func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.symbols))
	for i, s := range v.symbols {
		out[i] = s.Name
	}
	return out
}

func (v *Vocabulary) Vectors() []hrr.Vector {
	out := make([]hrr.Vector, len(v.symbols))
	for i, s := range v.symbols {
		out[i] = s.Vector.Clone()
	}
	return out
}

func (v *Vocabulary) Symbols() []Symbol {
	out := make([]Symbol, len(v.symbols))
	for i, s := range v.symbols {
		out[i] = Symbol{Name: s.Name, Vector: s.Vector.Clone()}
	}
	return out
}

// CrowdingThreshold is the similarity above which two symbols count as
// crowding each other.
const CrowdingThreshold = 0.3

// Crowding is the average fraction of the vocabulary that is more than
// threshold similar to each symbol.
func Crowding(v *Vocabulary, threshold float64) float64 {
	n := len(v.symbols)
	if n == 0 {
		return 0
	}
	total := 0.0
	for i := range v.symbols {
		count := 0.0
		for j := range v.symbols {
			if i == j {
				continue
			}
			if hrr.Dot(v.symbols[i].Vector, v.symbols[j].Vector) > threshold {
				count++
			}
		}
		total += count / float64(n)
	}
	return total / float64(n)
}
