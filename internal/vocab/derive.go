package vocab

import (
	"errors"
	"fmt"

	"hrrnet/internal/hrr"
)

var ErrDerivationCycle = errors.New("derivation cycle")

type Op string

const (
	OpBind   Op = "bind"
	OpBundle Op = "bundle"
)

// Derivation defines a symbol as the bind or bundle of its operands, folded
// left to right. Operands may be base symbols or other derivations.
type Derivation struct {
	Name      string
	Op        Op
	Operands  []string
	Normalize bool
}

// Bind is norm(a*b), the usual successor step.
func Bind(name, a, b string) Derivation {
	return Derivation{Name: name, Op: OpBind, Operands: []string{a, b}, Normalize: true}
}

// Chain derives names[i] = norm(names[i-1] * step) starting from base.
func Chain(base, step string, names ...string) []Derivation {
	out := make([]Derivation, 0, len(names))
	prev := base
	for _, name := range names {
		out = append(out, Bind(name, prev, step))
		prev = name
	}
	return out
}

// Derive evaluates derivs against v in dependency order and appends the
// results to v in declaration order.
func Derive(v *Vocabulary, derivs []Derivation) error {
	byName := make(map[string]int, len(derivs))
	for i, d := range derivs {
		if v.Has(d.Name) {
			return fmt.Errorf("%w: %s", ErrSymbolExists, d.Name)
		}
		if _, dup := byName[d.Name]; dup {
			return fmt.Errorf("%w: derivation %s declared twice", ErrSymbolExists, d.Name)
		}
		byName[d.Name] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(derivs))
	values := make([]hrr.Vector, len(derivs))

	var visit func(i int, path []string) error
	visit = func(i int, path []string) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %v", ErrDerivationCycle, append(path, derivs[i].Name))
		}
		state[i] = visiting
		d := derivs[i]
		if len(d.Operands) == 0 {
			return fmt.Errorf("derivation %s has no operands", d.Name)
		}

		var acc hrr.Vector
		for _, operand := range d.Operands {
			var vec hrr.Vector
			if j, ok := byName[operand]; ok {
				if err := visit(j, append(path, d.Name)); err != nil {
					return err
				}
				vec = values[j]
			} else {
				found, err := v.Lookup(operand)
				if err != nil {
					return fmt.Errorf("derive %s: %w", d.Name, err)
				}
				vec = found
			}
			switch d.Op {
			case OpBind:
				acc = hrr.Bind(acc, vec)
			case OpBundle:
				acc = hrr.Bundle(acc, vec)
			default:
				return fmt.Errorf("derive %s: unsupported op %q", d.Name, d.Op)
			}
		}
		if d.Normalize {
			acc = hrr.Normalize(acc)
		}
		values[i] = acc.Clone()
		state[i] = done
		return nil
	}

	for i := range derivs {
		if err := visit(i, nil); err != nil {
			return err
		}
	}
	for i, d := range derivs {
		if err := v.Add(d.Name, values[i]); err != nil {
			return err
		}
	}
	return nil
}
