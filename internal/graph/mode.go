package graph

import (
	"fmt"
	"strings"
)

// Mode selects how a node is evaluated. It is fixed when the node is built.
type Mode int

const (
	// Simulated nodes approximate their function through the population
	// dynamics owned by the execution engine, with bounded accuracy.
	Simulated Mode = iota
	// Idealized nodes evaluate their declared function exactly.
	Idealized
)

func (m Mode) String() string {
	switch m {
	case Idealized:
		return "idealized"
	case Simulated:
		return "simulated"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts the canonical names plus the "direct"/"default" aliases
// used by older configuration files.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "idealized", "direct":
		return Idealized, nil
	case "simulated", "default", "spiking":
		return Simulated, nil
	default:
		return Simulated, fmt.Errorf("unsupported execution mode: %s", s)
	}
}

// Kind distinguishes the role a node plays in a network.
type Kind int

const (
	// KindEnsemble is a bounded-capacity population.
	KindEnsemble Kind = iota
	// KindRelay passes its summed inputs through; always idealized.
	KindRelay
	// KindSignal emits an externally supplied signal and has no inputs.
	KindSignal
)

func (k Kind) String() string {
	switch k {
	case KindEnsemble:
		return "ensemble"
	case KindRelay:
		return "relay"
	case KindSignal:
		return "signal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Encoding names the encoder assignment a population should use.
type Encoding string

const (
	EncodingIsotropic      Encoding = "isotropic"
	EncodingMultiplication Encoding = "multiplication"
)
