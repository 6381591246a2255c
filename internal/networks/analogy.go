package networks

import (
	"hrrnet/internal/config"
	"hrrnet/internal/graph"
	"hrrnet/internal/hrr"
)

// Slot names of the analogy network.
const (
	SlotA   = "sigA"
	SlotB   = "sigB"
	SlotCue = "cue"
)

// AnalogySignals drive the three analogy slots. Nil members are left alone
// on reload.
type AnalogySignals struct {
	A   graph.Signal
	B   graph.Signal
	Cue graph.Signal
}

func (s AnalogySignals) slots() map[string]graph.Signal {
	out := make(map[string]graph.Signal, 3)
	for name, sig := range map[string]graph.Signal{SlotA: s.A, SlotB: s.B, SlotCue: s.Cue} {
		if sig != nil {
			out[name] = sig
		}
	}
	return out
}

// BuildAnalogy compiles "A is to B as cue is to ?": the transformation T from
// A to B is computed by a Transform network and applied to cue. With
// candidates, a Similarity network scores the hypothesis against each of
// them. Exposed outputs: T, hypothesis and, with candidates, result.
func BuildAnalogy(cfg config.Config, name string, capacity, d int, signals AnalogySignals, candidates []hrr.Vector) (*graph.Network, error) {
	net := graph.New(name, cfg.Logger)

	zero := graph.NewConstant(hrr.Zero(d))
	defaults := map[string]graph.Signal{SlotA: zero, SlotB: zero, SlotCue: zero}
	for slot, sig := range signals.slots() {
		defaults[slot] = sig
	}
	slots := make(map[string]*graph.Slot, 3)
	for _, slot := range []string{SlotA, SlotB, SlotCue} {
		s, err := net.AddSlot(slot, defaults[slot])
		if err != nil {
			return nil, err
		}
		slots[slot] = s
	}

	calcT, err := BuildTransform(cfg, "calcT", capacity, d)
	if err != nil {
		return nil, err
	}
	calcLast, err := BuildConvolution(cfg, "calcLast", capacity, d)
	if err != nil {
		return nil, err
	}
	for _, sub := range []*graph.Network{calcT, calcLast} {
		if err := net.Add(sub); err != nil {
			return nil, err
		}
	}

	if err := connectNamed(net, slots[SlotA].Output(), calcT, "A"); err != nil {
		return nil, err
	}
	if err := connectNamed(net, slots[SlotB].Output(), calcT, "B"); err != nil {
		return nil, err
	}
	if err := connectNamed(net, slots[SlotCue].Output(), calcLast, "A"); err != nil {
		return nil, err
	}
	t, err := calcT.Output("T")
	if err != nil {
		return nil, err
	}
	if err := connectNamed(net, t, calcLast, "B"); err != nil {
		return nil, err
	}
	hypothesis, err := calcLast.Output(graph.RawOutput)
	if err != nil {
		return nil, err
	}
	if err := net.ExposeOutput("T", t); err != nil {
		return nil, err
	}
	if err := net.ExposeOutput("hypothesis", hypothesis); err != nil {
		return nil, err
	}

	if len(candidates) > 0 {
		sim, err := BuildSimilarity(cfg, "similarity", capacity, d, candidates)
		if err != nil {
			return nil, err
		}
		if err := net.Add(sim); err != nil {
			return nil, err
		}
		if err := connectNamed(net, hypothesis, sim, "hypothesis"); err != nil {
			return nil, err
		}
		result, err := sim.Output("result")
		if err != nil {
			return nil, err
		}
		if err := net.ExposeOutput("result", result); err != nil {
			return nil, err
		}
	}

	if cfg.ProbesEnabled {
		if _, err := net.Tap("hypothesis", hypothesis); err != nil {
			return nil, err
		}
	}
	return net, nil
}

// ReloadAnalogy swaps the analogy's input signals in place. The graph and its
// connections are untouched; taps are cleared.
func ReloadAnalogy(net *graph.Network, signals AnalogySignals) error {
	return net.Reload(signals.slots())
}
