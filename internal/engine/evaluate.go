// Package engine executes compiled networks: a steady-state forward pass and
// a fixed-step simulation with low-pass filtered connections.
package engine

import (
	"fmt"
	"math/rand"

	"hrrnet/internal/graph"
	"hrrnet/internal/hrr"
)

// Options control a single evaluation.
type Options struct {
	// Time is the instant at which slot signals are sampled.
	Time float64
	// NoiseScale is the noise amplitude of simulated populations; a
	// population of capacity N gets NoiseScale/sqrt(N) per component.
	NoiseScale float64
	// Seed drives the noise source.
	Seed int64
	// Radius bounds what a simulated population can represent; zero means 1.
	Radius float64
}

// Result holds every output port value of one evaluated state.
type Result struct {
	Time   float64
	Steps  int
	net    *graph.Network
	values map[graph.OutputRef]hrr.Vector
}

// Value returns the value of any output port in the network.
func (r *Result) Value(ref graph.OutputRef) (hrr.Vector, bool) {
	v, ok := r.values[ref]
	if !ok {
		return nil, false
	}
	return v.Clone(), true
}

// Output returns the value of an exposed output port.
func (r *Result) Output(name string) (hrr.Vector, error) {
	ref, err := r.net.Output(name)
	if err != nil {
		return nil, err
	}
	v, _ := r.Value(ref)
	return v, nil
}

type evaluator struct {
	net       *graph.Network
	order     []*graph.Node
	externals map[graph.InputRef]hrr.Vector
	opts      Options
	rng       *rand.Rand
}

func newEvaluator(net *graph.Network, inputs map[string]hrr.Vector, opts Options) (*evaluator, error) {
	order, err := net.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	externals := make(map[graph.InputRef]hrr.Vector, len(inputs))
	for name, v := range inputs {
		ref, err := net.Input(name)
		if err != nil {
			return nil, err
		}
		if _, wired := net.Incoming(ref); wired {
			return nil, fmt.Errorf("input %s is already driven by a connection", name)
		}
		externals[ref] = v.Clone()
	}
	if opts.Radius == 0 {
		opts.Radius = 1
	}
	return &evaluator{
		net:       net,
		order:     order,
		externals: externals,
		opts:      opts,
		rng:       rand.New(rand.NewSource(opts.Seed)),
	}, nil
}

// filter maps a port's raw contribution to what the node sees. The steady
// state pass uses the identity.
type filter func(ref graph.InputRef, x hrr.Vector) hrr.Vector

func (e *evaluator) pass(t float64, values map[graph.OutputRef]hrr.Vector, smooth filter) error {
	for _, node := range e.order {
		var x hrr.Vector
		if node.Kind() == graph.KindSignal {
			x = graph.SignalValue(node, t)
		} else {
			x = hrr.Zero(node.Dimension())
			for _, port := range node.Inputs() {
				ref, _ := node.Input(port.Name)
				var src hrr.Vector
				if conn, ok := e.net.Incoming(ref); ok {
					src = values[conn.From]
				} else if ext, ok := e.externals[ref]; ok {
					src = ext
				} else {
					continue
				}
				contrib := port.Transform.Apply(src)
				if smooth != nil {
					contrib = smooth(ref, contrib)
				}
				for i := range x {
					if i < len(contrib) {
						x[i] += contrib[i]
					}
				}
			}
		}

		represented := e.represent(node, x)
		for _, out := range node.Outputs() {
			v, err := node.Decode(out.Name, represented)
			if err != nil {
				return fmt.Errorf("%s: %w", e.net.Path(node), err)
			}
			ref, _ := node.Output(out.Name)
			values[ref] = v
		}
	}
	return nil
}

// represent applies the population's limits to x. Idealized nodes and relays
// represent x exactly.
func (e *evaluator) represent(node *graph.Node, x hrr.Vector) hrr.Vector {
	if node.Kind() != graph.KindEnsemble || node.Mode() != graph.Simulated {
		return x
	}
	v := Saturate(x, e.opts.Radius)
	if e.opts.NoiseScale > 0 {
		sd := noiseStdDev(e.opts.NoiseScale, node.Capacity())
		for i := range v {
			v[i] += e.rng.NormFloat64() * sd
		}
	}
	return v
}

// Evaluate computes the steady state of net for constant inputs, keyed by
// exposed input name. Slot signals are sampled at opts.Time.
func Evaluate(net *graph.Network, inputs map[string]hrr.Vector, opts Options) (*Result, error) {
	e, err := newEvaluator(net, inputs, opts)
	if err != nil {
		return nil, err
	}
	values := make(map[graph.OutputRef]hrr.Vector)
	if err := e.pass(opts.Time, values, nil); err != nil {
		return nil, err
	}
	for _, tap := range net.Taps() {
		if v, ok := values[tap.Source()]; ok {
			tap.Record(opts.Time, v)
		}
	}
	return &Result{Time: opts.Time, Steps: 1, net: net, values: values}, nil
}
