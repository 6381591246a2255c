package engine

import (
	"context"
	"errors"
	"math"

	"hrrnet/internal/graph"
	"hrrnet/internal/hrr"
)

// RunOptions control a fixed-step simulation.
type RunOptions struct {
	Options
	// Dt is the step size in seconds; zero means 0.001.
	Dt float64
	// Duration is the simulated time in seconds.
	Duration float64
}

const defaultDt = 0.001

// Run simulates net from rest for opts.Duration. Every connection is a
// first-order low-pass filter with its port's time constant; ports whose
// constant does not exceed Dt follow their source directly. Taps record one
// sample per step. The final state is returned.
func Run(ctx context.Context, net *graph.Network, inputs map[string]hrr.Vector, opts RunOptions) (*Result, error) {
	if opts.Dt == 0 {
		opts.Dt = defaultDt
	}
	if opts.Dt < 0 || opts.Duration < 0 {
		return nil, errors.New("dt and duration must be >= 0")
	}
	e, err := newEvaluator(net, inputs, opts.Options)
	if err != nil {
		return nil, err
	}

	dt := opts.Dt
	state := make(map[graph.InputRef]hrr.Vector)
	smooth := func(ref graph.InputRef, x hrr.Vector) hrr.Vector {
		tau := ref.Tau()
		s, ok := state[ref]
		if !ok {
			s = hrr.Zero(len(x))
		}
		if tau <= dt {
			s = x.Clone()
		} else {
			k := dt / tau
			for i := range s {
				if i < len(x) {
					s[i] += k * (x[i] - s[i])
				}
			}
		}
		state[ref] = s
		return s.Clone()
	}

	steps := int(math.Round(opts.Duration / dt))
	values := make(map[graph.OutputRef]hrr.Vector)
	t := opts.Time
	for step := 0; step < steps; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		t = opts.Time + float64(step+1)*dt
		if err := e.pass(t, values, smooth); err != nil {
			return nil, err
		}
		for _, tap := range net.Taps() {
			if v, ok := values[tap.Source()]; ok {
				tap.Record(t, v)
			}
		}
	}
	return &Result{Time: t, Steps: steps, net: net, values: values}, nil
}
