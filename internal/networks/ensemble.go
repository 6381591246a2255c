// Package networks compiles the HRR operations into computation graphs: the
// dimension-split ensemble, the elementwise product, circular convolution and
// the composite networks built from them.
package networks

import (
	"errors"
	"fmt"

	"hrrnet/internal/config"
	"hrrnet/internal/graph"
	"hrrnet/internal/hrr"
)

// EnsembleSpec describes a network that behaves like one population of
// dimension Transforms[j].Rows() summing Transforms[j]*in_j.
type EnsembleSpec struct {
	Name     string
	Capacity int
	// Tau is the smoothing constant of the input ports; zero means
	// cfg.SynapticTau.
	Tau        float64
	Transforms []graph.Transform
	// OutputFuncs, when set, holds one scalar function per output dimension.
	// Function i reads component 0 of dimension i's value.
	OutputFuncs []graph.OutputFunc
	// Split overrides cfg.SplitDimensions when non-nil.
	Split *bool
}

// Bool is a helper for optional flags such as EnsembleSpec.Split.
func Bool(v bool) *bool {
	return &v
}

// BuildEnsemble compiles spec. Exposed ports: inputs in_<j>, output X.
func BuildEnsemble(cfg config.Config, spec EnsembleSpec) (*graph.Network, error) {
	if len(spec.Transforms) == 0 {
		return nil, errors.New("ensemble needs at least one transform")
	}
	if spec.Capacity <= 0 {
		return nil, fmt.Errorf("ensemble %s: capacity must be > 0, got %d", spec.Name, spec.Capacity)
	}
	if spec.Tau == 0 {
		spec.Tau = cfg.SynapticTau
	}
	net := graph.New(spec.Name, cfg.Logger)

	d := spec.Transforms[0].Rows()
	for j, t := range spec.Transforms[1:] {
		if t.Rows() != d {
			net.Logger().Error(hrr.ErrDimensionMismatch, "transform output dimensions disagree",
				"transform", j+1, "rows", t.Rows(), "expected", d)
		}
	}
	if spec.OutputFuncs != nil && len(spec.OutputFuncs) != d {
		net.Logger().Error(hrr.ErrDimensionMismatch, "output function count differs from dimension",
			"funcs", len(spec.OutputFuncs), "dimension", d)
	}

	split := cfg.SplitDimensions
	if spec.Split != nil {
		split = *spec.Split
	}
	var err error
	if split {
		err = buildSplit(cfg, net, spec, d)
	} else {
		err = buildPopulation(cfg, net, spec, d)
	}
	if err != nil {
		return nil, fmt.Errorf("build ensemble %s: %w", spec.Name, err)
	}
	return net, nil
}

func buildPopulation(cfg config.Config, net *graph.Network, spec EnsembleSpec, d int) error {
	pop := graph.NewEnsemble("pop", d, spec.Capacity, cfg.Mode)
	if err := net.AddNode(pop); err != nil {
		return err
	}
	for j, t := range spec.Transforms {
		port, err := pop.AddInput(inPort(j), t, spec.Tau)
		if err != nil {
			return err
		}
		if err := net.ExposeInput(inPort(j), port); err != nil {
			return err
		}
	}

	out, _ := pop.Output(graph.RawOutput)
	if spec.OutputFuncs != nil {
		funcs := make([]graph.OutputFunc, len(spec.OutputFuncs))
		for i, fn := range spec.OutputFuncs {
			funcs[i] = shiftArgs(fn, i)
		}
		var err error
		if out, err = pop.AddOutput("output", funcs); err != nil {
			return err
		}
	}
	return net.ExposeOutput(graph.RawOutput, out)
}

func buildSplit(cfg config.Config, net *graph.Network, spec EnsembleSpec, d int) error {
	inputs := make([]*graph.Node, len(spec.Transforms))
	for j, t := range spec.Transforms {
		relay := graph.NewRelay(inPort(j), t.Cols())
		port, err := relay.AddInput("input", graph.Identity(t.Cols(), 1), cfg.RelayTau)
		if err != nil {
			return err
		}
		if err := net.AddNode(relay); err != nil {
			return err
		}
		if err := net.ExposeInput(inPort(j), port); err != nil {
			return err
		}
		inputs[j] = relay
	}

	output := graph.NewRelay("output", d)
	if err := net.AddNode(output); err != nil {
		return err
	}
	x, _ := output.Output(graph.RawOutput)
	if err := net.ExposeOutput(graph.RawOutput, x); err != nil {
		return err
	}

	small := graph.SplitCapacity(spec.Capacity, d)
	for i := 0; i < d; i++ {
		pop := graph.NewEnsemble(fmt.Sprintf("mid_%d", i), 1, small, cfg.Mode)
		if err := net.AddNode(pop); err != nil {
			return err
		}
		for j, t := range spec.Transforms {
			row := make([]float64, t.Cols())
			if i < t.Rows() {
				row = t.Row(i)
			}
			port, err := pop.AddInput(inPort(j), graph.RowTransform(row), spec.Tau)
			if err != nil {
				return err
			}
			src, _ := inputs[j].Output(graph.RawOutput)
			if err := net.Connect(src, port); err != nil {
				return err
			}
		}

		src, _ := pop.Output(graph.RawOutput)
		if spec.OutputFuncs != nil && i < len(spec.OutputFuncs) {
			var err error
			if src, err = pop.AddOutput("output", []graph.OutputFunc{spec.OutputFuncs[i]}); err != nil {
				return err
			}
		}
		port, err := output.AddInput(inPort(i), graph.NewTransform(column(d, i, 1)), cfg.RelayTau)
		if err != nil {
			return err
		}
		if err := net.Connect(src, port); err != nil {
			return err
		}
	}
	return nil
}

func inPort(i int) string {
	return fmt.Sprintf("in_%d", i)
}

// column is the d x 1 matrix with value at row i.
func column(d, i int, value float64) hrr.Matrix {
	m := hrr.Zeros(d, 1)
	m[i][0] = value
	return m
}

// shiftArgs rebases a function of a 1-D value onto component offset of a
// wider vector.
func shiftArgs(fn graph.OutputFunc, offset int) graph.OutputFunc {
	args := make([]int, len(fn.Args))
	for k, a := range fn.Args {
		args[k] = a + offset
	}
	return graph.OutputFunc{Kernel: fn.Kernel, Args: args}
}
