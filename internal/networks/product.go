package networks

import (
	"fmt"
	"math"

	"hrrnet/internal/config"
	"hrrnet/internal/graph"
	"hrrnet/internal/hrr"
)

// ProductSpec describes a network computing ((C1*a) .* (C2*b)) * Scale.
type ProductSpec struct {
	Name      string
	Capacity  int
	Dimension int
	// Scale multiplies the product; zero means 1.
	Scale float64
	// Transforms are C1 and C2; nil means identities.
	Transforms []graph.Transform
	// MaxInput is the largest expected component of C1*a and C2*b; zero
	// means 1. Intermediate values are divided by sqrt(2)*MaxInput so the
	// 2-D populations stay inside the unit circle.
	MaxInput float64
	// ScalarSecond makes B a 1-D input that scales every component.
	ScalarSecond bool
}

// BuildProduct compiles spec. Exposed ports: inputs A and B, output X.
func BuildProduct(cfg config.Config, spec ProductSpec) (*graph.Network, error) {
	if spec.Capacity <= 0 {
		return nil, fmt.Errorf("product %s: capacity must be > 0, got %d", spec.Name, spec.Capacity)
	}
	if spec.Scale == 0 {
		spec.Scale = 1
	}
	if spec.MaxInput == 0 {
		spec.MaxInput = 1
	}
	net := graph.New(spec.Name, cfg.Logger)
	d := spec.Dimension

	weights := spec.Transforms
	if weights != nil && len(weights) != 2 {
		net.Logger().Info("product expects exactly two transforms", "warning", true, "transforms", len(weights))
	}
	switch len(weights) {
	case 0:
		weights = []graph.Transform{graph.Identity(d, 1), graph.Identity(d, 1)}
	case 1:
		weights = []graph.Transform{weights[0], graph.Identity(d, 1)}
	}
	c1, c2 := weights[0], weights[1]
	if c1.Rows() != d || c2.Rows() != d {
		net.Logger().Error(hrr.ErrDimensionMismatch, "product transforms do not produce the product dimension",
			"rows1", c1.Rows(), "rows2", c2.Rows(), "dimension", d)
	}
	inputd := c1.Cols()
	if c2.Cols() != inputd {
		net.Logger().Error(hrr.ErrDimensionMismatch, "product transforms read different input widths",
			"cols1", inputd, "cols2", c2.Cols())
	}

	in1 := graph.NewRelay("in1", inputd)
	a, err := in1.AddInput("input", graph.Identity(inputd, 1), cfg.RelayTau)
	if err != nil {
		return nil, err
	}
	in2 := graph.NewRelay("in2", inputd)
	second := graph.Identity(inputd, 1)
	if spec.ScalarSecond {
		second = graph.NewTransform(ones(inputd))
	}
	b, err := in2.AddInput("input", second, cfg.RelayTau)
	if err != nil {
		return nil, err
	}
	result := graph.NewRelay("result", d)
	for _, node := range []*graph.Node{in1, in2, result} {
		if err := net.AddNode(node); err != nil {
			return nil, err
		}
	}

	if cfg.SplitDimensions {
		err = buildSplitProduct(cfg, net, spec, in1, in2, result, c1, c2)
	} else {
		err = buildJointProduct(cfg, net, spec, in1, in2, result, c1, c2)
	}
	if err != nil {
		return nil, fmt.Errorf("build product %s: %w", spec.Name, err)
	}

	if err := net.ExposeInput("A", a); err != nil {
		return nil, err
	}
	if err := net.ExposeInput("B", b); err != nil {
		return nil, err
	}
	x, _ := result.Output(graph.RawOutput)
	if err := net.ExposeOutput(graph.RawOutput, x); err != nil {
		return nil, err
	}
	return net, nil
}

func buildSplitProduct(cfg config.Config, net *graph.Network, spec ProductSpec, in1, in2, result *graph.Node, c1, c2 graph.Transform) error {
	d := spec.Dimension
	inputd := c1.Cols()
	maxLength := math.Sqrt(2 * spec.MaxInput * spec.MaxInput)
	small := graph.SplitCapacity(spec.Capacity, d)
	src1, _ := in1.Output(graph.RawOutput)
	src2, _ := in2.Output(graph.RawOutput)

	for e := 0; e < d; e++ {
		mpop := graph.NewEnsemble(fmt.Sprintf("mpop_%d", e), 2, small, cfg.Mode)
		mpop.SetEncoding(graph.EncodingMultiplication)
		if err := net.AddNode(mpop); err != nil {
			return err
		}

		wa := hrr.Zeros(2, inputd)
		wb := hrr.Zeros(2, inputd)
		if e < c1.Rows() {
			for i, w := range c1.Row(e) {
				if i < inputd {
					wa[0][i] = w / maxLength
				}
			}
		}
		if e < c2.Rows() {
			for i, w := range c2.Row(e) {
				if i < inputd {
					wb[1][i] = w / maxLength
				}
			}
		}
		pa, err := mpop.AddInput("a", graph.NewTransform(wa), cfg.SynapticTau)
		if err != nil {
			return err
		}
		pb, err := mpop.AddInput("b", graph.NewTransform(wb), cfg.SynapticTau)
		if err != nil {
			return err
		}
		if err := net.Connect(src1, pa); err != nil {
			return err
		}
		if err := net.Connect(src2, pb); err != nil {
			return err
		}

		out, err := mpop.AddOutput("output", []graph.OutputFunc{graph.Product(0, 1)})
		if err != nil {
			return err
		}
		// inputs were shrunk by 1/maxLength each
		port, err := result.AddInput(inPort(e), graph.NewTransform(column(d, e, maxLength*maxLength*spec.Scale)), cfg.RelayTau)
		if err != nil {
			return err
		}
		if err := net.Connect(out, port); err != nil {
			return err
		}
	}
	return nil
}

func buildJointProduct(cfg config.Config, net *graph.Network, spec ProductSpec, in1, in2, result *graph.Node, c1, c2 graph.Transform) error {
	d := spec.Dimension
	inputd := c1.Cols()
	mpop := graph.NewEnsemble("mpop", 2*d, spec.Capacity, cfg.Mode)
	if err := net.AddNode(mpop); err != nil {
		return err
	}

	wa := hrr.Zeros(2*d, inputd)
	wb := hrr.Zeros(2*d, inputd)
	for r := 0; r < d; r++ {
		if r < c1.Rows() {
			copy(wa[r], c1.Row(r))
		}
		if r < c2.Rows() {
			copy(wb[d+r], c2.Row(r))
		}
	}
	pa, err := mpop.AddInput("a", graph.NewTransform(wa), cfg.SynapticTau)
	if err != nil {
		return err
	}
	pb, err := mpop.AddInput("b", graph.NewTransform(wb), cfg.SynapticTau)
	if err != nil {
		return err
	}
	src1, _ := in1.Output(graph.RawOutput)
	src2, _ := in2.Output(graph.RawOutput)
	if err := net.Connect(src1, pa); err != nil {
		return err
	}
	if err := net.Connect(src2, pb); err != nil {
		return err
	}

	funcs := make([]graph.OutputFunc, d)
	for i := range funcs {
		funcs[i] = graph.Product(i, d+i)
	}
	out, err := mpop.AddOutput("output", funcs)
	if err != nil {
		return err
	}
	port, err := result.AddInput("input", graph.Identity(d, spec.Scale), cfg.SynapticTau)
	if err != nil {
		return err
	}
	return net.Connect(out, port)
}

// ones is the n x 1 broadcast column.
func ones(n int) hrr.Matrix {
	m := hrr.Zeros(n, 1)
	for i := range m {
		m[i][0] = 1
	}
	return m
}
