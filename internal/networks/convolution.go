package networks

import (
	"fmt"
	"math"

	"hrrnet/internal/config"
	"hrrnet/internal/graph"
)

// BuildConvolution compiles the circular convolution of two d-vectors: both
// inputs are taken to the half spectrum inside four product networks, the
// complex product is recombined by rprod and iprod, and result applies the
// real part of the inverse transform. Exposed ports: inputs A and B, output X.
func BuildConvolution(cfg config.Config, name string, capacity, d int) (*graph.Network, error) {
	if d <= 0 {
		return nil, fmt.Errorf("convolution %s: dimension must be > 0, got %d", name, d)
	}
	net := graph.New(name, cfg.Logger)

	wr := graph.NewTransform(dftReal(d))
	wi := graph.NewTransform(dftImag(d))
	h := halfDimension(d)
	halfN := int(math.Ceil(float64(capacity) * float64(h) / float64(d)))

	a := graph.NewRelay("A", d)
	aIn, err := a.AddInput("input", graph.Identity(d, 1), cfg.RelayTau)
	if err != nil {
		return nil, err
	}
	b := graph.NewRelay("B", d)
	bIn, err := b.AddInput("input", graph.Identity(d, 1), cfg.RelayTau)
	if err != nil {
		return nil, err
	}
	for _, node := range []*graph.Node{a, b} {
		if err := net.AddNode(node); err != nil {
			return nil, err
		}
	}
	aOut, _ := a.Output(graph.RawOutput)
	bOut, _ := b.Output(graph.RawOutput)

	// The products are scaled by d/2 to keep components near 1/2; result
	// divides it back out.
	scale := float64(d) / 2
	pairs := [][2]graph.Transform{{wr, wr}, {wi, wi}, {wi, wr}, {wr, wi}}
	eprods := make([]*graph.Network, len(pairs))
	for k, pair := range pairs {
		eprod, err := BuildProduct(cfg, ProductSpec{
			Name:       fmt.Sprintf("eprod%d", k),
			Capacity:   halfN,
			Dimension:  h,
			Scale:      scale,
			Transforms: pair[:],
			MaxInput:   2 / math.Sqrt(float64(d)),
		})
		if err != nil {
			return nil, err
		}
		if err := net.Add(eprod); err != nil {
			return nil, err
		}
		if err := connectNamed(net, aOut, eprod, "A"); err != nil {
			return nil, err
		}
		if err := connectNamed(net, bOut, eprod, "B"); err != nil {
			return nil, err
		}
		eprods[k] = eprod
	}

	expand, negExpand, imagExpand := expansions(d)
	rprod, err := BuildEnsemble(cfg, EnsembleSpec{
		Name:       "rprod",
		Capacity:   capacity,
		Tau:        cfg.SynapticTau,
		Transforms: []graph.Transform{graph.NewTransform(expand), graph.NewTransform(negExpand)},
	})
	if err != nil {
		return nil, err
	}
	iprod, err := BuildEnsemble(cfg, EnsembleSpec{
		Name:       "iprod",
		Capacity:   capacity,
		Tau:        cfg.SynapticTau,
		Transforms: []graph.Transform{graph.NewTransform(imagExpand), graph.NewTransform(imagExpand)},
	})
	if err != nil {
		return nil, err
	}
	invi := idftImag(d, scale)
	result, err := BuildEnsemble(cfg, EnsembleSpec{
		Name:       "result",
		Capacity:   capacity,
		Tau:        cfg.SynapticTau,
		Transforms: []graph.Transform{graph.NewTransform(idftReal(d, scale)), graph.NewTransform(invi.Scale(-1))},
	})
	if err != nil {
		return nil, err
	}
	for _, sub := range []*graph.Network{rprod, iprod, result} {
		if err := net.Add(sub); err != nil {
			return nil, err
		}
	}

	wiring := []struct {
		from *graph.Network
		to   *graph.Network
		port string
	}{
		{eprods[0], rprod, "in_0"},
		{eprods[1], rprod, "in_1"},
		{eprods[2], iprod, "in_0"},
		{eprods[3], iprod, "in_1"},
		{rprod, result, "in_0"},
		{iprod, result, "in_1"},
	}
	for _, w := range wiring {
		out, err := w.from.Output(graph.RawOutput)
		if err != nil {
			return nil, err
		}
		if err := connectNamed(net, out, w.to, w.port); err != nil {
			return nil, err
		}
	}

	if err := net.ExposeInput("A", aIn); err != nil {
		return nil, err
	}
	if err := net.ExposeInput("B", bIn); err != nil {
		return nil, err
	}
	x, err := result.Output(graph.RawOutput)
	if err != nil {
		return nil, err
	}
	if err := net.ExposeOutput(graph.RawOutput, x); err != nil {
		return nil, err
	}

	if cfg.ProbesEnabled {
		probes := map[string]graph.OutputRef{"A": aOut, "B": bOut, "result": x}
		for _, sub := range append(append([]*graph.Network{}, eprods...), rprod, iprod) {
			out, _ := sub.Output(graph.RawOutput)
			probes[sub.Name()] = out
		}
		for _, probe := range []string{"A", "B", "eprod0", "eprod1", "eprod2", "eprod3", "rprod", "iprod", "result"} {
			if _, err := net.Tap(probe, probes[probe]); err != nil {
				return nil, err
			}
		}
	}
	return net, nil
}

// connectNamed wires from into the exposed input port of sub.
func connectNamed(net *graph.Network, from graph.OutputRef, sub *graph.Network, port string) error {
	to, err := sub.Input(port)
	if err != nil {
		return err
	}
	return net.Connect(from, to)
}
