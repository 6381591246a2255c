package networks

import (
	"fmt"

	"hrrnet/internal/config"
	"hrrnet/internal/graph"
	"hrrnet/internal/hrr"
)

// BuildTransform compiles the transformation from A to B, the convolution of
// the approximate inverse of A with B. Exposed ports: inputs A and B,
// output T.
func BuildTransform(cfg config.Config, name string, capacity, d int) (*graph.Network, error) {
	net := graph.New(name, cfg.Logger)

	ainv, err := BuildEnsemble(cfg, EnsembleSpec{
		Name:       "Ainv",
		Capacity:   capacity,
		Tau:        cfg.SynapticTau,
		Transforms: []graph.Transform{graph.NewTransform(hrr.InverseMatrix(d))},
	})
	if err != nil {
		return nil, err
	}
	b, err := BuildEnsemble(cfg, EnsembleSpec{
		Name:       "B",
		Capacity:   capacity,
		Tau:        cfg.SynapticTau,
		Transforms: []graph.Transform{graph.Identity(d, 1)},
	})
	if err != nil {
		return nil, err
	}
	corr, err := BuildConvolution(cfg, "corr", capacity, d)
	if err != nil {
		return nil, err
	}
	for _, sub := range []*graph.Network{ainv, b, corr} {
		if err := net.Add(sub); err != nil {
			return nil, fmt.Errorf("build transform %s: %w", name, err)
		}
	}

	ainvOut, _ := ainv.Output(graph.RawOutput)
	bOut, _ := b.Output(graph.RawOutput)
	if err := connectNamed(net, ainvOut, corr, "A"); err != nil {
		return nil, err
	}
	if err := connectNamed(net, bOut, corr, "B"); err != nil {
		return nil, err
	}

	aIn, _ := ainv.Input("in_0")
	bIn, _ := b.Input("in_0")
	if err := net.ExposeInput("A", aIn); err != nil {
		return nil, err
	}
	if err := net.ExposeInput("B", bIn); err != nil {
		return nil, err
	}
	t, err := corr.Output(graph.RawOutput)
	if err != nil {
		return nil, err
	}
	if err := net.ExposeOutput("T", t); err != nil {
		return nil, err
	}

	if cfg.ProbesEnabled {
		for probe, ref := range map[string]graph.OutputRef{"Ainv": ainvOut, "B": bOut} {
			if _, err := net.Tap(probe, ref); err != nil {
				return nil, err
			}
		}
		if _, err := net.Tap("T", t); err != nil {
			return nil, err
		}
	}
	return net, nil
}
