package networks

import (
	"errors"
	"fmt"

	"hrrnet/internal/config"
	"hrrnet/internal/graph"
	"hrrnet/internal/hrr"
)

// SimilarityScale weighs each candidate's dot product in the combined output.
const SimilarityScale = 0.1

// neuronsPerCandidate sizes the combine population.
const neuronsPerCandidate = 100

// BuildSimilarity compiles a network whose output component i is
// SimilarityScale * (candidates[i] . hypothesis). Exposed ports: input
// hypothesis, output result.
func BuildSimilarity(cfg config.Config, name string, capacity, d int, candidates []hrr.Vector) (*graph.Network, error) {
	if len(candidates) == 0 {
		return nil, errors.New("similarity needs at least one candidate")
	}
	net := graph.New(name, cfg.Logger)
	k := len(candidates)

	hypothesis := graph.NewRelay("hypothesis", d)
	hIn, err := hypothesis.AddInput("input", graph.Identity(d, 1), cfg.RelayTau)
	if err != nil {
		return nil, err
	}
	combine := graph.NewEnsemble("combine", k, neuronsPerCandidate*k, cfg.Mode)
	for _, node := range []*graph.Node{hypothesis, combine} {
		if err := net.AddNode(node); err != nil {
			return nil, err
		}
	}
	hOut, _ := hypothesis.Output(graph.RawOutput)

	small := graph.SplitCapacity(capacity, d)
	for i, candidate := range candidates {
		if len(candidate) != d {
			net.Logger().Error(hrr.ErrDimensionMismatch, "candidate width differs from hypothesis",
				"candidate", i, "width", len(candidate), "dimension", d)
		}
		ans := graph.NewEnsemble(fmt.Sprintf("ans_%d", i), 1, small, cfg.Mode)
		port, err := ans.AddInput("input", graph.RowTransform(candidate), cfg.SynapticTau)
		if err != nil {
			return nil, err
		}
		if err := net.AddNode(ans); err != nil {
			return nil, err
		}
		if err := net.Connect(hOut, port); err != nil {
			return nil, err
		}

		cport, err := combine.AddInput(inPort(i), graph.NewTransform(column(k, i, SimilarityScale)), cfg.SynapticTau)
		if err != nil {
			return nil, err
		}
		aOut, _ := ans.Output(graph.RawOutput)
		if err := net.Connect(aOut, cport); err != nil {
			return nil, err
		}
	}

	if err := net.ExposeInput("hypothesis", hIn); err != nil {
		return nil, err
	}
	result, _ := combine.Output(graph.RawOutput)
	if err := net.ExposeOutput("result", result); err != nil {
		return nil, err
	}
	if cfg.ProbesEnabled {
		if _, err := net.Tap("combine", result); err != nil {
			return nil, err
		}
	}
	return net, nil
}
