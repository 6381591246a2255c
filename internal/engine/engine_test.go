package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-logr/logr"

	"hrrnet/internal/graph"
	"hrrnet/internal/hrr"
)

// chain builds input relay -> ensemble(identity*gain, tau) -> exposed X.
func chain(t *testing.T, d int, gain, tau float64, mode graph.Mode) *graph.Network {
	t.Helper()
	net := graph.New("chain", logr.Discard())
	in := graph.NewRelay("in", d)
	inPort, err := in.AddInput("input", graph.Identity(d, 1), 0.0001)
	if err != nil {
		t.Fatalf("add input: %v", err)
	}
	pop := graph.NewEnsemble("pop", d, 100, mode)
	popIn, err := pop.AddInput("in_0", graph.Identity(d, gain), tau)
	if err != nil {
		t.Fatalf("add input: %v", err)
	}
	for _, node := range []*graph.Node{in, pop} {
		if err := net.AddNode(node); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	src, _ := in.Output(graph.RawOutput)
	if err := net.Connect(src, popIn); err != nil {
		t.Fatalf("connect: %v", err)
	}
	_ = net.ExposeInput("input", inPort)
	x, _ := pop.Output(graph.RawOutput)
	_ = net.ExposeOutput("X", x)
	if _, err := net.Tap("pop", x); err != nil {
		t.Fatalf("tap: %v", err)
	}
	return net
}

func TestEvaluateIdealized(t *testing.T) {
	net := chain(t, 3, 2, 0.007, graph.Idealized)
	res, err := Evaluate(net, map[string]hrr.Vector{"input": {1, -1, 0.5}}, Options{NoiseScale: 1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	out, err := res.Output("X")
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	want := hrr.Vector{2, -2, 1}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("idealized output must be exact: got=%v want=%v", out, want)
		}
	}
	if _, err := res.Output("Y"); !errors.Is(err, graph.ErrPortNotFound) {
		t.Fatalf("expected ErrPortNotFound, got: %v", err)
	}
}

func TestEvaluateSimulatedSaturatesAndIsSeeded(t *testing.T) {
	net := chain(t, 3, 2, 0.007, graph.Simulated)
	inputs := map[string]hrr.Vector{"input": {1, -1, 0.5}}

	quiet, err := Evaluate(net, inputs, Options{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	out, _ := quiet.Output("X")
	if math.Abs(hrr.Length(out)-1) > 1e-12 {
		t.Fatalf("expected saturation onto the unit ball, got length %f", hrr.Length(out))
	}

	first, _ := Evaluate(net, inputs, Options{NoiseScale: 0.5, Seed: 9})
	second, _ := Evaluate(net, inputs, Options{NoiseScale: 0.5, Seed: 9})
	a, _ := first.Output("X")
	b, _ := second.Output("X")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed must give the same noise: %v vs %v", a, b)
		}
	}
	if hrr.Length(hrr.Sub(a, out)) == 0 {
		t.Fatal("expected noise to perturb the output")
	}
}

func TestEvaluateRejectsUnknownInput(t *testing.T) {
	net := chain(t, 2, 1, 0.007, graph.Idealized)
	if _, err := Evaluate(net, map[string]hrr.Vector{"cue": {1, 0}}, Options{}); !errors.Is(err, graph.ErrPortNotFound) {
		t.Fatalf("expected ErrPortNotFound, got: %v", err)
	}
}

func TestEvaluateUnknownKernel(t *testing.T) {
	net := graph.New("bad", logr.Discard())
	node := graph.NewEnsemble("pop", 1, 10, graph.Idealized)
	if _, err := node.AddOutput("out", []graph.OutputFunc{{Kernel: "cube", Args: []int{0}}}); err != nil {
		t.Fatalf("add output: %v", err)
	}
	_ = net.AddNode(node)
	if _, err := Evaluate(net, nil, Options{}); !errors.Is(err, graph.ErrKernelNotFound) {
		t.Fatalf("expected ErrKernelNotFound, got: %v", err)
	}
}

func TestRunLowPassFilter(t *testing.T) {
	net := chain(t, 1, 0.5, 0.01, graph.Idealized)
	res, err := Run(context.Background(), net, map[string]hrr.Vector{"input": {1}}, RunOptions{Dt: 0.001, Duration: 0.1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Steps != 100 {
		t.Fatalf("unexpected step count: %d", res.Steps)
	}
	out, _ := res.Output("X")
	// 0.5 * (1 - 0.9^100)
	want := 0.5 * (1 - math.Pow(0.9, 100))
	if math.Abs(out[0]-want) > 1e-12 {
		t.Fatalf("unexpected filtered value: got=%f want=%f", out[0], want)
	}

	tap := net.Taps()[0]
	samples := tap.Samples()
	if len(samples) != 100 {
		t.Fatalf("expected one sample per step, got %d", len(samples))
	}
	if samples[0].Value[0] >= samples[99].Value[0] {
		t.Fatalf("filtered value should rise: first=%f last=%f", samples[0].Value[0], samples[99].Value[0])
	}
	if math.Abs(samples[0].Value[0]-0.05) > 1e-12 {
		t.Fatalf("first step should move dt/tau of the way: %f", samples[0].Value[0])
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	net := chain(t, 1, 1, 0.01, graph.Idealized)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, net, map[string]hrr.Vector{"input": {1}}, RunOptions{Duration: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
}

func TestSaturate(t *testing.T) {
	tests := []struct {
		name string
		in   hrr.Vector
		want hrr.Vector
	}{
		{name: "inside", in: hrr.Vector{0.3, 0.4}, want: hrr.Vector{0.3, 0.4}},
		{name: "outside", in: hrr.Vector{3, 4}, want: hrr.Vector{0.6, 0.8}},
		{name: "scalar", in: hrr.Vector{-2}, want: hrr.Vector{-1}},
		{name: "zero", in: hrr.Vector{0, 0}, want: hrr.Vector{0, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Saturate(tc.in, 1)
			for i := range tc.want {
				if math.Abs(got[i]-tc.want[i]) > 1e-12 {
					t.Fatalf("got=%v want=%v", got, tc.want)
				}
			}
		})
	}
	if SaturationWithSpread(5, -2) != 2 {
		t.Fatal("negative spread should be mirrored")
	}
}
