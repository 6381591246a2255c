package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/go-logr/logr"

	"hrrnet/internal/hrr"
)

func relayPair(t *testing.T, name string, d int) *Network {
	t.Helper()
	net := New(name, logr.Discard())
	in := NewRelay("in", d)
	inPort, err := in.AddInput("input", Identity(d, 1), 0.0001)
	if err != nil {
		t.Fatalf("add input: %v", err)
	}
	out := NewEnsemble("out", d, 10*d, Simulated)
	outPort, err := out.AddInput("in_0", Identity(d, 2), 0.007)
	if err != nil {
		t.Fatalf("add input: %v", err)
	}
	for _, node := range []*Node{in, out} {
		if err := net.AddNode(node); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	src, _ := in.Output(RawOutput)
	if err := net.Connect(src, outPort); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := net.ExposeInput("input", inPort); err != nil {
		t.Fatalf("expose input: %v", err)
	}
	x, _ := out.Output(RawOutput)
	if err := net.ExposeOutput("X", x); err != nil {
		t.Fatalf("expose output: %v", err)
	}
	return net
}

func TestPortLookup(t *testing.T) {
	net := relayPair(t, "pair", 3)

	if _, err := net.Input("input"); err != nil {
		t.Fatalf("input lookup: %v", err)
	}
	if _, err := net.Input("A"); !errors.Is(err, ErrPortNotFound) {
		t.Fatalf("expected ErrPortNotFound, got: %v", err)
	}
	if _, err := net.Output("T"); !errors.Is(err, ErrPortNotFound) {
		t.Fatalf("expected ErrPortNotFound, got: %v", err)
	}
	node, err := net.Node("out")
	if err != nil {
		t.Fatalf("node lookup: %v", err)
	}
	if _, err := node.Input("missing"); !errors.Is(err, ErrPortNotFound) {
		t.Fatalf("expected ErrPortNotFound, got: %v", err)
	}
	if _, err := node.AddInput("in_0", Identity(3, 1), 0); !errors.Is(err, ErrPortExists) {
		t.Fatalf("expected ErrPortExists, got: %v", err)
	}
}

func TestModeFixedAfterConnection(t *testing.T) {
	net := relayPair(t, "pair", 2)
	out, _ := net.Node("out")
	if err := out.SetMode(Idealized); !errors.Is(err, ErrModeFixed) {
		t.Fatalf("expected ErrModeFixed after connection, got: %v", err)
	}
	in, _ := net.Node("in")
	if err := in.SetMode(Simulated); !errors.Is(err, ErrModeFixed) {
		t.Fatalf("expected ErrModeFixed for relay, got: %v", err)
	}

	loose := NewEnsemble("loose", 2, 20, Simulated)
	if err := loose.SetMode(Idealized); err != nil {
		t.Fatalf("set mode before connection: %v", err)
	}
	if loose.Mode() != Idealized {
		t.Fatalf("unexpected mode: %s", loose.Mode())
	}
}

func TestConnectRejectsCyclesAndDoubleWiring(t *testing.T) {
	net := New("cyc", logr.Discard())
	a := NewRelay("a", 1)
	b := NewRelay("b", 1)
	aIn, _ := a.AddInput("in", Identity(1, 1), 0)
	bIn, _ := b.AddInput("in", Identity(1, 1), 0)
	bIn2, _ := b.AddInput("in2", Identity(1, 1), 0)
	_ = net.AddNode(a)
	_ = net.AddNode(b)
	aOut, _ := a.Output(RawOutput)
	bOut, _ := b.Output(RawOutput)

	if err := net.Connect(aOut, bIn); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := net.Connect(aOut, bIn); !errors.Is(err, ErrPortConnected) {
		t.Fatalf("expected ErrPortConnected, got: %v", err)
	}
	if err := net.Connect(bOut, aIn); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got: %v", err)
	}
	if err := net.Connect(bOut, bIn2); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle for self loop, got: %v", err)
	}
	if err := net.AddNode(NewRelay("a", 1)); !errors.Is(err, ErrNodeExists) {
		t.Fatalf("expected ErrNodeExists, got: %v", err)
	}
}

func TestAdoptSubNetwork(t *testing.T) {
	sub := relayPair(t, "sub", 2)
	parent := New("parent", logr.Discard())
	src := NewRelay("src", 2)
	_ = parent.AddNode(src)

	if err := parent.Add(sub); err != nil {
		t.Fatalf("adopt: %v", err)
	}
	if _, err := parent.Node("sub/out"); err != nil {
		t.Fatalf("expected prefixed node: %v", err)
	}
	subIn, err := sub.Input("input")
	if err != nil {
		t.Fatalf("sub input: %v", err)
	}
	srcOut, _ := src.Output(RawOutput)
	if err := parent.Connect(srcOut, subIn); err != nil {
		t.Fatalf("connect into adopted network: %v", err)
	}
	if got := len(parent.Connections()); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}
	if err := sub.AddNode(NewRelay("late", 2)); !errors.Is(err, ErrAdopted) {
		t.Fatalf("expected ErrAdopted, got: %v", err)
	}
	if err := parent.Add(sub); !errors.Is(err, ErrAdopted) {
		t.Fatalf("expected ErrAdopted on second adoption, got: %v", err)
	}

	order, err := parent.TopologicalOrder()
	if err != nil {
		t.Fatalf("topological order: %v", err)
	}
	pos := map[string]int{}
	for i, node := range order {
		pos[parent.Path(node)] = i
	}
	if !(pos["src"] < pos["sub/in"] && pos["sub/in"] < pos["sub/out"]) {
		t.Fatalf("unexpected order: %+v", pos)
	}
}

func TestReloadSwapsSignalsAndResetsTaps(t *testing.T) {
	net := New("slots", logr.Discard())
	slot, err := net.AddSlot("sig", NewConstant(hrr.Vector{1, 0}))
	if err != nil {
		t.Fatalf("add slot: %v", err)
	}
	sink := NewRelay("sink", 2)
	sinkIn, _ := sink.AddInput("input", Identity(2, 1), 0)
	_ = net.AddNode(sink)
	if err := net.Connect(slot.Output(), sinkIn); err != nil {
		t.Fatalf("connect: %v", err)
	}
	tap, err := net.Tap("sink", OutputRef{node: sink, port: RawOutput})
	if err != nil {
		t.Fatalf("tap: %v", err)
	}
	tap.Record(0.1, hrr.Vector{1, 0})

	before := len(net.Connections())
	if err := net.Reload(map[string]Signal{"sig": NewConstant(hrr.Vector{0, 1})}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := len(net.Connections()); got != before {
		t.Fatalf("reload changed connection count: %d -> %d", before, got)
	}
	if got := slot.Signal().Value(0); got[1] != 1 {
		t.Fatalf("signal not swapped: %+v", got)
	}
	if _, ok := tap.Last(); ok {
		t.Fatal("expected taps to be reset")
	}
	if err := net.Reload(map[string]Signal{"other": NewConstant(hrr.Vector{0, 1})}); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got: %v", err)
	}
}

func TestPiecewiseSignal(t *testing.T) {
	sig := Sequence(0.2, []hrr.Vector{{1}, {2}, {3}})
	tests := []struct {
		t    float64
		want float64
	}{
		{0, 1}, {0.19, 1}, {0.2, 2}, {0.5, 3}, {0.61, 0}, {9, 0},
	}
	for _, tc := range tests {
		if got := sig.Value(tc.t)[0]; got != tc.want {
			t.Fatalf("value at %f: got=%f want=%f", tc.t, got, tc.want)
		}
	}
}

func TestMultiplicationEncoders(t *testing.T) {
	enc := MultiplicationEncoders(4)
	want := [][]float64{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}
	for i, e := range enc {
		for j := range e {
			if math.Abs(e[j]-want[i][j]/math.Sqrt2) > 1e-12 {
				t.Fatalf("encoder %d: got=%v", i, e)
			}
		}
	}
}

func TestReloadRejectsNilSignal(t *testing.T) {
	net := New("slots", logr.Discard())
	slot, err := net.AddSlot("sig", NewConstant(hrr.Vector{1, 0}))
	if err != nil {
		t.Fatalf("add slot: %v", err)
	}
	other, err := net.AddSlot("other", NewConstant(hrr.Vector{0, 1}))
	if err != nil {
		t.Fatalf("add slot: %v", err)
	}

	err = net.Reload(map[string]Signal{"sig": nil, "other": NewConstant(hrr.Vector{5, 5})})
	if err == nil {
		t.Fatal("expected nil signal to be rejected")
	}
	if got := slot.Signal().Value(0); got[0] != 1 {
		t.Fatalf("slot changed after failed reload: %+v", got)
	}
	if got := other.Signal().Value(0); got[1] != 1 {
		t.Fatalf("slot changed after failed reload: %+v", got)
	}
}

func TestDescribeRecordsMultiplicationEncoders(t *testing.T) {
	net := New("mul", logr.Discard())
	mpop := NewEnsemble("mpop", 2, 6, Idealized)
	mpop.SetEncoding(EncodingMultiplication)
	if _, err := mpop.AddInput("input", Identity(2, 1), 0); err != nil {
		t.Fatalf("add input: %v", err)
	}
	plain := NewEnsemble("plain", 2, 6, Idealized)
	if err := net.AddNode(mpop); err != nil {
		t.Fatalf("add node: %v", err)
	}
	if err := net.AddNode(plain); err != nil {
		t.Fatalf("add node: %v", err)
	}

	rec := Describe(net)
	enc := rec.Nodes[0].Encoders
	if len(enc) != 6 {
		t.Fatalf("expected 6 encoders, got %d", len(enc))
	}
	want := MultiplicationEncoders(6)
	for i := range enc {
		if enc[i][0] != want[i][0] || enc[i][1] != want[i][1] {
			t.Fatalf("encoder %d: got=%v want=%v", i, enc[i], want[i])
		}
		if math.Abs(math.Abs(enc[i][0])-math.Sqrt2/2) > 1e-12 {
			t.Fatalf("encoder %d is not diagonal: %v", i, enc[i])
		}
	}
	if rec.Nodes[1].Encoders != nil {
		t.Fatalf("isotropic node should not record encoders: %+v", rec.Nodes[1].Encoders)
	}
}

func TestDescribe(t *testing.T) {
	net := relayPair(t, "pair", 2)
	rec := Describe(net)
	if rec.Name != "pair" || len(rec.Nodes) != 2 || len(rec.Connections) != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Inputs[0].Name != "input" || rec.Outputs[0].Node != "out" {
		t.Fatalf("unexpected exposed ports: %+v %+v", rec.Inputs, rec.Outputs)
	}
	if rec.Nodes[1].Inputs[0].Weights[1][1] != 2 {
		t.Fatalf("weights not recorded: %+v", rec.Nodes[1].Inputs)
	}
}
