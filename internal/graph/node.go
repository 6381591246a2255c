package graph

import (
	"errors"
	"fmt"
	"math"

	"hrrnet/internal/hrr"
)

var (
	ErrPortNotFound = errors.New("port not found")
	ErrPortExists   = errors.New("port already declared")
	ErrModeFixed    = errors.New("node mode is fixed")
)

// RawOutput is the port every node exposes with its represented vector.
const RawOutput = "X"

// InputPort is a decoded termination: the incoming vector is multiplied by
// Transform and low-pass filtered with time constant Tau.
type InputPort struct {
	Name      string
	Transform Transform
	Tau       float64
}

// OutputPort is a decoded origin. A port without functions carries the raw
// represented vector.
type OutputPort struct {
	Name  string
	Funcs []OutputFunc
}

// Node is a computational unit of a network: a population of the given
// capacity representing a vector of the given dimension.
type Node struct {
	name     string
	kind     Kind
	dim      int
	capacity int
	mode     Mode
	fixed    bool
	encoding Encoding

	inputs      []*InputPort
	inputIndex  map[string]int
	outputs     []*OutputPort
	outputIndex map[string]int

	signal    Signal
	owner     *Network
	connected bool
}

// NewEnsemble creates a bounded-capacity population. Its mode can still be
// changed until the first connection touches it.
func NewEnsemble(name string, dim, capacity int, mode Mode) *Node {
	n := newNode(name, KindEnsemble, dim)
	n.capacity = capacity
	n.mode = mode
	n.encoding = EncodingIsotropic
	return n
}

// NewRelay creates a pass-through node. Relays exist only for modularity and
// are always evaluated exactly.
func NewRelay(name string, dim int) *Node {
	n := newNode(name, KindRelay, dim)
	n.capacity = 1
	n.mode = Idealized
	n.fixed = true
	return n
}

// NewSignalNode creates an input-signal node emitting sig on its raw output.
func NewSignalNode(name string, sig Signal) *Node {
	n := newNode(name, KindSignal, sig.Dimension())
	n.mode = Idealized
	n.fixed = true
	n.signal = sig
	return n
}

func newNode(name string, kind Kind, dim int) *Node {
	n := &Node{
		name:        name,
		kind:        kind,
		dim:         dim,
		inputIndex:  make(map[string]int),
		outputIndex: make(map[string]int),
	}
	n.outputs = []*OutputPort{{Name: RawOutput}}
	n.outputIndex[RawOutput] = 0
	return n
}

func (n *Node) Name() string       { return n.name }
func (n *Node) Kind() Kind         { return n.kind }
func (n *Node) Dimension() int     { return n.dim }
func (n *Node) Capacity() int      { return n.capacity }
func (n *Node) Mode() Mode         { return n.mode }
func (n *Node) Fixed() bool        { return n.fixed }
func (n *Node) Encoding() Encoding { return n.encoding }
func (n *Node) Signal() Signal     { return n.signal }

// SetEncoding selects the encoder assignment. Multiplication encoders bias
// the population toward the diagonal directions of a 2-D product space.
func (n *Node) SetEncoding(e Encoding) {
	n.encoding = e
}

// SetMode switches the execution mode. It fails on relays, on nodes whose
// mode was fixed, and once the node takes part in a connection.
func (n *Node) SetMode(m Mode) error {
	if n.fixed {
		return fmt.Errorf("%w: %s", ErrModeFixed, n.name)
	}
	if n.connected {
		return fmt.Errorf("%w: %s is already connected", ErrModeFixed, n.name)
	}
	n.mode = m
	return nil
}

// FixMode forbids later mode changes.
func (n *Node) FixMode() {
	n.fixed = true
}

// AddInput declares an input port and returns its handle.
func (n *Node) AddInput(name string, t Transform, tau float64) (InputRef, error) {
	if n.kind == KindSignal {
		return InputRef{}, fmt.Errorf("signal node %s has no inputs", n.name)
	}
	if name == "" {
		return InputRef{}, errors.New("input port name is required")
	}
	if _, exists := n.inputIndex[name]; exists {
		return InputRef{}, fmt.Errorf("%w: %s.%s", ErrPortExists, n.name, name)
	}
	n.inputIndex[name] = len(n.inputs)
	n.inputs = append(n.inputs, &InputPort{Name: name, Transform: t, Tau: tau})
	return InputRef{node: n, port: name}, nil
}

// AddOutput declares a decoded output computing funcs of the represented
// vector.
func (n *Node) AddOutput(name string, funcs []OutputFunc) (OutputRef, error) {
	if name == "" {
		return OutputRef{}, errors.New("output port name is required")
	}
	if _, exists := n.outputIndex[name]; exists {
		return OutputRef{}, fmt.Errorf("%w: %s.%s", ErrPortExists, n.name, name)
	}
	n.outputIndex[name] = len(n.outputs)
	n.outputs = append(n.outputs, &OutputPort{Name: name, Funcs: append([]OutputFunc(nil), funcs...)})
	return OutputRef{node: n, port: name}, nil
}

// Input looks up a declared input port.
func (n *Node) Input(name string) (InputRef, error) {
	if _, ok := n.inputIndex[name]; !ok {
		return InputRef{}, fmt.Errorf("%w: input %s.%s", ErrPortNotFound, n.name, name)
	}
	return InputRef{node: n, port: name}, nil
}

// Output looks up a declared output port.
func (n *Node) Output(name string) (OutputRef, error) {
	if _, ok := n.outputIndex[name]; !ok {
		return OutputRef{}, fmt.Errorf("%w: output %s.%s", ErrPortNotFound, n.name, name)
	}
	return OutputRef{node: n, port: name}, nil
}

// Inputs returns the input ports in declaration order.
func (n *Node) Inputs() []InputPort {
	out := make([]InputPort, len(n.inputs))
	for i, p := range n.inputs {
		out[i] = *p
	}
	return out
}

// Outputs returns the output ports in declaration order, raw output first.
func (n *Node) Outputs() []OutputPort {
	out := make([]OutputPort, len(n.outputs))
	for i, p := range n.outputs {
		out[i] = *p
	}
	return out
}

func (n *Node) inputPort(name string) *InputPort {
	idx, ok := n.inputIndex[name]
	if !ok {
		return nil
	}
	return n.inputs[idx]
}

func (n *Node) outputPort(name string) *OutputPort {
	idx, ok := n.outputIndex[name]
	if !ok {
		return nil
	}
	return n.outputs[idx]
}

// OutputDimension is the width of the named output port.
func (n *Node) OutputDimension(name string) int {
	p := n.outputPort(name)
	if p == nil {
		return 0
	}
	if len(p.Funcs) == 0 {
		return n.dim
	}
	return len(p.Funcs)
}

// Decode evaluates the named output port on a represented vector.
func (n *Node) Decode(port string, x hrr.Vector) (hrr.Vector, error) {
	p := n.outputPort(port)
	if p == nil {
		return nil, fmt.Errorf("%w: output %s.%s", ErrPortNotFound, n.name, port)
	}
	if len(p.Funcs) == 0 {
		return x.Clone(), nil
	}
	out := make(hrr.Vector, len(p.Funcs))
	for i, fn := range p.Funcs {
		v, err := fn.Eval(x)
		if err != nil {
			return nil, fmt.Errorf("node %s output %s func %s: %w", n.name, port, fn, err)
		}
		out[i] = v
	}
	return out, nil
}

// InputRef is a validated handle to an input port.
type InputRef struct {
	node *Node
	port string
}

func (r InputRef) Node() *Node  { return r.node }
func (r InputRef) Port() string { return r.port }
func (r InputRef) Valid() bool  { return r.node != nil }

// Transform returns the weight declared on the referenced port.
func (r InputRef) Transform() Transform {
	return r.node.inputPort(r.port).Transform
}

// Tau returns the smoothing time constant declared on the referenced port.
func (r InputRef) Tau() float64 {
	return r.node.inputPort(r.port).Tau
}

// OutputRef is a validated handle to an output port.
type OutputRef struct {
	node *Node
	port string
}

func (r OutputRef) Node() *Node  { return r.node }
func (r OutputRef) Port() string { return r.port }
func (r OutputRef) Valid() bool  { return r.node != nil }

func (r OutputRef) Dimension() int {
	return r.node.OutputDimension(r.port)
}

// SplitCapacity is the per-dimension capacity ceil(capacity/d).
func SplitCapacity(capacity, d int) int {
	if d <= 0 {
		return capacity
	}
	return int(math.Ceil(float64(capacity) / float64(d)))
}

// MultiplicationEncoders returns n unit encoders cycling through the four
// diagonal directions of the plane, starting at 45 degrees.
func MultiplicationEncoders(n int) [][]float64 {
	out := make([][]float64, n)
	angle := math.Pi / 4
	for i := range out {
		out[i] = []float64{math.Cos(angle), math.Sin(angle)}
		angle = math.Mod(angle+math.Pi/2, 2*math.Pi)
	}
	return out
}
