package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"hrrnet/internal/hrr"
)

var (
	ErrNodeExists        = errors.New("node already exists")
	ErrNodeNotFound      = errors.New("node not found")
	ErrPortConnected     = errors.New("input port already connected")
	ErrCycle             = errors.New("connection would create a cycle")
	ErrAdopted           = errors.New("network already adopted by a parent")
	ErrSlotNotFound      = errors.New("slot not found")
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Connection is a directed edge from an output port to an input port. The
// weight and smoothing constant are those declared on the destination port.
type Connection struct {
	From OutputRef
	To   InputRef
}

func (c Connection) Transform() Transform { return c.To.Transform() }
func (c Connection) Tau() float64         { return c.To.Tau() }

// Network is a DAG of nodes with a set of exposed ports. A network can be
// adopted by a larger one, in which case its nodes are re-registered under
// "<name>/" and its port handles stay valid.
type Network struct {
	name   string
	logger logr.Logger

	nodes  []*Node
	byPath map[string]*Node
	paths  map[*Node]string

	conns    []Connection
	incoming map[*Node]map[string]Connection
	outgoing map[*Node][]*Node

	inputNames  []string
	inputs      map[string]InputRef
	outputNames []string
	outputs     map[string]OutputRef

	slotNames []string
	slots     map[string]*Slot
	taps      []*Tap

	adopted bool
}

func New(name string, logger logr.Logger) *Network {
	return &Network{
		name:     name,
		logger:   logger.WithValues("network", name),
		byPath:   make(map[string]*Node),
		paths:    make(map[*Node]string),
		incoming: make(map[*Node]map[string]Connection),
		outgoing: make(map[*Node][]*Node),
		inputs:   make(map[string]InputRef),
		outputs:  make(map[string]OutputRef),
		slots:    make(map[string]*Slot),
	}
}

func (n *Network) Name() string        { return n.name }
func (n *Network) Logger() logr.Logger { return n.logger }

// AddNode registers node under its own name.
func (n *Network) AddNode(node *Node) error {
	if n.adopted {
		return fmt.Errorf("%w: %s", ErrAdopted, n.name)
	}
	if node == nil {
		return errors.New("node is required")
	}
	if node.owner != nil {
		return fmt.Errorf("%w: %s already belongs to %s", ErrNodeExists, node.name, node.owner.name)
	}
	return n.register(node.name, node)
}

func (n *Network) register(path string, node *Node) error {
	if _, exists := n.byPath[path]; exists {
		return fmt.Errorf("%w: %s", ErrNodeExists, path)
	}
	node.owner = n
	n.nodes = append(n.nodes, node)
	n.byPath[path] = node
	n.paths[node] = path
	return nil
}

// Add adopts sub as a component of n. sub must not be modified afterwards.
func (n *Network) Add(sub *Network) error {
	if n.adopted {
		return fmt.Errorf("%w: %s", ErrAdopted, n.name)
	}
	if sub == nil || sub == n {
		return errors.New("invalid sub-network")
	}
	if sub.adopted {
		return fmt.Errorf("%w: %s", ErrAdopted, sub.name)
	}
	prefix := sub.name + "/"
	for _, node := range sub.nodes {
		if _, exists := n.byPath[prefix+sub.paths[node]]; exists {
			return fmt.Errorf("%w: %s", ErrNodeExists, prefix+sub.paths[node])
		}
	}
	for _, node := range sub.nodes {
		node.owner = nil
		if err := n.register(prefix+sub.paths[node], node); err != nil {
			return err
		}
	}
	for _, c := range sub.conns {
		n.addConnection(c)
	}
	for _, name := range sub.slotNames {
		n.slotNames = append(n.slotNames, prefix+name)
		n.slots[prefix+name] = sub.slots[name]
	}
	for _, tap := range sub.taps {
		tap.name = prefix + tap.name
		n.taps = append(n.taps, tap)
	}
	sub.adopted = true
	return nil
}

// Connect wires from into to. Shape disagreements are logged and the edge is
// still created; the computed values are then meaningless.
func (n *Network) Connect(from OutputRef, to InputRef) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: invalid port handle", ErrPortNotFound)
	}
	if from.node.owner != n {
		return fmt.Errorf("%w: %s is not part of %s", ErrNodeNotFound, from.node.name, n.name)
	}
	if to.node.owner != n {
		return fmt.Errorf("%w: %s is not part of %s", ErrNodeNotFound, to.node.name, n.name)
	}
	if _, taken := n.incoming[to.node][to.port]; taken {
		return fmt.Errorf("%w: %s.%s", ErrPortConnected, n.paths[to.node], to.port)
	}
	if from.node == to.node || n.reachable(to.node, from.node) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, n.paths[from.node], n.paths[to.node])
	}

	t := to.Transform()
	if t.Cols() != from.Dimension() {
		n.logger.Error(ErrDimensionMismatch, "transform columns do not match source width",
			"from", n.paths[from.node], "to", n.paths[to.node], "port", to.port,
			"cols", t.Cols(), "source", from.Dimension())
	}
	if t.Rows() != to.node.dim {
		n.logger.Error(ErrDimensionMismatch, "transform rows do not match node dimension",
			"to", n.paths[to.node], "port", to.port, "rows", t.Rows(), "dimension", to.node.dim)
	}

	n.addConnection(Connection{From: from, To: to})
	from.node.connected = true
	to.node.connected = true
	return nil
}

func (n *Network) addConnection(c Connection) {
	n.conns = append(n.conns, c)
	ports, ok := n.incoming[c.To.node]
	if !ok {
		ports = make(map[string]Connection)
		n.incoming[c.To.node] = ports
	}
	ports[c.To.port] = c
	n.outgoing[c.From.node] = append(n.outgoing[c.From.node], c.To.node)
}

func (n *Network) reachable(start, target *Node) bool {
	seen := map[*Node]bool{start: true}
	stack := []*Node{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		for _, next := range n.outgoing[cur] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// ExposeInput publishes an internal input port under name.
func (n *Network) ExposeInput(name string, ref InputRef) error {
	if !ref.Valid() || ref.node.owner != n {
		return fmt.Errorf("%w: cannot expose %s", ErrPortNotFound, name)
	}
	if _, exists := n.inputs[name]; exists {
		return fmt.Errorf("%w: exposed input %s", ErrPortExists, name)
	}
	n.inputNames = append(n.inputNames, name)
	n.inputs[name] = ref
	return nil
}

// ExposeOutput publishes an internal output port under name.
func (n *Network) ExposeOutput(name string, ref OutputRef) error {
	if !ref.Valid() || ref.node.owner != n {
		return fmt.Errorf("%w: cannot expose %s", ErrPortNotFound, name)
	}
	if _, exists := n.outputs[name]; exists {
		return fmt.Errorf("%w: exposed output %s", ErrPortExists, name)
	}
	n.outputNames = append(n.outputNames, name)
	n.outputs[name] = ref
	return nil
}

// Input resolves an exposed input port.
func (n *Network) Input(name string) (InputRef, error) {
	ref, ok := n.inputs[name]
	if !ok {
		return InputRef{}, fmt.Errorf("%w: network %s input %s", ErrPortNotFound, n.name, name)
	}
	return ref, nil
}

// Output resolves an exposed output port.
func (n *Network) Output(name string) (OutputRef, error) {
	ref, ok := n.outputs[name]
	if !ok {
		return OutputRef{}, fmt.Errorf("%w: network %s output %s", ErrPortNotFound, n.name, name)
	}
	return ref, nil
}

func (n *Network) InputNames() []string  { return append([]string(nil), n.inputNames...) }
func (n *Network) OutputNames() []string { return append([]string(nil), n.outputNames...) }

// Node resolves a node by path, e.g. "eprod0/mpop_3".
func (n *Network) Node(path string) (*Node, error) {
	node, ok := n.byPath[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, path)
	}
	return node, nil
}

// Nodes returns the nodes in insertion order.
func (n *Network) Nodes() []*Node {
	return append([]*Node(nil), n.nodes...)
}

// Path returns the registered path of node, or "" when it is not a member.
func (n *Network) Path(node *Node) string {
	return n.paths[node]
}

func (n *Network) Connections() []Connection {
	return append([]Connection(nil), n.conns...)
}

// Incoming returns the connection feeding the given port, if any.
func (n *Network) Incoming(ref InputRef) (Connection, bool) {
	c, ok := n.incoming[ref.node][ref.port]
	return c, ok
}

// TopologicalOrder returns the nodes so that every node follows its sources.
func (n *Network) TopologicalOrder() ([]*Node, error) {
	indegree := make(map[*Node]int, len(n.nodes))
	for _, c := range n.conns {
		indegree[c.To.node]++
	}
	queue := make([]*Node, 0, len(n.nodes))
	for _, node := range n.nodes {
		if indegree[node] == 0 {
			queue = append(queue, node)
		}
	}
	order := make([]*Node, 0, len(n.nodes))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, next := range n.outgoing[cur] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if len(order) != len(n.nodes) {
		return nil, fmt.Errorf("%w in %s", ErrCycle, n.name)
	}
	return order, nil
}

// Stats summarizes the graph size.
type Stats struct {
	Nodes       int
	Ensembles   int
	Relays      int
	Signals     int
	Connections int
	Capacity    int
}

func (n *Network) Stats() Stats {
	s := Stats{Nodes: len(n.nodes), Connections: len(n.conns)}
	for _, node := range n.nodes {
		switch node.kind {
		case KindEnsemble:
			s.Ensembles++
			s.Capacity += node.capacity
		case KindRelay:
			s.Relays++
		case KindSignal:
			s.Signals++
		}
	}
	return s
}

// Slot is a named input-signal node whose signal can be replaced without
// touching the connections it feeds.
type Slot struct {
	name string
	node *Node
}

func (s *Slot) Name() string { return s.name }

// Output is the slot's raw output, to be connected to consumers at build time.
func (s *Slot) Output() OutputRef {
	return OutputRef{node: s.node, port: RawOutput}
}

func (s *Slot) Signal() Signal {
	return s.node.signal
}

// AddSlot creates a signal node called name emitting sig.
func (n *Network) AddSlot(name string, sig Signal) (*Slot, error) {
	if _, exists := n.slots[name]; exists {
		return nil, fmt.Errorf("%w: slot %s", ErrNodeExists, name)
	}
	node := NewSignalNode(name, sig)
	if err := n.AddNode(node); err != nil {
		return nil, err
	}
	slot := &Slot{name: name, node: node}
	n.slotNames = append(n.slotNames, name)
	n.slots[name] = slot
	return slot, nil
}

func (n *Network) Slot(name string) (*Slot, error) {
	slot, ok := n.slots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, name)
	}
	return slot, nil
}

func (n *Network) SlotNames() []string {
	return append([]string(nil), n.slotNames...)
}

// Reload swaps the signals of the named slots and resets every tap. All names
// are validated before anything changes. It must not run concurrently with
// execution.
func (n *Network) Reload(signals map[string]Signal) error {
	names := make([]string, 0, len(signals))
	for name := range signals {
		if _, ok := n.slots[name]; !ok {
			return fmt.Errorf("%w: %s", ErrSlotNotFound, name)
		}
		if signals[name] == nil {
			return fmt.Errorf("reload slot %s: nil signal", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		slot := n.slots[name]
		sig := signals[name]
		if sig.Dimension() != slot.node.dim {
			n.logger.Error(ErrDimensionMismatch, "reloaded signal width differs from slot",
				"slot", name, "signal", sig.Dimension(), "dimension", slot.node.dim)
		}
		slot.node.signal = sig
		slot.node.dim = sig.Dimension()
	}
	n.ResetTaps()
	return nil
}

// Tap attaches an observation tap to ref.
func (n *Network) Tap(name string, ref OutputRef) (*Tap, error) {
	if !ref.Valid() || ref.node.owner != n {
		return nil, fmt.Errorf("%w: cannot tap %s", ErrPortNotFound, name)
	}
	tap := &Tap{name: name, ref: ref}
	n.taps = append(n.taps, tap)
	return tap, nil
}

func (n *Network) Taps() []*Tap {
	return append([]*Tap(nil), n.taps...)
}

func (n *Network) ResetTaps() {
	for _, tap := range n.taps {
		tap.Reset()
	}
}

// SignalValue returns the current value of a signal node at time t.
func SignalValue(node *Node, t float64) hrr.Vector {
	if node.signal == nil {
		return hrr.Zero(node.dim)
	}
	return node.signal.Value(t)
}
