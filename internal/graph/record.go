package graph

import "hrrnet/internal/model"

// Describe flattens n into a persistable record. ID, kind, dimension and
// versions are left for the caller. Multiplication-encoded nodes carry one
// encoder per unit of capacity.
func Describe(n *Network) model.NetworkRecord {
	rec := model.NetworkRecord{Name: n.name}
	for _, node := range n.nodes {
		nr := model.NodeRecord{
			Path:      n.paths[node],
			Kind:      node.kind.String(),
			Mode:      node.mode.String(),
			Dimension: node.dim,
			Capacity:  node.capacity,
			Encoding:  string(node.encoding),
		}
		if node.encoding == EncodingMultiplication {
			nr.Encoders = MultiplicationEncoders(node.capacity)
		}
		for _, p := range node.inputs {
			nr.Inputs = append(nr.Inputs, model.InputPortRecord{
				Name:    p.Name,
				Tau:     p.Tau,
				Weights: p.Transform.Matrix(),
			})
		}
		for _, p := range node.outputs {
			or := model.OutputPortRecord{Name: p.Name}
			for _, fn := range p.Funcs {
				or.Functions = append(or.Functions, model.FunctionRecord{
					Kernel: fn.Kernel,
					Args:   append([]int(nil), fn.Args...),
				})
			}
			nr.Outputs = append(nr.Outputs, or)
		}
		rec.Nodes = append(rec.Nodes, nr)
	}
	for _, c := range n.conns {
		rec.Connections = append(rec.Connections, model.ConnectionRecord{
			From:     n.paths[c.From.node],
			FromPort: c.From.port,
			To:       n.paths[c.To.node],
			ToPort:   c.To.port,
		})
	}
	for _, name := range n.inputNames {
		ref := n.inputs[name]
		rec.Inputs = append(rec.Inputs, model.ExposedPortRecord{Name: name, Node: n.paths[ref.node], Port: ref.port})
	}
	for _, name := range n.outputNames {
		ref := n.outputs[name]
		rec.Outputs = append(rec.Outputs, model.ExposedPortRecord{Name: name, Node: n.paths[ref.node], Port: ref.port})
	}
	return rec
}
