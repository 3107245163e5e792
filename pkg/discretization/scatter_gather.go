package discretization

import (
	"fmt"

	"github.com/itohio/cmat/pkg/tensor"
)

// Scatter distributes a global nodal tensor (shape [nodeCount,
// dofsPerNode]) out to each element's local degrees of freedom, in the
// order conn gives each element's local nodes. Grounded on conv2d.go's
// receptive-field gather: index into a shared buffer, copy the indexed
// window into a small dense per-element tensor.
func Scatter(global tensor.Tensor, conn Connectivity, dofsPerNode int) ([]tensor.Tensor, error) {
	if err := checkGlobalShape(global, conn.NodeCount(), dofsPerNode); err != nil {
		return nil, err
	}
	out := make([]tensor.Tensor, len(conn))
	for e, nodes := range conn {
		local := tensor.New(global.DataType(), 0, 1, 1, []int{len(nodes), dofsPerNode})
		for i, node := range nodes {
			for d := 0; d < dofsPerNode; d++ {
				local.SetAt(global.At(node, d), i, d)
			}
		}
		out[e] = local
	}
	return out, nil
}

// Gather sums per-element local contributions back into a global
// nodal tensor, accumulating at shared nodes (the scatter-add every FEM
// assembly loop performs). nodeCount is the required global size (use
// conn.NodeCount() when every node is referenced by some element).
func Gather(contribs []tensor.Tensor, conn Connectivity, dofsPerNode, nodeCount int) (tensor.Tensor, error) {
	if len(contribs) != len(conn) {
		return tensor.Tensor{}, fmt.Errorf("%w: gather: %d contributions but %d elements", ErrShape, len(contribs), len(conn))
	}
	global := tensor.New(tensor.Float64, 0, 1, 1, []int{nodeCount, dofsPerNode})
	for e, nodes := range conn {
		local := contribs[e]
		if local.Dims()[0] != len(nodes) || local.Dims()[1] != dofsPerNode {
			return tensor.Tensor{}, fmt.Errorf("%w: gather: element %d contribution shape %v, want [%d %d]",
				ErrShape, e, local.Dims(), len(nodes), dofsPerNode)
		}
		for i, node := range nodes {
			for d := 0; d < dofsPerNode; d++ {
				global.SetAt(global.At(node, d)+local.At(i, d), node, d)
			}
		}
	}
	return global, nil
}

// AssembleGlobal is Gather under spec's "assemble_" name: scattering
// per-element residual/stiffness contributions into the global vector
// is the same accumulate-by-connectivity operation as Gather, kept as a
// separate name since spec's component table lists gather and assemble_
// as distinct operations even though one algorithm serves both.
func AssembleGlobal(contribs []tensor.Tensor, conn Connectivity, dofsPerNode, nodeCount int) (tensor.Tensor, error) {
	return Gather(contribs, conn, dofsPerNode, nodeCount)
}

func checkGlobalShape(global tensor.Tensor, nodeCount, dofsPerNode int) error {
	dims := global.Dims()
	if len(dims) != 2 || dims[0] < nodeCount || dims[1] != dofsPerNode {
		return fmt.Errorf("%w: expected global shape [>=%d %d], got %v", ErrShape, nodeCount, dofsPerNode, dims)
	}
	return nil
}
