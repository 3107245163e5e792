package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/itohio/cmat/pkg/graph"
	"github.com/itohio/cmat/pkg/tensor"
)

// DependencyResolver implements spec §3/§4.3's C10: it topologically
// orders a host's direct sub-models by consumed/provided variable names
// and propagates total derivatives across the resulting chain.
type DependencyResolver struct {
	host *Model
}

// NewDependencyResolver builds a resolver over host's registered
// sub-models.
func NewDependencyResolver(host *Model) *DependencyResolver {
	return &DependencyResolver{host: host}
}

// Order returns the host's direct sub-models in evaluation order: a
// sub-model that consumes another's output (directly, or through the
// reference alias merge_input establishes during Setup) is ordered after
// its producer.
func (r *DependencyResolver) Order() ([]*Model, error) {
	g := graph.NewGenericGraph()
	for _, s := range r.host.submodels {
		g.AddNode(modelNode{s.model})
	}
	for _, consumer := range r.host.submodels {
		for _, producer := range r.host.submodels {
			if consumer == producer {
				continue
			}
			if dependsOn(consumer.model, producer.model) {
				g.AddEdge(modelNode{producer.model}, modelNode{consumer.model})
			}
		}
	}
	nodes, err := graph.TopologicalOrder(g)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSetup, r.host.Name, err)
	}
	order := make([]*Model, len(nodes))
	for i, n := range nodes {
		order[i] = n.(modelNode).m
	}
	return order, nil
}

func dependsOn(consumer, producer *Model) bool {
	for _, in := range consumer.Inputs() {
		v, ok := consumer.Vars.Get(in)
		if !ok {
			continue
		}
		producerName := v.Ultimate().Name
		for _, out := range producer.Outputs() {
			if producerName == out {
				return true
			}
		}
	}
	return false
}

// TotalDerivatives implements spec §4.3's chain-rule propagation: given
// each sub-model's own recorded partials (its DValue result, keyed by
// model name) and the composed model's own input names, walk order
// forward and accumulate dy/dx = Σ ∂y/∂u · du/dx for every intermediate
// variable u produced upstream.
//
// Open Question resolved: spec §4.3 says to walk "in reverse
// topological order", but Order()'s topological order is already
// producer-before-consumer ("the order [sub-models] must be evaluated",
// per C10's definition) — exactly the order this forward-mode tangent
// propagation needs, since du/dx must be known before it feeds dy/dx.
// Read literally, reversing that order would process consumers before
// their producers and leave every chained total derivative empty. Order
// is taken to already be what spec calls the resolver's "reverse
// topological order" (the two components may simply define topological
// direction oppositely); TotalDerivatives walks it forward. See
// DESIGN.md.
//
// Scope decision: the contraction is a plain dense matrix product
// (gonum.org/v1/gonum/mat) over each derivative's rank-2 assembly form
// and assumes no dynamic (batch) dimension; a batched composed-model
// chain rule would need the dynamic-dim-aware contraction pkg/assembly
// provides for the top-level system assembly (C11/C12), which is out of
// scope for this lighter-weight composition helper — see DESIGN.md.
func (r *DependencyResolver) TotalDerivatives(
	order []*Model,
	partials map[string]map[string]map[string]tensor.Tensor,
	inputs []string,
) (map[string]map[string]tensor.Tensor, error) {
	total := map[string]map[string]tensor.Tensor{}

	for i := 0; i < len(order); i++ {
		mdl := order[i]
		for y, row := range partials[mdl.Name] {
			acc := map[string]tensor.Tensor{}
			for u, dydu := range row {
				if containsStr(inputs, u) {
					sum, err := addAssign(acc[u], dydu)
					if err != nil {
						return nil, fmt.Errorf("%w: accumulating d(%s)/d(%s): %v", ErrShape, y, u, err)
					}
					acc[u] = sum
					continue
				}
				producerTotal, ok := total[u]
				if !ok {
					continue
				}
				for x, duDx := range producerTotal {
					contrib, err := matmulAssembly(dydu, duDx)
					if err != nil {
						return nil, fmt.Errorf("%w: propagating d(%s)/d(%s) through %s: %v", ErrShape, y, x, u, err)
					}
					sum, err := addAssign(acc[x], contrib)
					if err != nil {
						return nil, fmt.Errorf("%w: accumulating d(%s)/d(%s): %v", ErrShape, y, x, err)
					}
					acc[x] = sum
				}
			}
			total[y] = acc
		}
	}
	return total, nil
}

func matmulAssembly(a, b tensor.Tensor) (tensor.Tensor, error) {
	ad, bd := a.Dims(), b.Dims()
	if len(ad) != 2 || len(bd) != 2 {
		return tensor.Tensor{}, fmt.Errorf("chain-rule multiply requires rank-2 assembly tensors, got %v and %v", ad, bd)
	}
	if ad[1] != bd[0] {
		return tensor.Tensor{}, fmt.Errorf("inner dimensions %d and %d mismatch", ad[1], bd[0])
	}
	am := mat.NewDense(ad[0], ad[1], append([]float64(nil), a.Data()...))
	bm := mat.NewDense(bd[0], bd[1], append([]float64(nil), b.Data()...))
	var cm mat.Dense
	cm.Mul(am, bm)

	out := tensor.New(tensor.Float64, 0, 0, 2, []int{ad[0], bd[1]})
	for i := 0; i < ad[0]; i++ {
		for j := 0; j < bd[1]; j++ {
			out.SetAt(cm.At(i, j), i, j)
		}
	}
	return out, nil
}

func addAssign(existing, v tensor.Tensor) (tensor.Tensor, error) {
	if existing.Empty() {
		return v, nil
	}
	sum, err := existing.Add(v)
	if err != nil {
		return tensor.Tensor{}, err
	}
	return sum, nil
}

func containsStr(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
