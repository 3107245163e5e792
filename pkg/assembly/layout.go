// Package assembly implements spec §4.7: concatenating a list of logical
// tensors into one flat dense vector or matrix ("assembly format"), and
// the inverse. pkg/model's JIT stack and pkg/system's Schur solve both
// consume these forms.
package assembly

// Layout describes one entry's logical (intermediate ; base) shape, the
// part of a tensor's shape that assembly flattens away. Dynamic dims are
// carried separately since every entry in one Assemble/Disassemble call
// shares them.
type Layout struct {
	IntmdShape []int
	BaseShape  []int
}

// Flat returns the flattened trailing size numel(Intmd)*numel(Base) this
// layout occupies in assembly format.
func (l Layout) Flat() int {
	return product(l.IntmdShape) * product(l.BaseShape)
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
