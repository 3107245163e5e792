package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// Schema is the evaluation schema of spec §4.5: same dynamic-dim counts
// for each input, same intermediate shapes, and same dispatch key. Two
// Models evaluated with Schemas that compare Equal may safely replay the
// same cached trace.
type Schema struct {
	DynamicDims []int   // per input, in input order
	IntmdShapes [][]int // per input, in input order
	DispatchKey string  // device/dtype key; pkg/tensor is float64-only today
	InSolve     bool    // "currently assembling nonlinear system" context
	WantValue   bool
	WantDeriv   bool
	WantSecond  bool
}

// Equal implements schema equality per spec §4.5.
func (s Schema) Equal(o Schema) bool {
	if s.DispatchKey != o.DispatchKey || s.InSolve != o.InSolve {
		return false
	}
	if s.WantValue != o.WantValue || s.WantDeriv != o.WantDeriv || s.WantSecond != o.WantSecond {
		return false
	}
	if len(s.DynamicDims) != len(o.DynamicDims) || len(s.IntmdShapes) != len(o.IntmdShapes) {
		return false
	}
	for i := range s.DynamicDims {
		if s.DynamicDims[i] != o.DynamicDims[i] {
			return false
		}
	}
	for i := range s.IntmdShapes {
		if len(s.IntmdShapes[i]) != len(o.IntmdShapes[i]) {
			return false
		}
		for j := range s.IntmdShapes[i] {
			if s.IntmdShapes[i][j] != o.IntmdShapes[i][j] {
				return false
			}
		}
	}
	return true
}

// Key returns a base58-encoded cache key, grounded on
// pkg/core/crypto.PubKey/PrivKey.String()'s use of mr-tron/base58 to
// render raw bytes as a short, map-safe string.
func (s Schema) Key() string {
	var b strings.Builder
	b.WriteString(s.DispatchKey)
	b.WriteByte(0)
	writeFlags(&b, s.InSolve, s.WantValue, s.WantDeriv, s.WantSecond)
	for i, d := range s.DynamicDims {
		b.WriteString(strconv.Itoa(d))
		b.WriteByte(':')
		for _, sz := range s.IntmdShapes[i] {
			b.WriteString(strconv.Itoa(sz))
			b.WriteByte(',')
		}
		b.WriteByte(';')
	}
	return base58.Encode([]byte(b.String()))
}

func writeFlags(b *strings.Builder, flags ...bool) {
	for _, f := range flags {
		if f {
			b.WriteByte(1)
		} else {
			b.WriteByte(0)
		}
	}
}

func (s Schema) String() string {
	return fmt.Sprintf("Schema{dyn=%v, intmd=%v, key=%q, solve=%v, v=%v,d=%v,d2=%v}",
		s.DynamicDims, s.IntmdShapes, s.DispatchKey, s.InSolve, s.WantValue, s.WantDeriv, s.WantSecond)
}
