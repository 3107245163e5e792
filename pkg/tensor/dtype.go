package tensor

// DataType identifies a tensor's floating-point storage precision.
//
// Per spec §7 (PrecisionError), most of the engine requires Float64
// ("double"); Float32 is only a tag (storage is []float64 either way),
// and Model evaluation rejects Float32 inputs with no option to relax
// that check. Mirrors the teacher's DataType tag
// (pkg/core/math/tensor/types/dtype.go) narrowed to the two precisions the
// constitutive-model domain actually needs.
type DataType uint8

const (
	// Float64 is the default, required precision.
	Float64 DataType = iota
	// Float32 is rejected by Model evaluation; no Model option relaxes
	// the precision requirement.
	Float32
)

func (dt DataType) String() string {
	switch dt {
	case Float64:
		return "Float64"
	case Float32:
		return "Float32"
	default:
		return "Unknown"
	}
}

// RequireDouble returns ErrPrecision wrapped with context if dt is not
// Float64. Models call this at the start of evaluation (spec §4.1 step a).
func RequireDouble(dt DataType) error {
	if dt != Float64 {
		return errWrap(ErrPrecision, "dtype %s is not double", dt)
	}
	return nil
}
