package detector

import "errors"

var (
	ErrUnknownAttribute = errors.New("detector: unknown attribute")
	ErrUnknownMode      = errors.New("detector: unknown comparison mode")
	ErrUnknownMotion    = errors.New("detector: unknown motion")
	ErrUnknownCombine   = errors.New("detector: unknown combine mode")

	// ErrTargetMismatch indicates targets and expected values that cannot be paired.
	ErrTargetMismatch = errors.New("detector: targets do not match expected values")

	// ErrPrecisionRange rejects precisions whose scale factor is not a finite non-zero float.
	ErrPrecisionRange = errors.New("detector: precision out of range")

	// ErrNotImplemented is returned for attributes that are declared but not measurable yet.
	ErrNotImplemented = errors.New("detector: not implemented")

	// ErrZeroDenominator is raised when a ratio detector divides by a zero concentration.
	ErrZeroDenominator = errors.New("detector: ratio denominator is zero")
)
