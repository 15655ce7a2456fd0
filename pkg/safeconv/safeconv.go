// Package safeconv provides integer conversions that fail or panic on overflow.
package safeconv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("integer overflow")

// MaxInt is the maximum value for int type (platform-dependent).
const MaxInt = int(^uint(0) >> 1)

// MustIntToUint64 converts int to uint64, panics if negative.
// Use only when negative values are logically impossible.
func MustIntToUint64(v int) uint64 {
	if v < 0 {
		panic("safeconv: negative int to uint64 conversion")
	}

	return uint64(v)
}

// Uint64ToInt converts uint64 to int, failing with ErrOverflow above MaxInt.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(MaxInt) {
		return 0, fmt.Errorf("%w: %d exceeds %d", ErrOverflow, v, MaxInt)
	}

	return int(v), nil
}

// ClampUint64ToInt64 converts uint64 to int64, saturating at math.MaxInt64.
// Span attributes take int64 values while addresses are unsigned.
func ClampUint64ToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(v)
}
