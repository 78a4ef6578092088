// Package utility holds the cross-cutting identifiers and narrowing
// conversions every other package in this module reaches for: run and
// trace correlation ids, and the checked uint64→int64 narrowing that
// pkg/utility/fixed.Point needs when a caller hands it a volume or
// count as an unsigned value.
package utility

import (
	"errors"
	"math"
)

func U64ToI64(i uint64) (int64, error) {
	if i <= uint64(math.MaxInt64) {
		return int64(i), nil // #nosec G115
	}
	return 0, errors.New("integer overflow")
}

func U64ToI64Unsafe(i uint64) int64 {
	if i <= uint64(math.MaxInt64) {
		return int64(i) // #nosec G115
	}
	panic("integer overflow")
}
