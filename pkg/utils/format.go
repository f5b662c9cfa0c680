// Package utils provides common utility functions for liqboard.
package utils

import (
	"fmt"
	"math"
)

// FormatMagnitude formats a dollar value denominated in millions into a
// compact magnitude label: values at or above 1,000,000 (one trillion)
// render as "T", values at or above 1,000 (one billion) as "B", and
// everything else as a raw millions figure.
// e.g., 5,600,000 → "$5.60T", 2,154.32 → "$2.15B", 87.5 → "$88M".
func FormatMagnitude(v float64) string {
	prefix := "$"
	if v < 0 {
		prefix = "-$"
	}
	abs := math.Abs(v)

	switch {
	case abs >= 1e6:
		return fmt.Sprintf("%s%.2fT", prefix, abs/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%s%.2fB", prefix, abs/1e3)
	default:
		return fmt.Sprintf("%s%.0fM", prefix, abs)
	}
}

// FormatBillions formats a value denominated in billions of dollars,
// promoting to trillions at 1,000. Used for FRED dataset figures, which
// the builder normalizes to billions.
func FormatBillions(v float64) string {
	prefix := "$"
	if v < 0 {
		prefix = "-$"
	}
	abs := math.Abs(v)

	if abs >= 1e3 {
		return fmt.Sprintf("%s%.2fT", prefix, abs/1e3)
	}
	return fmt.Sprintf("%s%.0fB", prefix, abs)
}
