// Package depth partitions a target cutting depth into per-pass depths
// honoring a maximum bite per pass.
package depth

import (
	"fmt"
	"math"
)

const maxPasses = 100000

// Plan splits target into equal steps no deeper than step, with the
// final pass landing exactly on target. Both arguments are positive
// depths below the stock surface.
//
// Plan(5, 2) = [2 4 5]: two full bites and a finishing pass.
func Plan(target, step float64) ([]float64, error) {
	if target <= 0 {
		return nil, fmt.Errorf("depth: target %v must be positive", target)
	}
	if step <= 0 {
		return nil, fmt.Errorf("depth: pass depth %v must be positive", step)
	}

	// The epsilon keeps an exact multiple from rounding up to an extra
	// zero-bite pass.
	n := int(math.Ceil(target/step - 1e-9))
	if n < 1 {
		n = 1
	}
	if n > maxPasses {
		return nil, fmt.Errorf("depth: %v/%v needs %d passes, over the %d limit", target, step, n, maxPasses)
	}

	out := make([]float64, n)
	for i := 0; i < n-1; i++ {
		out[i] = step * float64(i+1)
	}
	out[n-1] = target
	return out, nil
}
