package walkscore

import (
	"sort"

	"github.com/cockroachdb/errors"

	"walkability/internal/model"
)

// PWL is the piecewise-linear score function mapping a weighted walking
// distance to a 0-100 WalkScore (spec.md §4.2). It accepts any non-decreasing
// breakpoint vector with a matching value vector — the default
// [0, 400, 1800, 2400] -> [100, 100, 0, 0] is just one configuration.
type PWL struct {
	breakpoints []float64
	values      []float64
}

// DefaultBreakpoints and DefaultValues are spec.md §4.2's defaults.
var (
	DefaultBreakpoints = []float64{0, 400, 1800, 2400}
	DefaultValues      = []float64{100, 100, 0, 0}
)

// NewPWL validates and builds a PWL. Mismatched lengths or a non-monotone
// breakpoint sequence are configuration errors (spec.md §4.2, §7).
func NewPWL(breakpoints, values []float64) (*PWL, error) {
	if len(breakpoints) < 2 {
		return nil, errors.Wrap(model.ErrConfigInvalid, "PWL requires at least two breakpoints")
	}
	if len(breakpoints) != len(values) {
		return nil, errors.Wrapf(model.ErrConfigInvalid, "PWL breakpoints (%d) and values (%d) length mismatch", len(breakpoints), len(values))
	}
	if !sort.Float64sAreSorted(breakpoints) {
		return nil, errors.Wrap(model.ErrConfigInvalid, "PWL breakpoints must be non-decreasing")
	}

	return &PWL{
		breakpoints: append([]float64(nil), breakpoints...),
		values:      append([]float64(nil), values...),
	}, nil
}

// Horizon returns the outermost breakpoint — the distance beyond which the
// PWL output no longer changes.
func (p *PWL) Horizon() float64 {
	return p.breakpoints[len(p.breakpoints)-1]
}

// Score clamps L to the outer breakpoints and linearly interpolates within
// the enclosing segment (spec.md §4.2, §8 property 7).
func (p *PWL) Score(l float64) float64 {
	lo, hi := p.breakpoints[0], p.breakpoints[len(p.breakpoints)-1]
	if l <= lo {
		return p.values[0]
	}
	if l >= hi {
		return p.values[len(p.values)-1]
	}

	// Find the first breakpoint i with breakpoints[i] >= l.
	i := sort.Search(len(p.breakpoints), func(i int) bool { return p.breakpoints[i] >= l })
	if p.breakpoints[i] == l {
		return p.values[i]
	}
	// i is the first breakpoint >= l, so the enclosing segment is [i-1, i].
	x1, y1 := p.breakpoints[i-1], p.values[i-1]
	x2, y2 := p.breakpoints[i], p.values[i]
	if x2 == x1 {
		return y1
	}
	return y1 + (y2-y1)*(l-x1)/(x2-x1)
}
