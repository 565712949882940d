package nodealloc

import "math"

// Default slop-sizing constants, per spec.md §6.
const (
	DefaultLowerBound     = 4 * 1024 * 1024
	DefaultUpperBound     = 32 * 1024 * 1024
	DefaultSmallModelSlop = 8.0
	DefaultBigModelSlop   = 2.0
)

// SlopTuning holds the arena-sizing knobs used by slopFactor. Zero value
// is not valid; New fills in defaults.
type SlopTuning struct {
	LowerBound     int64
	UpperBound     int64
	SmallModelSlop float64
	BigModelSlop   float64
}

func (t *SlopTuning) fillDefaults() {
	if t.LowerBound <= 0 {
		t.LowerBound = DefaultLowerBound
	}
	if t.UpperBound <= 0 {
		t.UpperBound = DefaultUpperBound
	}
	if t.SmallModelSlop <= 0 {
		t.SmallModelSlop = DefaultSmallModelSlop
	}
	if t.BigModelSlop <= 0 {
		t.BigModelSlop = DefaultBigModelSlop
	}
}

// slopFactor computes the multiplier applied to active to choose total
// arena capacity: SmallModelSlop below LowerBound, BigModelSlop at or
// above UpperBound, and a linear interpolation between the two bounds.
func (t SlopTuning) slopFactor(active int64) float64 {
	switch {
	case active <= t.LowerBound:
		return t.SmallModelSlop
	case active >= t.UpperBound:
		return t.BigModelSlop
	default:
		span := float64(t.UpperBound - t.LowerBound)
		frac := float64(active-t.LowerBound) / span
		return t.SmallModelSlop + frac*(t.BigModelSlop-t.SmallModelSlop)
	}
}

// targetArenaCount returns the number of arenas needed to hold active
// nodes at the computed slop factor, per spec.md §4.1 step 6.
func (t SlopTuning) targetArenaCount(active int64, arenaNodes int) int {
	slop := t.slopFactor(active)
	return int(math.Ceil(float64(active) * slop / float64(arenaNodes)))
}
