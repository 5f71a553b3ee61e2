package model

import (
	"fmt"
	"time"
)

// Interval is a closed cultivation interval with day precision.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s]", i.Start.Format("2006-01-02"), i.End.Format("2006-01-02"))
}

// Valid reports whether the interval is non-empty (start <= end).
func (i Interval) Valid() bool {
	return !i.Start.After(i.End)
}

// Overlaps reports whether two closed intervals intersect.
func (i Interval) Overlaps(other Interval) bool {
	return !i.Start.After(other.End) && !other.Start.After(i.End)
}

// OverlapPattern classifies how two intervals relate in time, so
// constraint specs can restrict their applicability to a specific
// pattern.
type OverlapPattern int

const (
	// OverlapAny accepts every overlapping pair; it is the default
	// pattern filter and is never returned by ClassifyOverlap.
	OverlapAny OverlapPattern = iota
	OverlapNone
	OverlapFirstStartsFirst
	OverlapSecondStartsFirst
	OverlapSimultaneousStart
	OverlapNested
	OverlapIdentical
)

var overlapPatternNames = map[string]OverlapPattern{
	"any":                OverlapAny,
	"no-overlap":         OverlapNone,
	"i1-starts-first":    OverlapFirstStartsFirst,
	"i2-starts-first":    OverlapSecondStartsFirst,
	"simultaneous-start": OverlapSimultaneousStart,
	"nested":             OverlapNested,
	"identical":          OverlapIdentical,
}

// ParseOverlapPattern resolves the pattern names accepted in constraint
// definitions. The empty string means OverlapAny.
func ParseOverlapPattern(name string) (OverlapPattern, error) {
	if name == "" {
		return OverlapAny, nil
	}
	pattern, ok := overlapPatternNames[name]
	if !ok {
		return OverlapAny, fmt.Errorf("unknown intervals_overlap pattern %q", name)
	}
	return pattern, nil
}

// ClassifyOverlap classifies the temporal relation of i1 and i2.
// Nesting takes precedence over the starts-first patterns, and equal
// starts are classified as simultaneous-start unless the intervals are
// identical.
func ClassifyOverlap(i1, i2 Interval) OverlapPattern {
	if !i1.Overlaps(i2) {
		return OverlapNone
	}
	if i1.Start.Equal(i2.Start) {
		if i1.End.Equal(i2.End) {
			return OverlapIdentical
		}
		return OverlapSimultaneousStart
	}
	if i1.Start.Before(i2.Start) {
		if !i1.End.Before(i2.End) {
			return OverlapNested
		}
		return OverlapFirstStartsFirst
	}
	if !i2.End.Before(i1.End) {
		return OverlapNested
	}
	return OverlapSecondStartsFirst
}

// MatchesPattern reports whether the pair (i1, i2) passes the pattern
// filter. OverlapAny matches every overlapping pair.
func MatchesPattern(pattern OverlapPattern, i1, i2 Interval) bool {
	if pattern == OverlapAny {
		return i1.Overlaps(i2)
	}
	return ClassifyOverlap(i1, i2) == pattern
}
