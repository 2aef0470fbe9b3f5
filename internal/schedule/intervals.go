package schedule

import (
	"sort"
	"time"
)

// Interval is a half-open [Start, End) span of absolute time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the interval is empty or inverted.
func (iv Interval) IsZero() bool {
	return !iv.Start.Before(iv.End)
}

// Clip bounds the interval to [start, end). The result may be zero.
func (iv Interval) Clip(start, end time.Time) Interval {
	if iv.Start.Before(start) {
		iv.Start = start
	}
	if iv.End.After(end) {
		iv.End = end
	}
	return iv
}

// Merge coalesces an unordered set of blocking intervals into a sorted,
// disjoint set. Touching intervals merge: a zero-width gap is never
// treated as free time. Empty intervals are dropped. Idempotent.
func Merge(intervals []Interval) []Interval {
	in := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.IsZero() {
			in = append(in, iv)
		}
	}
	if len(in) == 0 {
		return nil
	}

	sort.Slice(in, func(i, j int) bool { return in[i].Start.Before(in[j].Start) })

	merged := []Interval{in[0]}
	for _, iv := range in[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// FreeWindows subtracts a merged blocking set from a working window and
// returns the ordered maximal free spans. A zero window (closed day)
// yields nil. Blocks must already be merged; they are clipped to the
// window here.
func FreeWindows(window Interval, blocks []Interval) []Interval {
	if window.IsZero() {
		return nil
	}

	var free []Interval
	cursor := window.Start
	for _, block := range blocks {
		b := block.Clip(window.Start, window.End)
		if b.IsZero() {
			continue
		}
		if cursor.Before(b.Start) {
			free = append(free, Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(window.End) {
			return free
		}
	}
	if cursor.Before(window.End) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}
