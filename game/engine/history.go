package engine

// PathHistory is the ordered list of stop points the piece has rested at in
// the current level. Consecutive duplicates are never stored.
type PathHistory struct {
	points []Vec2
}

// NewPathHistory returns a history seeded with the spawn point
func NewPathHistory(seed Vec2) *PathHistory {
	return &PathHistory{points: []Vec2{seed}}
}

// Reset discards all points and seeds the history again
func (h *PathHistory) Reset(seed Vec2) {
	h.points = append(h.points[:0:0], seed)
}

// RecordStop appends p unless it equals the last point. It reports whether
// p was appended.
func (h *PathHistory) RecordStop(p Vec2) bool {
	if n := len(h.points); n > 0 && h.points[n-1] == p {
		return false
	}
	h.points = append(h.points, p)
	return true
}

// Snapshot returns a copy that later appends cannot affect
func (h *PathHistory) Snapshot() []Vec2 {
	out := make([]Vec2, len(h.points))
	copy(out, h.points)
	return out
}

// Len returns the number of stored points
func (h *PathHistory) Len() int { return len(h.points) }

// Last returns the newest point
func (h *PathHistory) Last() (Vec2, bool) {
	if len(h.points) == 0 {
		return Vec2{}, false
	}
	return h.points[len(h.points)-1], true
}
