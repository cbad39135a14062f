package engine

import "math"

// AABB is an axis-aligned box in level space
type AABB struct {
	Min Vec2 `json:"min"`
	Max Vec2 `json:"max"`
}

// CellBounds returns the unit box centred on c
func CellBounds(c Vec2) AABB {
	return AABB{Min: Vec2{c.X - 0.5, c.Y - 0.5}, Max: Vec2{c.X + 0.5, c.Y + 0.5}}
}

// Center returns the box centre
func (b AABB) Center() Vec2 {
	return Vec2{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2}
}

// HalfExtents returns half the box size on each axis
func (b AABB) HalfExtents() Vec2 {
	return Vec2{(b.Max.X - b.Min.X) / 2, (b.Max.Y - b.Min.Y) / 2}
}

// Expand grows the box by r on every side
func (b AABB) Expand(r float64) AABB {
	return AABB{Min: Vec2{b.Min.X - r, b.Min.Y - r}, Max: Vec2{b.Max.X + r, b.Max.Y + r}}
}

// Overlaps reports whether the interiors of b and o intersect
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X < o.Max.X && b.Max.X > o.Min.X && b.Min.Y < o.Max.Y && b.Max.Y > o.Min.Y
}

// Union returns the smallest box containing b and o
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: Vec2{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y)},
		Max: Vec2{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y)},
	}
}

// Physics answers the collision queries the mover needs
type Physics interface {
	// CastCircle sweeps a circle from origin along dir and returns the
	// first wall contact point on the sweep axis.
	CastCircle(origin Vec2, radius float64, dir Direction) (Vec2, bool)
	// OverlapTiles returns the unbroken tiles touched by a circle swept
	// from `from` to `to`.
	OverlapTiles(from, to Vec2, radius float64) []*PathTile
}

// GridPhysics implements Physics over a level's wall boxes and tiles
type GridPhysics struct {
	walls []AABB
	tiles []*PathTile
}

// NewGridPhysics indexes the walls and tiles of l
func NewGridPhysics(l *Level) *GridPhysics {
	return &GridPhysics{walls: l.Walls, tiles: l.Tiles}
}

// CastCircle returns the point where the leading edge of the swept circle's
// centre line meets the nearest wall face ahead. Walls are only considered
// when they overlap the circle laterally.
func (g *GridPhysics) CastCircle(origin Vec2, radius float64, dir Direction) (Vec2, bool) {
	best := math.Inf(1)
	for _, w := range g.walls {
		var dist float64
		switch dir {
		case DirRight:
			if !(w.Min.Y < origin.Y+radius && w.Max.Y > origin.Y-radius) || w.Min.X < origin.X {
				continue
			}
			dist = w.Min.X - origin.X
		case DirLeft:
			if !(w.Min.Y < origin.Y+radius && w.Max.Y > origin.Y-radius) || w.Max.X > origin.X {
				continue
			}
			dist = origin.X - w.Max.X
		case DirUp:
			if !(w.Min.X < origin.X+radius && w.Max.X > origin.X-radius) || w.Min.Y < origin.Y {
				continue
			}
			dist = w.Min.Y - origin.Y
		case DirDown:
			if !(w.Min.X < origin.X+radius && w.Max.X > origin.X-radius) || w.Max.Y > origin.Y {
				continue
			}
			dist = origin.Y - w.Max.Y
		default:
			return Vec2{}, false
		}
		if dist < best {
			best = dist
		}
	}
	if math.IsInf(best, 1) {
		return Vec2{}, false
	}
	return origin.Add(dir.Vector().Scale(best)), true
}

// OverlapTiles returns the unbroken tiles whose cell box overlaps the box
// swept by a circle of the given radius between from and to.
func (g *GridPhysics) OverlapTiles(from, to Vec2, radius float64) []*PathTile {
	sweep := AABB{
		Min: Vec2{math.Min(from.X, to.X), math.Min(from.Y, to.Y)},
		Max: Vec2{math.Max(from.X, to.X), math.Max(from.Y, to.Y)},
	}.Expand(radius)
	var hits []*PathTile
	for _, t := range g.tiles {
		if t.broken {
			continue
		}
		if CellBounds(t.Center).Overlaps(sweep) {
			hits = append(hits, t)
		}
	}
	return hits
}
