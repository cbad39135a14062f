package engine

import (
	"fmt"
	"math"
	"strings"
)

// Layout characters understood by the level builder
const (
	CellWall       = '#'
	CellPath       = '.'
	CellStart      = 'S' // spawn marker on a path tile
	CellStartBare  = 's' // spawn marker without a path tile
	CellVoid       = ' '
	CellVoidAlt    = '-'
	CellBrokenMark = 'x' // only used when rendering snapshots
	CellPieceMark  = 'o' // only used when rendering snapshots

	// Validation constants
	MinLayoutSize = 3
	MaxLayoutSize = 64
)

// Names of the sounds the core asks the audio collaborator for
const (
	SoundMove      = "PlayerMove"
	SoundTileBreak = "TileBreak"
	SoundRewind    = "RewindWhoosh"
	SoundSuccess   = "LevelSuccess"
)

// Vec2 is a point or displacement in level space. Y grows upward, so layout
// row r is centred on Y = -r and column c on X = c.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns v+o
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v*s
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the euclidean length of v
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between v and o
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

// Normalize returns v scaled to unit length, or the zero vector
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// Lerp interpolates between a and b; t is clamped to [0,1].
func Lerp(a, b Vec2, t float64) Vec2 {
	t = clamp01(t)
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// MoveTowards moves cur toward target by at most maxDelta without overshooting.
func MoveTowards(cur, target Vec2, maxDelta float64) Vec2 {
	d := target.Sub(cur)
	dist := d.Len()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return cur.Add(d.Scale(maxDelta / dist))
}

// SnapToGrid rounds v to the nearest multiple of resolution.
func SnapToGrid(v, resolution float64) float64 {
	if resolution <= 0 {
		return v
	}
	return math.Round(v/resolution) * resolution
}

// Direction is one of the four cardinal slide directions
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// AllDirections lists the cardinal directions in search order
var AllDirections = []Direction{DirUp, DirDown, DirLeft, DirRight}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "none"
	}
}

// Vector returns the unit vector for d in level space
func (d Direction) Vector() Vec2 {
	switch d {
	case DirUp:
		return Vec2{0, 1}
	case DirDown:
		return Vec2{0, -1}
	case DirLeft:
		return Vec2{-1, 0}
	case DirRight:
		return Vec2{1, 0}
	default:
		return Vec2{}
	}
}

// Angle returns the direction angle in degrees, counter-clockwise from +X.
// Break effects are rotated by it.
func (d Direction) Angle() float64 {
	v := d.Vector()
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}

// Horizontal reports whether d moves along the X axis
func (d Direction) Horizontal() bool {
	return d == DirLeft || d == DirRight
}

// ParseDirection maps "up", "down", "left" and "right" to a Direction
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	case "left":
		return DirLeft, true
	case "right":
		return DirRight, true
	default:
		return DirNone, false
	}
}

// Gesture is a completed swipe in screen space. Screen Y grows upward, the
// same as level space.
type Gesture struct {
	Start  Vec2 `json:"start"`
	End    Vec2 `json:"end"`
	OverUI bool `json:"over_ui,omitempty"`
}

// GestureFor builds a swipe of the given length in direction d starting at
// the origin. Used by transports that accept plain directions.
func GestureFor(d Direction, length float64) Gesture {
	return Gesture{Start: Vec2{}, End: d.Vector().Scale(length)}
}

// Cell addresses a layout position
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Center returns the level-space centre of the cell
func (c Cell) Center() Vec2 {
	return Vec2{X: float64(c.Col), Y: -float64(c.Row)}
}

// Step returns the neighbouring cell in direction d
func (c Cell) Step(d Direction) Cell {
	switch d {
	case DirUp:
		return Cell{c.Col, c.Row - 1}
	case DirDown:
		return Cell{c.Col, c.Row + 1}
	case DirLeft:
		return Cell{c.Col - 1, c.Row}
	case DirRight:
		return Cell{c.Col + 1, c.Row}
	default:
		return c
	}
}
