package engine

import (
	"errors"
	"fmt"
	"math"
)

// TagStart marks the spawn node of a level
const TagStart = "Start"

// Node is an element of a level's object hierarchy
type Node struct {
	Name     string
	Tag      string
	Position Vec2
	Children []*Node
}

// FindTagged returns the first node carrying tag in depth-first pre-order,
// starting with n itself.
func (n *Node) FindTagged(tag string) *Node {
	if n == nil {
		return nil
	}
	if n.Tag == tag {
		return n
	}
	for _, c := range n.Children {
		if found := c.FindTagged(tag); found != nil {
			return found
		}
	}
	return nil
}

// Size is a width and height in level units
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Background is the decorative backdrop of a level. When present the replay
// camera frames it instead of the path.
type Background struct {
	Center  Vec2    `json:"center"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Variant string  `json:"variant,omitempty"`
}

// Level is a built, playable level
type Level struct {
	Index        int
	Name         string
	Title        string
	Description  string
	Layout       []string
	Root         *Node
	Tiles        []*PathTile
	Walls        []AABB
	Bounds       AABB
	CameraTarget *Size
	Background   *Background

	tileAt map[Cell]*PathTile
	wallAt map[Cell]bool
	active bool
}

// BuildLevel turns a level config into a level object tree. The spawn
// marker is optional here; activation fails without one.
func BuildLevel(cfg *LevelConfig, index int) (*Level, error) {
	if cfg == nil {
		return nil, errors.New("build level: nil config")
	}
	if len(cfg.Layout) == 0 {
		return nil, fmt.Errorf("build level %q: empty layout", cfg.Name)
	}

	l := &Level{
		Index:       index,
		Name:        cfg.Name,
		Title:       fmt.Sprintf("Level %d", index+1),
		Description: cfg.Description,
		Layout:      append([]string(nil), cfg.Layout...),
		tileAt:      make(map[Cell]*PathTile),
		wallAt:      make(map[Cell]bool),
	}

	walls := &Node{Name: "Walls"}
	grid := &Node{Name: "Grid"}
	var start *Node
	first := true

	for row, line := range cfg.Layout {
		for col, ch := range line {
			cell := Cell{Col: col, Row: row}
			center := cell.Center()
			switch ch {
			case CellWall:
				l.Walls = append(l.Walls, CellBounds(center))
				l.wallAt[cell] = true
				walls.Children = append(walls.Children, &Node{Name: fmt.Sprintf("Wall_%d_%d", col, row), Position: center})
			case CellPath, CellStart:
				t := &PathTile{ID: len(l.Tiles), Cell: cell, Center: center}
				l.Tiles = append(l.Tiles, t)
				l.tileAt[cell] = t
				grid.Children = append(grid.Children, &Node{Name: fmt.Sprintf("Path_%d_%d", col, row), Position: center})
				if ch == CellStart && start == nil {
					start = &Node{Name: "Start", Tag: TagStart, Position: center}
				}
			case CellStartBare:
				if start == nil {
					start = &Node{Name: "Start", Tag: TagStart, Position: center}
				}
			case CellVoid, CellVoidAlt:
				continue
			default:
				return nil, fmt.Errorf("build level %q: invalid character '%c' at row %d, col %d", cfg.Name, ch, row+1, col+1)
			}
			if first {
				l.Bounds = CellBounds(center)
				first = false
			} else {
				l.Bounds = l.Bounds.Union(CellBounds(center))
			}
		}
	}

	env := &Node{Name: "Env", Children: []*Node{walls}}
	if cfg.CameraTarget != nil {
		l.CameraTarget = &Size{Width: cfg.CameraTarget.Width, Height: cfg.CameraTarget.Height}
	}
	if cfg.Background != nil {
		l.Background = &Background{
			Center:  l.Bounds.Center(),
			Width:   cfg.Background.Width,
			Height:  cfg.Background.Height,
			Variant: cfg.Background.Variant,
		}
		env.Children = append(env.Children, &Node{Name: "TileBack", Position: l.Bounds.Center()})
	}
	if start != nil {
		grid.Children = append(grid.Children, start)
	}
	l.Root = &Node{Name: cfg.Name, Children: []*Node{env, grid}}
	return l, nil
}

// Spawn returns the spawn marker position
func (l *Level) Spawn() (Vec2, bool) {
	n := l.Root.FindTagged(TagStart)
	if n == nil {
		return Vec2{}, false
	}
	return n.Position, true
}

// Active reports whether the level is the sequencer's current level
func (l *Level) Active() bool { return l.active }

// ResetTiles restores every tile to unbroken and unregistered
func (l *Level) ResetTiles() {
	for _, t := range l.Tiles {
		t.reset()
	}
}

// TileAt returns the tile at c, if any
func (l *Level) TileAt(c Cell) (*PathTile, bool) {
	t, ok := l.tileAt[c]
	return t, ok
}

// IsWall reports whether c is a wall
func (l *Level) IsWall(c Cell) bool { return l.wallAt[c] }

// BrokenCount returns the number of broken tiles
func (l *Level) BrokenCount() int {
	n := 0
	for _, t := range l.Tiles {
		if t.broken {
			n++
		}
	}
	return n
}

// CellAt returns the layout cell containing p
func CellAt(p Vec2) Cell {
	return Cell{Col: int(math.Round(p.X)), Row: int(math.Round(-p.Y))}
}

// Render draws the level as text rows with broken tiles and the piece marked.
func (l *Level) Render(piece *Vec2) []string {
	rows := make([][]rune, len(l.Layout))
	for r, line := range l.Layout {
		rows[r] = []rune(line)
		for c, ch := range rows[r] {
			switch ch {
			case CellStart:
				rows[r][c] = CellPath
			case CellStartBare, CellVoidAlt:
				rows[r][c] = CellVoid
			}
		}
	}
	for _, t := range l.Tiles {
		if t.broken {
			rows[t.Cell.Row][t.Cell.Col] = CellBrokenMark
		}
	}
	if piece != nil {
		c := CellAt(*piece)
		if c.Row >= 0 && c.Row < len(rows) && c.Col >= 0 && c.Col < len(rows[c.Row]) {
			rows[c.Row][c.Col] = CellPieceMark
		}
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = string(r)
	}
	return out
}
