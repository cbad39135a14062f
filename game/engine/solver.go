package engine

import (
	"errors"
	"fmt"
)

// MaxSolverStates bounds the search
const MaxSolverStates = 500000

// Solution is the result of Solve
type Solution struct {
	Solvable bool        `json:"solvable"`
	Moves    []Direction `json:"-"`
	Path     []string    `json:"moves"`
	Distance int         `json:"distance"`
	Explored int         `json:"explored"`
}

type solverNode struct {
	cell   Cell
	broken []uint64
	parent int
	dir    Direction
}

// Solve searches for the shortest sequence of slides that breaks every tile
// of l, using the same wall-stop rule as the mover. Slides that would leave
// the level are never taken.
func Solve(l *Level) (*Solution, error) {
	spawn, ok := l.Spawn()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSpawnMarker, l.Name)
	}
	if len(l.Tiles) == 0 {
		return &Solution{Solvable: true}, nil
	}

	words := (len(l.Tiles) + 63) / 64
	start := solverNode{cell: CellAt(spawn), broken: make([]uint64, words), parent: -1}
	nodes := []solverNode{start}
	seen := map[string]bool{solverKey(start.cell, start.broken): true}

	for head := 0; head < len(nodes); head++ {
		if len(nodes) > MaxSolverStates {
			return &Solution{Explored: len(nodes)}, errors.New("solver: state limit reached")
		}
		cur := nodes[head]
		for _, d := range AllDirections {
			end, passed, escaped := slide(l, cur.cell, d)
			if escaped || end == cur.cell {
				continue
			}
			broken := append([]uint64(nil), cur.broken...)
			for _, c := range passed {
				if t, ok := l.tileAt[c]; ok {
					broken[t.ID/64] |= 1 << (uint(t.ID) % 64)
				}
			}
			key := solverKey(end, broken)
			if seen[key] {
				continue
			}
			seen[key] = true
			nodes = append(nodes, solverNode{cell: end, broken: broken, parent: head, dir: d})
			if allBroken(broken, len(l.Tiles)) {
				return buildSolution(nodes, len(nodes)-1), nil
			}
		}
	}
	return &Solution{Explored: len(nodes)}, nil
}

// slide walks from c in dir until the next cell is a wall. It returns the
// stop cell and every cell passed, including the start.
func slide(l *Level, c Cell, d Direction) (Cell, []Cell, bool) {
	passed := []Cell{c}
	rows := len(l.Layout)
	for {
		next := c.Step(d)
		if next.Row < 0 || next.Row >= rows || next.Col < 0 || next.Col >= len(l.Layout[next.Row]) {
			return c, passed, true
		}
		if l.wallAt[next] {
			return c, passed, false
		}
		c = next
		passed = append(passed, c)
	}
}

func allBroken(mask []uint64, n int) bool {
	for i := 0; i < n; i++ {
		if mask[i/64]&(1<<(uint(i)%64)) == 0 {
			return false
		}
	}
	return true
}

func solverKey(c Cell, mask []uint64) string {
	b := make([]byte, 0, 8+len(mask)*8)
	b = append(b, byte(c.Col), byte(c.Col>>8), byte(c.Row), byte(c.Row>>8))
	for _, w := range mask {
		for i := 0; i < 8; i++ {
			b = append(b, byte(w>>(8*i)))
		}
	}
	return string(b)
}

func buildSolution(nodes []solverNode, last int) *Solution {
	var moves []Direction
	distance := 0
	for i := last; nodes[i].parent >= 0; i = nodes[i].parent {
		moves = append(moves, nodes[i].dir)
		distance += ManhattanDistance(nodes[nodes[i].parent].cell, nodes[i].cell)
	}
	for i, j := 0, len(moves)-1; i < j; i, j = i+1, j-1 {
		moves[i], moves[j] = moves[j], moves[i]
	}
	path := make([]string, len(moves))
	for i, m := range moves {
		path[i] = m.String()
	}
	return &Solution{Solvable: true, Moves: moves, Path: path, Distance: distance, Explored: len(nodes)}
}
