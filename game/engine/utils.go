package engine

import "strings"

// RenderState draws the board: X for walls, stone ids on stones, destination
// ids on free destinations and spaces elsewhere.
func RenderState(s *State) string {
	g := s.grid

	canvas := make([][]rune, len(g.tiles))
	for r, row := range g.tiles {
		canvas[r] = make([]rune, len(row))
		for c, tile := range row {
			if tile == Wall {
				canvas[r][c] = WallChar
			} else {
				canvas[r][c] = ' '
			}
		}
	}

	for _, dest := range g.destinations {
		pos := g.destPos[dest]
		canvas[pos.Row][pos.Col] = firstRune(string(dest))
	}
	for i, pos := range s.positions {
		canvas[pos.Row][pos.Col] = firstRune(string(g.stones[i]))
	}

	var b strings.Builder
	for _, row := range canvas {
		b.WriteString(strings.TrimRight(string(row), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderRows is RenderState split into rows
func RenderRows(s *State) []string {
	return strings.Split(strings.TrimSuffix(RenderState(s), "\n"), "\n")
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dr := from.Row - to.Row
	if dr < 0 {
		dr = -dr
	}
	dc := from.Col - to.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// RemainingDistance sums each stone's Manhattan distance to its destination
func RemainingDistance(s *State) int {
	total := 0
	for i, pos := range s.positions {
		if target, ok := s.grid.Target(s.grid.stones[i]); ok {
			total += ManhattanDistance(pos, target)
		}
	}
	return total
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return '?'
}
