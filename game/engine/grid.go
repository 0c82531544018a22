package engine

import (
	"fmt"
	"sort"
)

// Grid is the static puzzle board. It is built once by the loader and only
// read afterwards, so it can be shared freely between goroutines.
type Grid struct {
	tiles        [][]TileKind
	width        int
	stones       []StoneID // canonical order
	stoneIndex   map[StoneID]int
	destinations map[StoneID]DestinationID
	destPos      map[DestinationID]Position
}

// NewGrid builds a grid from tile rows, the stone to destination assignment
// and the destination positions. Rows may be ragged; tiles past the end of a
// row are walls.
func NewGrid(tiles [][]TileKind, assignment map[StoneID]DestinationID, destPos map[DestinationID]Position) (*Grid, error) {
	g := &Grid{
		tiles:        make([][]TileKind, len(tiles)),
		stones:       make([]StoneID, 0, len(assignment)),
		stoneIndex:   make(map[StoneID]int, len(assignment)),
		destinations: make(map[StoneID]DestinationID, len(assignment)),
		destPos:      make(map[DestinationID]Position, len(destPos)),
	}

	for i, row := range tiles {
		g.tiles[i] = append([]TileKind(nil), row...)
		if len(row) > g.width {
			g.width = len(row)
		}
	}

	seen := make(map[DestinationID]StoneID, len(assignment))
	for stone, dest := range assignment {
		if other, dup := seen[dest]; dup {
			return nil, fmt.Errorf("destination %s assigned to both %s and %s", dest, other, stone)
		}
		seen[dest] = stone

		pos, ok := destPos[dest]
		if !ok {
			return nil, fmt.Errorf("destination %s of stone %s has no position", dest, stone)
		}
		if g.Tile(pos) != Open {
			return nil, fmt.Errorf("destination %s at %s is not an open tile", dest, pos)
		}

		g.stones = append(g.stones, stone)
		g.destinations[stone] = dest
		g.destPos[dest] = pos
	}

	sort.Slice(g.stones, func(i, j int) bool { return g.stones[i] < g.stones[j] })
	for i, stone := range g.stones {
		g.stoneIndex[stone] = i
	}

	return g, nil
}

// Rows returns the number of rows
func (g *Grid) Rows() int {
	return len(g.tiles)
}

// Width returns the length of the longest row
func (g *Grid) Width() int {
	return g.width
}

// InBounds reports whether pos lies inside a row of the grid
func (g *Grid) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < len(g.tiles) && pos.Col >= 0 && pos.Col < len(g.tiles[pos.Row])
}

// Tile returns the kind of tile at pos. Out of bounds positions are walls.
func (g *Grid) Tile(pos Position) TileKind {
	if !g.InBounds(pos) {
		return Wall
	}
	return g.tiles[pos.Row][pos.Col]
}

// Blocked reports whether a stone can never enter pos
func (g *Grid) Blocked(pos Position) bool {
	return g.Tile(pos) == Wall
}

// Stones returns the stone ids in canonical order
func (g *Grid) Stones() []StoneID {
	return append([]StoneID(nil), g.stones...)
}

// StoneCount returns the number of stones
func (g *Grid) StoneCount() int {
	return len(g.stones)
}

// HasStone reports whether the grid knows the stone
func (g *Grid) HasStone(stone StoneID) bool {
	_, ok := g.stoneIndex[stone]
	return ok
}

// DestinationOf returns the destination assigned to a stone
func (g *Grid) DestinationOf(stone StoneID) (DestinationID, bool) {
	dest, ok := g.destinations[stone]
	return dest, ok
}

// DestinationPosition returns the fixed position of a destination
func (g *Grid) DestinationPosition(dest DestinationID) (Position, bool) {
	pos, ok := g.destPos[dest]
	return pos, ok
}

// Target returns the position a stone has to reach
func (g *Grid) Target(stone StoneID) (Position, bool) {
	dest, ok := g.destinations[stone]
	if !ok {
		return Position{}, false
	}
	return g.DestinationPosition(dest)
}

// OpenTiles counts the open tiles of the grid
func (g *Grid) OpenTiles() int {
	count := 0
	for _, row := range g.tiles {
		for _, tile := range row {
			if tile == Open {
				count++
			}
		}
	}
	return count
}
