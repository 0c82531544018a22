package engine

import (
	"fmt"
	"strings"
)

// TileKind represents the static kind of a grid tile
type TileKind uint8

const (
	Wall TileKind = iota
	Open
)

// WallChar marks a wall tile in level layouts
const WallChar = 'X'

// String returns the tile kind name
func (k TileKind) String() string {
	if k == Open {
		return "open"
	}
	return "wall"
}

// StoneID identifies a movable stone
type StoneID string

// DestinationID identifies a fixed destination tile
type DestinationID string

// Position represents row,column coordinates
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Add returns the position one step away in the given direction
func (p Position) Add(d Direction) Position {
	dr, dc := d.Delta()
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Direction is one of the four cardinal slide directions
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every direction in generation order
var Directions = [4]Direction{Up, Down, Left, Right}

// Delta returns the unit vector (row, col) of the direction
func (d Direction) Delta() (int, int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// MarshalText encodes the direction by name
func (d Direction) MarshalText() ([]byte, error) {
	if d > Right {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDirection, d)
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction from its name or its initial
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection accepts "up", "down", "left", "right" or their initials, case-insensitive
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Move is a single stone slide
type Move struct {
	Stone     StoneID   `json:"stone"`
	Direction Direction `json:"direction"`
}

func (m Move) String() string {
	return fmt.Sprintf("%s:%s", m.Stone, m.Direction)
}

// FormatSolution renders moves as a comma separated list, e.g. "A right, B up"
func FormatSolution(moves []Move) string {
	if len(moves) == 0 {
		return "(already solved)"
	}
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = fmt.Sprintf("%s %s", m.Stone, m.Direction)
	}
	return strings.Join(parts, ", ")
}
