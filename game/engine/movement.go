package engine

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove      = errors.New("illegal move")
	ErrUnknownStone     = errors.New("unknown stone")
	ErrUnknownDirection = errors.New("unknown direction")
)

// slideTarget walks a stone from its position in direction d until the next
// tile is a wall, lies outside the grid or holds another stone. It returns the
// last free tile passed and the number of tiles travelled.
func (s *State) slideTarget(idx int, d Direction) (Position, int) {
	current := s.positions[idx]
	distance := 0

	for {
		next := current.Add(d)
		if s.grid.Blocked(next) || s.Occupied(next) {
			return current, distance
		}
		current = next
		distance++
	}
}

// CanSlide reports whether the stone would travel at least one tile
func (s *State) CanSlide(stone StoneID, d Direction) bool {
	idx, ok := s.grid.stoneIndex[stone]
	if !ok {
		return false
	}
	_, distance := s.slideTarget(idx, d)
	return distance > 0
}

// Slide pushes one stone and returns the resulting state. The second result
// is false when the stone is blocked immediately, which is not a move.
func Slide(s *State, stone StoneID, d Direction) (*State, bool) {
	idx, ok := s.grid.stoneIndex[stone]
	if !ok {
		return nil, false
	}

	to, distance := s.slideTarget(idx, d)
	if distance == 0 {
		return nil, false
	}

	return s.derive(idx, to, Move{Stone: stone, Direction: d}), true
}

// Successors returns every state reachable from s with one slide. Stones are
// visited in canonical order and directions in Up, Down, Left, Right order.
// Two different moves may yield the same stone positions; deduplication is
// left to the visited set.
func Successors(s *State) []*State {
	next := make([]*State, 0, len(s.positions)*len(Directions))
	for _, stone := range s.grid.stones {
		for _, d := range Directions {
			if successor, ok := Slide(s, stone, d); ok {
				next = append(next, successor)
			}
		}
	}
	return next
}

// Apply plays a single move and reports why it could not be played
func Apply(s *State, m Move) (*State, error) {
	if !s.grid.HasStone(m.Stone) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStone, m.Stone)
	}
	if m.Direction > Right {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDirection, m.Direction)
	}

	next, ok := Slide(s, m.Stone, m.Direction)
	if !ok {
		from, _ := s.Position(m.Stone)
		return nil, fmt.Errorf("%w: stone %s at %s is blocked moving %s", ErrIllegalMove, m.Stone, from, m.Direction)
	}
	return next, nil
}

// Replay applies moves in order starting from s
func Replay(s *State, moves []Move) (*State, error) {
	current := s
	for i, m := range moves {
		next, err := Apply(current, m)
		if err != nil {
			return nil, fmt.Errorf("move %d (%s): %w", i+1, m, err)
		}
		current = next
	}
	return current, nil
}

// PossibleMoves lists the moves that would change the state
func PossibleMoves(s *State) []Move {
	var moves []Move
	for _, stone := range s.grid.stones {
		for _, d := range Directions {
			if s.CanSlide(stone, d) {
				moves = append(moves, Move{Stone: stone, Direction: d})
			}
		}
	}
	return moves
}
