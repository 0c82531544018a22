package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Fingerprint is the canonical deduplication key of a state. It encodes every
// (stone, position) pair in canonical stone order, so two states share a
// fingerprint exactly when their stone positions are identical.
type Fingerprint string

// State is an immutable snapshot of stone positions plus the moves that led
// to it from the initial state.
type State struct {
	grid      *Grid
	positions []Position // indexed like grid.stones
	moves     []Move
	key       Fingerprint
}

// NewState builds a state from a stone position mapping. Every stone of the
// grid must be present. Distinctness and open tiles are the caller's
// responsibility.
func NewState(grid *Grid, positions map[StoneID]Position, moves []Move) (*State, error) {
	if grid == nil {
		return nil, fmt.Errorf("grid cannot be nil")
	}
	if len(positions) != grid.StoneCount() {
		return nil, fmt.Errorf("%w: expected %d stone positions, got %d", ErrUnknownStone, grid.StoneCount(), len(positions))
	}

	ordered := make([]Position, grid.StoneCount())
	for stone, pos := range positions {
		idx, ok := grid.stoneIndex[stone]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStone, stone)
		}
		ordered[idx] = pos
	}

	return newState(grid, ordered, append([]Move(nil), moves...)), nil
}

// newState takes ownership of positions and moves
func newState(grid *Grid, positions []Position, moves []Move) *State {
	s := &State{
		grid:      grid,
		positions: positions,
		moves:     moves,
	}
	s.key = s.computeFingerprint()
	return s
}

// derive returns a successor with one stone relocated and the move appended.
// Both slices are copied so the parent is never aliased.
func (s *State) derive(idx int, to Position, m Move) *State {
	positions := make([]Position, len(s.positions))
	copy(positions, s.positions)
	positions[idx] = to

	moves := make([]Move, len(s.moves), len(s.moves)+1)
	copy(moves, s.moves)
	moves = append(moves, m)

	return newState(s.grid, positions, moves)
}

func (s *State) computeFingerprint() Fingerprint {
	var b strings.Builder
	for i, pos := range s.positions {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(string(s.grid.stones[i]))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(pos.Row))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(pos.Col))
	}
	return Fingerprint(b.String())
}

// Grid returns the board this state lives on
func (s *State) Grid() *Grid {
	return s.grid
}

// Fingerprint returns the canonical key of the stone positions
func (s *State) Fingerprint() Fingerprint {
	return s.key
}

// Position returns the current position of a stone
func (s *State) Position(stone StoneID) (Position, bool) {
	idx, ok := s.grid.stoneIndex[stone]
	if !ok {
		return Position{}, false
	}
	return s.positions[idx], true
}

// Positions returns a copy of the stone position mapping
func (s *State) Positions() map[StoneID]Position {
	result := make(map[StoneID]Position, len(s.positions))
	for i, pos := range s.positions {
		result[s.grid.stones[i]] = pos
	}
	return result
}

// Moves returns a copy of the moves played from the initial state
func (s *State) Moves() []Move {
	return append([]Move(nil), s.moves...)
}

// MoveCount returns the number of moves played
func (s *State) MoveCount() int {
	return len(s.moves)
}

// Occupied reports whether any stone rests on pos
func (s *State) Occupied(pos Position) bool {
	_, ok := s.StoneAt(pos)
	return ok
}

// StoneAt returns the stone resting on pos, if any
func (s *State) StoneAt(pos Position) (StoneID, bool) {
	for i, p := range s.positions {
		if p == pos {
			return s.grid.stones[i], true
		}
	}
	return "", false
}

// IsGoal reports whether every stone rests on its assigned destination
func (s *State) IsGoal() bool {
	for i, pos := range s.positions {
		target, ok := s.grid.Target(s.grid.stones[i])
		if !ok || pos != target {
			return false
		}
	}
	return true
}

// StonesOnTarget counts stones already resting on their destination
func (s *State) StonesOnTarget() int {
	count := 0
	for i, pos := range s.positions {
		if target, ok := s.grid.Target(s.grid.stones[i]); ok && pos == target {
			count++
		}
	}
	return count
}
