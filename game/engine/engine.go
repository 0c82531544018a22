package engine

import "fmt"

// Engine provides the interactive interface for playing a level by hand
type Engine interface {
	// State management
	GetState() *State
	GetInitialState() *State
	Reset() *State
	IsSolved() bool

	// Movement operations
	Move(move Move) (*State, error)
	CanMove(move Move) bool
	GetPossibleMoves() []Move
	Restore(moves []Move) error

	// Configuration
	GetConfig() *LevelConfig
	GetGrid() *Grid
}

// PuzzleEngine implements the Engine interface. It is not safe for
// concurrent use; callers serialize access.
type PuzzleEngine struct {
	config  *LevelConfig
	grid    *Grid
	initial *State
	state   *State
}

// NewEngine creates a new puzzle engine for the level
func NewEngine(config *LevelConfig) (*PuzzleEngine, error) {
	grid, initial, err := NewPuzzle(config)
	if err != nil {
		return nil, err
	}

	return &PuzzleEngine{
		config:  config,
		grid:    grid,
		initial: initial,
		state:   initial,
	}, nil
}

// GetState returns the current state
func (e *PuzzleEngine) GetState() *State {
	return e.state
}

// GetInitialState returns the state the level starts from
func (e *PuzzleEngine) GetInitialState() *State {
	return e.initial
}

// Reset returns to the initial state
func (e *PuzzleEngine) Reset() *State {
	e.state = e.initial
	return e.state
}

// IsSolved reports whether the current state is a goal
func (e *PuzzleEngine) IsSolved() bool {
	return e.state.IsGoal()
}

// Move slides one stone
func (e *PuzzleEngine) Move(move Move) (*State, error) {
	next, err := Apply(e.state, move)
	if err != nil {
		return e.state, err
	}
	e.state = next
	return e.state, nil
}

// CanMove reports whether the move would change the state
func (e *PuzzleEngine) CanMove(move Move) bool {
	return e.state.CanSlide(move.Stone, move.Direction)
}

// GetPossibleMoves lists every legal move from the current state
func (e *PuzzleEngine) GetPossibleMoves() []Move {
	return PossibleMoves(e.state)
}

// Restore replays moves from the initial state (used for persistence loading)
func (e *PuzzleEngine) Restore(moves []Move) error {
	state, err := Replay(e.initial, moves)
	if err != nil {
		return fmt.Errorf("failed to restore moves: %w", err)
	}
	e.state = state
	return nil
}

// GetConfig returns the level configuration
func (e *PuzzleEngine) GetConfig() *LevelConfig {
	return e.config
}

// GetGrid returns the board
func (e *PuzzleEngine) GetGrid() *Grid {
	return e.grid
}
