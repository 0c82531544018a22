package service

import (
	"time"

	"github.com/wricardo/stone-slide/game/engine"
)

// SessionInfo provides information about a puzzle session
type SessionInfo struct {
	ID             string              `json:"id"`
	LevelID        string              `json:"level_id"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	Puzzle         *PuzzleView         `json:"puzzle"`
	Level          *engine.LevelConfig `json:"level,omitempty"`
}

// PuzzleView is the serializable snapshot of a puzzle state
type PuzzleView struct {
	Board          []string                          `json:"board"`
	Stones         map[engine.StoneID]engine.Position `json:"stones"`
	Targets        map[engine.StoneID]engine.Position `json:"targets"`
	Moves          []engine.Move                     `json:"moves"`
	MoveCount      int                               `json:"move_count"`
	StonesOnTarget int                               `json:"stones_on_target"`
	TotalStones    int                               `json:"total_stones"`
	Distance       int                               `json:"distance"` // summed Manhattan distance to destinations
	Solved         bool                              `json:"solved"`
	PossibleMoves  []engine.Move                     `json:"possible_moves"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success bool            `json:"success"`
	Puzzle  *PuzzleView     `json:"puzzle"`
	Message string          `json:"message"`
	Move    engine.Move     `json:"move"`
	From    engine.Position `json:"from"`
	To      engine.Position `json:"to"`
	Events  []PuzzleEvent   `json:"events,omitempty"`
}

// SolveOptions tunes a single solve request
type SolveOptions struct {
	// Progress receives per-depth statistics while the search runs
	Progress func(engine.LevelStats) `json:"-"`
}

// SolveResult reports a found solution
type SolveResult struct {
	LevelID   string          `json:"level_id"`
	SessionID string          `json:"session_id,omitempty"`
	Status    engine.Status   `json:"status"`
	Solution  []engine.Move   `json:"solution"`
	MoveCount int             `json:"move_count"`
	Stats     engine.Stats    `json:"stats"`
	Start     []string        `json:"start"`
	Final     []string        `json:"final"`
	Message   string          `json:"message"`
	Summary   string          `json:"summary"`
}

// PuzzleEvent represents something that happened while playing
type PuzzleEvent struct {
	Type      string    `json:"type"` // "reset", "move", "stone_on_target", "solved"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// LevelInfo provides information about a level file
type LevelInfo struct {
	Filename    string `json:"filename"`
	LevelID     string `json:"level_id"` // The identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Format      string `json:"format"`
	Rows        int    `json:"rows"`
	Width       int    `json:"width"`
	Stones      int    `json:"stones"`
}

// NewPuzzleView builds the view of a state
func NewPuzzleView(state *engine.State) *PuzzleView {
	grid := state.Grid()
	targets := make(map[engine.StoneID]engine.Position, grid.StoneCount())
	for _, stone := range grid.Stones() {
		if pos, ok := grid.Target(stone); ok {
			targets[stone] = pos
		}
	}

	moves := state.Moves()
	possible := engine.PossibleMoves(state)
	if possible == nil {
		possible = []engine.Move{}
	}

	return &PuzzleView{
		Board:          engine.RenderRows(state),
		Stones:         state.Positions(),
		Targets:        targets,
		Moves:          moves,
		MoveCount:      len(moves),
		StonesOnTarget: state.StonesOnTarget(),
		TotalStones:    grid.StoneCount(),
		Distance:       engine.RemainingDistance(state),
		Solved:         state.IsGoal(),
		PossibleMoves:  possible,
	}
}
