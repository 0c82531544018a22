package service

import (
	"context"
	"time"

	"github.com/wricardo/stone-slide/game/engine"
)

// PuzzleService defines all puzzle-related operations
type PuzzleService interface {
	// Session Management
	CreateSession(ctx context.Context, levelID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Puzzle Operations
	Move(ctx context.Context, sessionID string, move engine.Move, reset bool) (*MoveResult, error)
	Reset(ctx context.Context, sessionID string) (*PuzzleView, error)
	GetPuzzle(ctx context.Context, sessionID string) (*PuzzleView, error)

	// Solving
	Solve(ctx context.Context, sessionID string, opts SolveOptions) (*SolveResult, error)
	SolveLevel(ctx context.Context, levelID string, opts SolveOptions) (*SolveResult, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelID string) (*engine.LevelConfig, error)
	SaveLevel(ctx context.Context, levelID string, level *engine.LevelConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, levelID string, level *engine.LevelConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// LevelManager handles level loading
type LevelManager interface {
	LoadLevel(name string) (*engine.LevelConfig, error)
	ListLevels() ([]*LevelInfo, error)
	DefaultLevelID() string
	SaveLevel(name string, level *engine.LevelConfig) error
}

// Session represents an active puzzle session
type Session struct {
	ID             string
	LevelID        string
	Engine         *engine.PuzzleEngine
	Level          *engine.LevelConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
