package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/stone-slide/game/engine"
)

var (
	ErrLevelNotFound   = errors.New("level not found")
	ErrInvalidLevel    = errors.New("invalid level")
	ErrSessionNotFound = errors.New("session not found")
)

// puzzleServiceImpl implements the PuzzleService interface
type puzzleServiceImpl struct {
	sessions   SessionManager
	levels     LevelManager
	logger     logrus.FieldLogger
	solverOpts []engine.SolverOption
	mu         sync.RWMutex
}

// NewPuzzleService creates a new puzzle service instance
func NewPuzzleService(sessions SessionManager, levels LevelManager, logger logrus.FieldLogger, solverOpts ...engine.SolverOption) PuzzleService {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		logger = l
	}
	return &puzzleServiceImpl{
		sessions:   sessions,
		levels:     levels,
		logger:     logger.WithField("component", "puzzle_service"),
		solverOpts: solverOpts,
	}
}

// resolveLevel loads a level or the default one when levelID is empty
func (s *puzzleServiceImpl) resolveLevel(levelID string) (string, *engine.LevelConfig, error) {
	if levelID == "" {
		levelID = s.levels.DefaultLevelID()
	}

	level, err := s.levels.LoadLevel(levelID)
	if err == nil {
		return levelID, level, nil
	}
	if !errors.Is(err, ErrLevelNotFound) {
		return "", nil, fmt.Errorf("failed to load level %s: %w", levelID, err)
	}

	// Provide helpful error message with available options
	available, listErr := s.levels.ListLevels()
	if listErr == nil && len(available) > 0 {
		ids := make([]string, 0, len(available))
		for _, info := range available {
			ids = append(ids, info.LevelID)
		}
		return "", nil, fmt.Errorf("level '%s' not found, available levels: %s: %w", levelID, strings.Join(ids, ", "), ErrLevelNotFound)
	}
	return "", nil, fmt.Errorf("level '%s' not found: %w", levelID, ErrLevelNotFound)
}

func (s *puzzleServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		LevelID:        sess.LevelID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Puzzle:         NewPuzzleView(sess.Engine.GetState()),
		Level:          sess.Level,
	}
}

// touch marks a session as accessed; failures only affect persistence
func (s *puzzleServiceImpl) touch(sessionID string) {
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.logger.WithError(err).WithField("session", sessionID).Debug("Failed to update last access")
	}
}

func (s *puzzleServiceImpl) persist(sessionID, reason string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"session": sessionID,
			"reason":  reason,
		}).Warn("Failed to persist session")
	}
}

// CreateSession creates a new puzzle session
func (s *puzzleServiceImpl) CreateSession(ctx context.Context, levelID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	levelID, level, err := s.resolveLevel(levelID)
	if err != nil {
		return nil, err
	}

	// Let session manager generate the ID
	sess, err := s.sessions.Create("", levelID, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session": sess.ID,
		"level":   levelID,
	}).Info("Session created")

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *puzzleServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.touch(sessionID)

	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *puzzleServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *puzzleServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move slides one stone in a session
func (s *puzzleServiceImpl) Move(ctx context.Context, sessionID string, move engine.Move, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.touch(sessionID)

	// Every state of a level holds the same stones
	if _, ok := sess.Engine.GetState().Position(move.Stone); !ok {
		return nil, fmt.Errorf("stone %q: %w", move.Stone, engine.ErrUnknownStone)
	}

	events := []PuzzleEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, PuzzleEvent{
			Type:      "reset",
			Message:   "Puzzle reset to initial state",
			Timestamp: time.Now(),
		})
	}

	before := sess.Engine.GetState()
	from, _ := before.Position(move.Stone)

	result := &MoveResult{
		Move:   move,
		From:   from,
		To:     from,
		Events: events,
	}

	after, err := sess.Engine.Move(move)
	if err != nil {
		if !errors.Is(err, engine.ErrIllegalMove) {
			return nil, err
		}
		// A blocked slide is a normal outcome, not a request failure
		result.Success = false
		result.Message = fmt.Sprintf("Stone %s cannot slide %s", move.Stone, move.Direction)
		result.Puzzle = NewPuzzleView(before)
		if reset {
			s.persist(sessionID, "reset")
		}
		return result, nil
	}

	to, _ := after.Position(move.Stone)
	result.Success = true
	result.To = to
	result.Puzzle = NewPuzzleView(after)
	result.Message = fmt.Sprintf("Stone %s slid %s from %s to %s", move.Stone, move.Direction, from, to)
	result.Events = append(result.Events, moveEvents(after, move, to)...)

	s.persist(sessionID, "move")
	return result, nil
}

// moveEvents describes what the last slide achieved
func moveEvents(state *engine.State, move engine.Move, to engine.Position) []PuzzleEvent {
	now := time.Now()
	events := []PuzzleEvent{{
		Type:      "move",
		Message:   move.String(),
		Timestamp: now,
	}}

	if target, ok := state.Grid().Target(move.Stone); ok && target == to {
		events = append(events, PuzzleEvent{
			Type:      "stone_on_target",
			Message:   fmt.Sprintf("Stone %s reached its destination", move.Stone),
			Timestamp: now,
		})
	}
	if state.IsGoal() {
		events = append(events, PuzzleEvent{
			Type:      "solved",
			Message:   fmt.Sprintf("Puzzle solved in %d moves", state.MoveCount()),
			Timestamp: now,
		})
	}
	return events
}

// Reset resets a puzzle session to its initial state
func (s *puzzleServiceImpl) Reset(ctx context.Context, sessionID string) (*PuzzleView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.touch(sessionID)

	state := sess.Engine.Reset()
	s.persist(sessionID, "reset")

	return NewPuzzleView(state), nil
}

// GetPuzzle retrieves the current puzzle view
func (s *puzzleServiceImpl) GetPuzzle(ctx context.Context, sessionID string) (*PuzzleView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.touch(sessionID)

	return NewPuzzleView(sess.Engine.GetState()), nil
}

// Solve searches for the shortest continuation from the session's current state.
// The session itself is left untouched.
func (s *puzzleServiceImpl) Solve(ctx context.Context, sessionID string, opts SolveOptions) (*SolveResult, error) {
	s.mu.RLock()
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.mu.RUnlock()
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	state := sess.Engine.GetState()
	levelID := sess.LevelID
	s.mu.RUnlock()
	s.touch(sessionID)

	// States are immutable, so the search runs without holding the service lock
	result, err := s.solve(ctx, levelID, state, opts)
	if err != nil {
		return nil, err
	}
	result.SessionID = sessionID
	return result, nil
}

// SolveLevel solves a catalog level from its initial state
func (s *puzzleServiceImpl) SolveLevel(ctx context.Context, levelID string, opts SolveOptions) (*SolveResult, error) {
	levelID, level, err := s.resolveLevel(levelID)
	if err != nil {
		return nil, err
	}

	_, initial, err := engine.NewPuzzle(level)
	if err != nil {
		return nil, fmt.Errorf("failed to build level %s: %w", levelID, err)
	}

	return s.solve(ctx, levelID, initial, opts)
}

func (s *puzzleServiceImpl) solve(ctx context.Context, levelID string, start *engine.State, opts SolveOptions) (*SolveResult, error) {
	solverOpts := append([]engine.SolverOption{}, s.solverOpts...)
	if opts.Progress != nil {
		solverOpts = append(solverOpts, engine.WithProgress(opts.Progress))
	}

	log := s.logger.WithField("level", levelID)
	log.WithField("moves_played", start.MoveCount()).Debug("Starting search")

	result, err := engine.NewSolver(solverOpts...).Solve(ctx, start)
	if err != nil {
		var noSolution *engine.NoSolutionError
		if errors.As(err, &noSolution) {
			log.WithFields(logrus.Fields{
				"visited": noSolution.Stats.Visited,
				"depth":   noSolution.Stats.Depth(),
			}).Info("Search exhausted without a solution")
		} else {
			log.WithError(err).Warn("Search failed")
		}
		return nil, err
	}

	// The goal carries the moves already played; the solution is what comes after
	played := start.MoveCount()
	solution := result.Solution[played:]

	log.WithFields(logrus.Fields{
		"moves":    len(solution),
		"visited":  result.Stats.Visited,
		"duration": result.Stats.Duration,
	}).Info("Search solved level")

	return &SolveResult{
		LevelID:   levelID,
		Status:    result.Status,
		Solution:  solution,
		MoveCount: len(solution),
		Stats:     result.Stats,
		Start:     engine.RenderRows(start),
		Final:     engine.RenderRows(result.Goal),
		Message:   fmt.Sprintf("Solved in %d moves after visiting %d states", len(solution), result.Stats.Visited),
		Summary:   engine.FormatSolution(solution),
	}, nil
}

// ListLevels returns the level catalog
func (s *puzzleServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel returns a level configuration by id
func (s *puzzleServiceImpl) LoadLevel(ctx context.Context, levelID string) (*engine.LevelConfig, error) {
	_, level, err := s.resolveLevel(levelID)
	return level, err
}

// SaveLevel validates and stores a level
func (s *puzzleServiceImpl) SaveLevel(ctx context.Context, levelID string, level *engine.LevelConfig) error {
	if level == nil {
		return fmt.Errorf("level is required: %w", engine.ErrMalformedLevel)
	}
	if level.Name == "" {
		level.Name = levelID
	}
	if err := engine.ValidateLevelConfig(level); err != nil {
		return err
	}
	if err := s.levels.SaveLevel(levelID, level); err != nil {
		return err
	}
	s.logger.WithField("level", levelID).Info("Level saved")
	return nil
}
