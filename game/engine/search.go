package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNoSolution  = errors.New("no solution")
	ErrSearchLimit = errors.New("search state limit reached")
)

// Status is the state of the search driver
type Status string

const (
	Running   Status = "running"
	Solved    Status = "solved"
	Exhausted Status = "exhausted"
)

// LevelStats describes one breadth-first level after it was expanded
type LevelStats struct {
	Depth     int `json:"depth"`
	Frontier  int `json:"frontier"`  // states expanded at this depth
	Generated int `json:"generated"` // successors produced, duplicates included
	Admitted  int `json:"admitted"`  // new states queued for the next depth
	Visited   int `json:"visited"`   // visited set size after the level
}

// Stats summarizes a search run
type Stats struct {
	Levels    []LevelStats  `json:"levels"`
	Expanded  int           `json:"expanded"`
	Generated int           `json:"generated"`
	Visited   int           `json:"visited"`
	Duration  time.Duration `json:"duration"`
}

// Depth returns the number of levels that were fully expanded
func (s Stats) Depth() int {
	return len(s.Levels)
}

// Result is the outcome of a successful search
type Result struct {
	Status   Status `json:"status"`
	Solution []Move `json:"solution"`
	Stats    Stats  `json:"stats"`

	// Goal is the terminal state; its Moves equal Solution
	Goal *State `json:"-"`
}

// MoveCount returns the length of the solution
func (r *Result) MoveCount() int {
	return len(r.Solution)
}

// NoSolutionError is returned when the frontier empties without reaching a
// goal. It matches ErrNoSolution with errors.Is.
type NoSolutionError struct {
	Stats Stats
}

func (e *NoSolutionError) Error() string {
	return fmt.Sprintf("no solution: explored %d states across %d levels", e.Stats.Visited, e.Stats.Depth())
}

// Unwrap exposes ErrNoSolution
func (e *NoSolutionError) Unwrap() error {
	return ErrNoSolution
}

// SolverOption configures a Solver
type SolverOption func(*Solver)

// WithWorkers expands each frontier with up to n goroutines. Values below 2
// keep the search on the calling goroutine.
func WithWorkers(n int) SolverOption {
	return func(s *Solver) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// WithMaxStates aborts the search with ErrSearchLimit once more than n
// distinct states were visited. Zero means unlimited.
func WithMaxStates(n int) SolverOption {
	return func(s *Solver) {
		s.maxStates = n
	}
}

// WithProgress registers a hook called after every expanded level
func WithProgress(fn func(LevelStats)) SolverOption {
	return func(s *Solver) {
		s.progress = fn
	}
}

// Solver runs a breadth-first search over slide moves. A Solver holds only
// configuration and may be reused for any number of searches.
type Solver struct {
	workers   int
	maxStates int
	progress  func(LevelStats)
}

// NewSolver creates a solver
func NewSolver(opts ...SolverOption) *Solver {
	s := &Solver{workers: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve finds a solution with the fewest moves from initial. It returns a
// *NoSolutionError when no goal is reachable. The context is checked between
// levels.
func (s *Solver) Solve(ctx context.Context, initial *State) (*Result, error) {
	if initial == nil {
		return nil, fmt.Errorf("initial state cannot be nil")
	}

	start := time.Now()
	stats := Stats{}

	finish := func(goal *State) *Result {
		stats.Duration = time.Since(start)
		return &Result{
			Status:   Solved,
			Solution: goal.Moves(),
			Stats:    stats,
			Goal:     goal,
		}
	}

	visited := NewVisitedSet()
	visited.Insert(initial)
	stats.Visited = visited.Len()

	if initial.IsGoal() {
		return finish(initial), nil
	}

	frontier := []*State{initial}
	for depth := 1; len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search cancelled at depth %d: %w", depth, err)
		}

		batches, err := s.expand(ctx, frontier)
		if err != nil {
			return nil, err
		}

		level := LevelStats{Depth: depth, Frontier: len(frontier)}
		var next []*State
		for _, successors := range batches {
			level.Generated += len(successors)
			for _, successor := range successors {
				if successor.IsGoal() {
					stats.record(level, visited.Len())
					s.report(stats)
					return finish(successor), nil
				}
				if visited.TryInsert(successor) {
					next = append(next, successor)
				}
			}
		}

		level.Admitted = len(next)
		stats.record(level, visited.Len())
		s.report(stats)

		if s.maxStates > 0 && stats.Visited > s.maxStates {
			stats.Duration = time.Since(start)
			return nil, fmt.Errorf("%w: %d states visited at depth %d", ErrSearchLimit, stats.Visited, depth)
		}

		frontier = next
	}

	stats.Duration = time.Since(start)
	return nil, &NoSolutionError{Stats: stats}
}

// expand generates the successors of every frontier state. Results keep the
// frontier order regardless of how many workers ran.
func (s *Solver) expand(ctx context.Context, frontier []*State) ([][]*State, error) {
	batches := make([][]*State, len(frontier))

	if s.workers <= 1 || len(frontier) == 1 {
		for i, state := range frontier {
			batches[i] = Successors(state)
		}
		return batches, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, state := range frontier {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batches[i] = Successors(state)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("expanding frontier: %w", err)
	}
	return batches, nil
}

func (s *Solver) report(stats Stats) {
	if s.progress != nil && len(stats.Levels) > 0 {
		s.progress(stats.Levels[len(stats.Levels)-1])
	}
}

func (s *Stats) record(level LevelStats, visited int) {
	level.Visited = visited
	s.Levels = append(s.Levels, level)
	s.Expanded += level.Frontier
	s.Generated += level.Generated
	s.Visited = visited
}
