// Command analyze prints quick, human-readable reports about the level files
// in a directory. It summarizes dimensions, stone counts and start distances,
// then solves each level and reports the optimal move count together with
// how the breadth-first search grew level by level.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/stone-slide/game/engine"
)

// LevelReport is the analysis of one level file
type LevelReport struct {
	File      string
	Name      string
	Rows      int
	Width     int
	Stones    int
	OpenTiles int
	Distance  int // summed Manhattan distance from the start

	Status   string // solved, exhausted, limit, timeout, invalid
	Moves    int
	Solution string
	Stats    engine.Stats
	Err      error
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "Validate and solve every level in a directory",
		ArgsUsage: "[levels-dir]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU(), Usage: "Goroutines used to expand each search level"},
			&cli.IntFlag{Name: "max-states", Value: 2_000_000, Usage: "Give up on a level after this many distinct states"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "Time limit per level"},
			&cli.BoolFlag{Name: "levels", Usage: "Print per-depth search statistics"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = "levels"
			}
			opts := analyzeOptions{
				solverOpts: []engine.SolverOption{
					engine.WithWorkers(cmd.Int("workers")),
					engine.WithMaxStates(cmd.Int("max-states")),
				},
				timeout:    cmd.Duration("timeout"),
				showLevels: cmd.Bool("levels"),
			}
			return analyzeDir(ctx, os.Stdout, dir, opts)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type analyzeOptions struct {
	solverOpts []engine.SolverOption
	timeout    time.Duration
	showLevels bool
}

// analyzeDir reports on every level file in dir followed by a summary table
func analyzeDir(ctx context.Context, w io.Writer, dir string, opts analyzeOptions) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read levels directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := engine.FormatForPath(entry.Name()); ok {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		fmt.Fprintf(w, "No level files found in %s\n", dir)
		return nil
	}

	reports := make([]LevelReport, 0, len(files))
	for _, file := range files {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", file)
		report := analyzeLevel(ctx, filepath.Join(dir, file), opts)
		printReport(w, report, opts.showLevels)
		reports = append(reports, report)
	}

	printSummary(w, reports)
	return nil
}

// analyzeLevel loads, measures and solves one level file
func analyzeLevel(ctx context.Context, path string, opts analyzeOptions) LevelReport {
	report := LevelReport{File: filepath.Base(path)}

	level, err := engine.LoadLevelConfig(path)
	if err != nil {
		report.Status = "invalid"
		report.Err = err
		return report
	}
	grid, initial, err := engine.NewPuzzle(level)
	if err != nil {
		report.Status = "invalid"
		report.Err = err
		return report
	}

	report.Name = level.Name
	report.Rows = grid.Rows()
	report.Width = grid.Width()
	report.Stones = grid.StoneCount()
	report.OpenTiles = grid.OpenTiles()
	report.Distance = engine.RemainingDistance(initial)

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	result, err := engine.NewSolver(opts.solverOpts...).Solve(ctx, initial)
	var noSolution *engine.NoSolutionError
	switch {
	case err == nil:
		report.Status = string(result.Status)
		report.Moves = result.MoveCount()
		report.Solution = engine.FormatSolution(result.Solution)
		report.Stats = result.Stats
	case errors.As(err, &noSolution):
		report.Status = string(engine.Exhausted)
		report.Stats = noSolution.Stats
	case errors.Is(err, engine.ErrSearchLimit):
		report.Status = "limit"
		report.Err = err
	case errors.Is(err, context.DeadlineExceeded):
		report.Status = "timeout"
		report.Err = err
	default:
		report.Status = "error"
		report.Err = err
	}

	return report
}

func printReport(w io.Writer, r LevelReport, showLevels bool) {
	if r.Status == "invalid" {
		fmt.Fprintf(w, "❌ Invalid level: %v\n", r.Err)
		return
	}

	fmt.Fprintf(w, "Name: %s\n", r.Name)
	fmt.Fprintf(w, "Grid: %d x %d (%d open tiles)\n", r.Rows, r.Width, r.OpenTiles)
	fmt.Fprintf(w, "Stones: %d\n", r.Stones)
	fmt.Fprintf(w, "Start distance: %d\n", r.Distance)

	switch r.Status {
	case string(engine.Solved):
		fmt.Fprintf(w, "✅ Solved in %d moves: %s\n", r.Moves, r.Solution)
	case string(engine.Exhausted):
		fmt.Fprintf(w, "⚠️  No solution: explored %d states across %d levels\n", r.Stats.Visited, r.Stats.Depth())
	default:
		fmt.Fprintf(w, "⚠️  Search stopped (%s): %v\n", r.Status, r.Err)
		return
	}

	fmt.Fprintf(w, "Search: %d states visited, %d expanded, %s\n", r.Stats.Visited, r.Stats.Expanded, r.Stats.Duration.Round(time.Microsecond))

	if showLevels {
		for _, level := range r.Stats.Levels {
			fmt.Fprintf(w, "   depth %3d: frontier %6d, generated %7d, new %6d, visited %7d\n",
				level.Depth, level.Frontier, level.Generated, level.Admitted, level.Visited)
		}
	}
}

func printSummary(w io.Writer, reports []LevelReport) {
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(w, "%-24s %-10s %6s %10s\n", "LEVEL", "STATUS", "MOVES", "VISITED")

	counts := make(map[string]int)
	for _, r := range reports {
		counts[r.Status]++
		moves := "-"
		if r.Status == string(engine.Solved) {
			moves = fmt.Sprintf("%d", r.Moves)
		}
		fmt.Fprintf(w, "%-24s %-10s %6s %10d\n", r.File, r.Status, moves, r.Stats.Visited)
	}

	fmt.Fprintf(w, "\n%d levels: %d solved, %d without solution, %d not finished\n",
		len(reports), counts[string(engine.Solved)], counts[string(engine.Exhausted)],
		len(reports)-counts[string(engine.Solved)]-counts[string(engine.Exhausted)])
}
