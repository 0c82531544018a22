// Command validate checks level files in a directory (default ../levels). It checks:
//   - Structure: legend, layout and stone/destination placement
//   - Connectivity: every stone shares an open region with its destination
//   - Stopping points: a stone can come to rest on its destination
//
// It exits with non-zero status if any level is invalid.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/stone-slide/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateLevel loads and validates a single level file
func validateLevel(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	level, err := engine.LoadLevelConfig(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	grid, initial, err := engine.NewPuzzle(level)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	connectivity := validateConnectivity(grid, initial)
	if !connectivity.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, connectivity.Errors...)

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", level.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", grid.Rows(), grid.Width()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Stones: %d", grid.StoneCount()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Open tiles: %d", grid.OpenTiles()))
	}

	return result
}

// validateConnectivity ensures every stone can reach its destination using
// 4-directional steps over open tiles, and that the destination offers a
// place to stop. Slides only cover a subset of those steps, so a failure
// here proves the level unsolvable.
func validateConnectivity(grid *engine.Grid, initial *engine.State) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	stones := grid.Stones()
	if len(stones) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Cannot validate connectivity: no stones")
		return result
	}

	var unreachable, needBlocker []string
	for _, stone := range stones {
		start, _ := initial.Position(stone)
		target, ok := grid.Target(stone)
		if !ok {
			unreachable = append(unreachable, fmt.Sprintf("Stone %s has no destination", stone))
			continue
		}

		if !region(grid, start)[target] {
			unreachable = append(unreachable, fmt.Sprintf("Stone %s at %s cannot reach %s", stone, start, target))
			continue
		}

		if start != target && !hasWallStop(grid, target) {
			needBlocker = append(needBlocker, string(stone))
		}
	}

	if len(unreachable) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Connectivity failure: %d/%d stones cannot reach their destination", len(unreachable), len(stones)))
		result.Errors = append(result.Errors, unreachable...)
		return result
	}

	// With a single stone nothing else can serve as a blocker
	if len(needBlocker) > 0 && len(stones) == 1 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Stone %s can never stop on its destination", needBlocker[0]))
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: All %d stones can reach their destination", len(stones)))
	if len(needBlocker) > 0 {
		sort.Strings(needBlocker)
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Needs another stone as blocker: %s", strings.Join(needBlocker, ", ")))
	}

	return result
}

// region flood fills the open tiles connected to start
func region(grid *engine.Grid, start engine.Position) map[engine.Position]bool {
	visited := map[engine.Position]bool{start: true}
	queue := []engine.Position{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range engine.Directions {
			next := current.Add(d)
			if visited[next] || grid.Blocked(next) {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	return visited
}

// hasWallStop reports whether a stone sliding into pos can be stopped by a
// wall or the board edge on the far side
func hasWallStop(grid *engine.Grid, pos engine.Position) bool {
	for _, d := range engine.Directions {
		if grid.Blocked(pos.Add(d)) {
			return true
		}
	}
	return false
}

// levelFiles lists every file in dir with a level extension
func levelFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := engine.FormatForPath(entry.Name()); ok {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// errInvalidLevels is returned when at least one level fails validation
var errInvalidLevels = errors.New("some levels have errors")

func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "Check level files for structural and connectivity errors",
		ArgsUsage: "[levels-dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = "../levels"
			}
			return validateDir(os.Stdout, dir)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// validateDir validates every level file in dir and prints a concise report
func validateDir(w io.Writer, dir string) error {
	files, err := levelFiles(dir)
	if err != nil {
		return fmt.Errorf("error finding level files: %w", err)
	}

	allValid := true
	for _, file := range files {
		result := validateLevel(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Fprintln(w, "❌ Some levels have errors")
		return errInvalidLevels
	}
	fmt.Fprintln(w, "✅ All levels are valid!")
	return nil
}
