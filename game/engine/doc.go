// Package engine provides the core logic of the stone slide puzzle.
//
// A grid holds stones, each assigned to one destination tile. A pushed stone
// slides in a cardinal direction until the next tile is a wall, lies outside
// the grid or holds another stone. The puzzle is solved when every stone rests
// on its destination.
//
// The engine package implements:
//   - Grid, the immutable board (tiles, stone to destination assignment)
//   - State, an immutable snapshot of stone positions and the moves played
//   - Slide and Successors, the maximal-slide move rule
//   - VisitedSet, fingerprint based deduplication
//   - Solver, a level-by-level breadth-first search returning a shortest solution
//   - Level parsing and validation for text, JSON and YAML level files
//
// Usage:
//
//	config, err := engine.LoadLevelConfig("levels/corridor.txt")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	_, initial, err := engine.NewPuzzle(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := engine.NewSolver().Solve(ctx, initial)
//	if errors.Is(err, engine.ErrNoSolution) {
//		fmt.Println("unsolvable")
//	}
//	fmt.Println(engine.FormatSolution(result.Solution))
//
// Search:
//
// The solver expands one full depth before the next, so the first goal it
// meets has the fewest moves. A state is admitted to the next frontier only
// if its fingerprint was not seen before. When the frontier empties the
// solver returns a *NoSolutionError carrying the search statistics.
package engine
