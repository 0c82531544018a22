// Package service provides the business logic layer for the stone slide puzzle.
//
// The service package implements:
//   - Multi-session puzzle management
//   - Level catalog access (list, load, save)
//   - Move processing and validation
//   - Solving a level or a session's current position
//   - Search progress reporting for transports
//
// Core Interfaces:
//
// PuzzleService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LevelManager loads and validates level files.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the engine. Each session owns its own PuzzleEngine; the solver itself is
// stateless and shared.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	levelMgr, _ := config.NewManager("levels")
//	puzzleService := service.NewPuzzleService(sessionMgr, levelMgr, logger)
//
//	info, err := puzzleService.CreateSession(ctx, "corridor")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := puzzleService.Solve(ctx, info.ID, service.SolveOptions{})
//	if errors.Is(err, engine.ErrNoSolution) {
//		// report unsolvable position
//	}
package service
