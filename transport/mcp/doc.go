// Package mcp exposes the puzzle to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool calls the REST API, so an agent sees
// the same sessions as the web UI and the websocket listeners.
//
// Tools:
//   - list_levels: List the level catalog
//   - create_session: Start a session for a level
//   - get_session, list_sessions: Inspect sessions
//   - puzzle_state: Board, stones, destinations and legal moves
//   - move: Slide one stone
//   - reset_puzzle: Restore the initial layout
//   - solve: Shortest solution from the session's current position
//   - solve_level: Shortest solution of a level from its start
//   - puzzle_instructions: Rules and tips
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
