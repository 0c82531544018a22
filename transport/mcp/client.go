package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/stone-slide/game/engine"
	"github.com/wricardo/stone-slide/game/service"
)

// Version is reported to MCP clients
const Version = "1.0.0"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// APIError is a non-2xx answer from the REST API
type APIError struct {
	StatusCode int
	Message    string
	Status     string // search status, set for exhausted or limited searches
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Solve requests can run for a while on large levels
			Timeout: 2 * time.Minute,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Stone Slide Puzzle",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Stone Slide Puzzle - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Slide every stone (uppercase letter) onto its destination (matching lowercase letter).
A stone slides until the next tile is a wall (X), another stone, or the board edge.

AVAILABLE TOOLS:
- list_levels: List the level catalog
- create_session: Start playing a level
- get_session / list_sessions: Inspect sessions
- puzzle_state: Show the board of a session
- move: Slide one stone in a direction
- reset_puzzle: Restore the initial layout
- solve: Find the shortest solution from the current position
- solve_level: Find the shortest solution of a level from its start
- puzzle_instructions: Full rules`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List available puzzle levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new puzzle session, optionally for a specific level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Level ID to play (optional, defaults to the server's default level)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active puzzle sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Puzzle operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "puzzle_state",
		Description: "Get the current board, stone positions and legal moves",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handlePuzzleState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide a stone in a direction until it hits a wall, another stone or the edge",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"stone": map[string]interface{}{
					"type":        "string",
					"description": "Stone ID (uppercase letter shown on the board)",
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to slide",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "stone", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_puzzle",
		Description: "Reset the puzzle to its initial layout",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	// Solving
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve",
		Description: "Find the shortest sequence of slides that solves the session from its current position",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleSolve)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve_level",
		Description: "Find the shortest solution of a level from its initial layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Level ID",
				},
			},
			Required: []string{"level"},
		},
	}, c.handleSolveLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "puzzle_instructions",
		Description: "Get the rules of the puzzle and tips for playing it",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp struct {
			Error  string `json:"error"`
			Status string `json:"status"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil {
			apiErr.Message = errResp.Error
			apiErr.Status = errResp.Status
		}
		return apiErr
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID string, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &levels); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, level := range levels {
		fmt.Fprintf(&b, "• %s", level.LevelID)
		if level.Name != "" && level.Name != level.LevelID {
			fmt.Fprintf(&b, " (%s)", level.Name)
		}
		fmt.Fprintf(&b, "\n  %d stones, %d rows x %d cols", level.Stones, level.Rows, level.Width)
		if level.Description != "" {
			fmt.Fprintf(&b, "\n  %s", level.Description)
		}
		b.WriteString("\n\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level := request.GetString("level", "")

	body := map[string]string{}
	if level != "" {
		body["level"] = level
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s", session.ID, session.LevelID, formatPuzzleView(session.Puzzle))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.Puzzle != nil && s.Puzzle.Solved {
			status = "solved"
		}
		moves := 0
		if s.Puzzle != nil {
			moves = s.Puzzle.MoveCount
		}
		fmt.Fprintf(&b, "- %s (Level: %s, Moves: %d, %s, Created: %s)\n",
			s.ID, s.LevelID, moves, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handlePuzzleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var view service.PuzzleView
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/puzzle"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPuzzleView(&view)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	body := map[string]interface{}{
		"stone":     request.GetString("stone", ""),
		"direction": request.GetString("direction", ""),
		"reset":     request.GetBool("reset", false),
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var response struct {
		Message string              `json:"message"`
		Puzzle  *service.PuzzleView `json:"puzzle"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatPuzzleView(response.Puzzle))), nil
}

func (c *Client) handleSolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var result service.SolveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/solve"), nil, &result); err != nil {
		return mcp.NewToolResultError(solveErrorText(err)), nil
	}

	return mcp.NewToolResultText(formatSolveResult(&result)), nil
}

func (c *Client) handleSolveLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level := request.GetString("level", "")
	if level == "" {
		return mcp.NewToolResultError("level is required"), nil
	}

	var result service.SolveResult
	if err := c.apiCall(ctx, "POST", "/api/levels/"+url.PathEscape(level)+"/solve", nil, &result); err != nil {
		return mcp.NewToolResultError(solveErrorText(err)), nil
	}

	return mcp.NewToolResultText(formatSolveResult(&result)), nil
}

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Stone Slide Puzzle - Instructions

OBJECTIVE:
Move every stone onto its own destination. The puzzle is solved when all
stones rest on their destinations at the same time.

BOARD LEGEND:
• X - Wall
• A, B, C... (uppercase) - Stones
• a, b, c... (lowercase) - Destinations; stone A belongs on a, B on b
• (space) - Open floor

MOVEMENT RULES:
• A move picks one stone and one direction (up, down, left, right)
• The stone slides until the next tile is a wall, another stone or the board edge
• A stone cannot stop halfway; it never stops on a destination unless blocked there
• A move that would not change the stone's position is not allowed
• Stones do not push each other

STRATEGY:
1. Look for blockers: a stone only stops on its destination if something is behind it
2. Other stones make good blockers; park them first
3. Use puzzle_state to see which moves are legal right now
4. Use solve to get the shortest sequence from your current position

MOVEMENT COMMANDS:
• move with {"stone": "A", "direction": "right"}
• reset_puzzle to start over

SOLVER:
• solve searches breadth-first, so its answer always uses the fewest moves
• When no sequence can solve the level, solve reports that the search was exhausted

Good luck!`

// Formatting helpers

func solveErrorText(err error) string {
	if apiErr, ok := err.(*APIError); ok && apiErr.Status == string(engine.Exhausted) {
		return fmt.Sprintf("No solution exists from this position: %s", apiErr.Message)
	}
	return err.Error()
}

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", session.ID)
	fmt.Fprintf(&b, "Level: %s\n", session.LevelID)
	fmt.Fprintf(&b, "Created: %s\n", session.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Last accessed: %s\n\n", session.LastAccessedAt.Format(time.RFC3339))
	b.WriteString(formatPuzzleView(session.Puzzle))
	return b.String()
}

func formatPuzzleView(view *service.PuzzleView) string {
	if view == nil {
		return "No puzzle state"
	}

	var b strings.Builder
	b.WriteString("Board:\n")
	for _, row := range view.Board {
		fmt.Fprintf(&b, "  |%s|\n", row)
	}

	stones := make([]string, 0, len(view.Stones))
	for stone := range view.Stones {
		stones = append(stones, string(stone))
	}
	sort.Strings(stones)

	b.WriteString("\nStones:\n")
	for _, id := range stones {
		stone := engine.StoneID(id)
		pos := view.Stones[stone]
		target, ok := view.Targets[stone]
		marker := ""
		if ok && pos == target {
			marker = " ✓"
		}
		fmt.Fprintf(&b, "  %s at %s -> destination %s%s\n", id, pos, target, marker)
	}

	fmt.Fprintf(&b, "\nOn target: %d/%d\n", view.StonesOnTarget, view.TotalStones)
	fmt.Fprintf(&b, "Moves: %d\n", view.MoveCount)
	fmt.Fprintf(&b, "Remaining distance: %d\n", view.Distance)

	if view.Solved {
		b.WriteString("\n🎉 SOLVED!\n")
		return b.String()
	}

	if len(view.PossibleMoves) == 0 {
		b.WriteString("Possible moves: none\n")
	} else {
		moves := make([]string, len(view.PossibleMoves))
		for i, m := range view.PossibleMoves {
			moves[i] = m.String()
		}
		fmt.Fprintf(&b, "Possible moves: %s\n", strings.Join(moves, ", "))
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder

	if result.Success {
		fmt.Fprintf(&b, "✓ Move successful: %s %s -> %s\n", result.Move, result.From, result.To)
	} else {
		fmt.Fprintf(&b, "✗ Move failed: %s\n", result.Move)
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	for _, event := range result.Events {
		if event.Type == "move" {
			continue
		}
		fmt.Fprintf(&b, "• %s\n", event.Message)
	}

	b.WriteString("\n")
	b.WriteString(formatPuzzleView(result.Puzzle))
	return b.String()
}

func formatSolveResult(result *service.SolveResult) string {
	var b strings.Builder

	if result.MoveCount == 0 {
		b.WriteString("Already solved, no moves needed.\n")
	} else {
		fmt.Fprintf(&b, "Solution (%d moves):\n", result.MoveCount)
		for i, m := range result.Solution {
			fmt.Fprintf(&b, "  %d. %s %s\n", i+1, m.Stone, m.Direction)
		}
	}

	fmt.Fprintf(&b, "\nSearch: %d states visited across %d levels in %s\n",
		result.Stats.Visited, result.Stats.Depth(), result.Stats.Duration)

	if len(result.Final) > 0 {
		b.WriteString("\nFinal board:\n")
		for _, row := range result.Final {
			fmt.Fprintf(&b, "  |%s|\n", row)
		}
	}
	return b.String()
}
