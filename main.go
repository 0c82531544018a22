// Command stone-slide serves, plays and solves stone sliding puzzles.
//
// Commands:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket updates and an /mcp endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "solve" solves a single level file and prints the shortest solution
//
// Flags control host/port, level and session directories, solver limits,
// debug logging and optional ngrok tunneling for external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/stone-slide/api"
	"github.com/wricardo/stone-slide/game/config"
	"github.com/wricardo/stone-slide/game/engine"
	"github.com/wricardo/stone-slide/game/service"
	"github.com/wricardo/stone-slide/game/session"
	"github.com/wricardo/stone-slide/transport/mcp"
	"github.com/wricardo/stone-slide/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Stone Slide Puzzle Server"
)

const (
	sessionTTL           = 24 * time.Hour
	sessionSweepInterval = time.Hour
	filesystemSyncPeriod = 5 * time.Second
)

var log = logrus.New()

// appConfig is the resolved set of flags shared by every command
type appConfig struct {
	host         string
	port         int
	levelsDir    string
	defaultLevel string
	sessionsDir  string
	debug        bool
	workers      int
	maxStates    int
	solveTimeout time.Duration

	ngrokEnabled bool
	ngrokAuth    string
	ngrokDomain  string
}

func (c appConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

func (c appConfig) solverOptions() []engine.SolverOption {
	return []engine.SolverOption{
		engine.WithWorkers(c.workers),
		engine.WithMaxStates(c.maxStates),
	}
}

func configFromCommand(cmd *cli.Command) appConfig {
	return appConfig{
		host:         cmd.String("host"),
		port:         cmd.Int("port"),
		levelsDir:    cmd.String("levels-dir"),
		defaultLevel: cmd.String("default-level"),
		sessionsDir:  cmd.String("sessions-dir"),
		debug:        cmd.Bool("debug"),
		workers:      cmd.Int("workers"),
		maxStates:    cmd.Int("max-states"),
		solveTimeout: cmd.Duration("solve-timeout"),
		ngrokEnabled: cmd.Bool("ngrok"),
		ngrokAuth:    cmd.String("ngrok-auth"),
		ngrokDomain:  cmd.String("ngrok-domain"),
	}
}

// newApp builds the command tree. Flags on the root apply to every command.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "stone-slide",
		Usage:   "Serve, play and solve stone sliding puzzles",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "levels-dir", Value: "levels", Usage: "Directory containing level files", Sources: cli.EnvVars("LEVELS_DIR")},
			&cli.StringFlag{Name: "default-level", Usage: "Level used for sessions created without one (default: corridor or the first level)", Sources: cli.EnvVars("DEFAULT_LEVEL")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for persisted sessions", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU(), Usage: "Goroutines used to expand each search level"},
			&cli.IntFlag{Name: "max-states", Value: 5_000_000, Usage: "Abort a search after this many distinct states (0 = unlimited)"},
			&cli.DurationFlag{Name: "solve-timeout", Value: time.Minute, Usage: "Maximum duration of a single solve request"},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			configureLogging(cmd.Bool("debug"))
			return ctx, nil
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCPCommand,
			},
			{
				Name:      "solve",
				Usage:     "Solve a level file and print the shortest solution",
				ArgsUsage: "<level-file>",
				Action:    runSolveCommand,
			},
		},
	}
}

// main loads the environment, parses flags and runs the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("Error loading .env file")
		}
	} else {
		log.Debug("Loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func configureLogging(debug bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)
	log.WithField("mode", "server").Infof("Starting %s v%s", AppName, Version)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcs, err := initializeServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.flush()

	return runHTTPServer(ctx, cfg, svcs.puzzle)
}

func runStdioMCPCommand(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)
	log.WithField("mode", "stdio-mcp").Infof("Starting %s v%s", AppName, Version)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runStdioMCP(ctx, cfg)
}

func runSolveCommand(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("usage: stone-slide solve <level-file>")
	}

	cfg := configFromCommand(cmd)
	if cfg.solveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.solveTimeout)
		defer cancel()
	}

	return solveLevelFile(ctx, cmd.Root().Writer, path, cfg.solverOptions()...)
}

// solveLevelFile solves the level stored at path and prints the start board,
// the solution and the search statistics to w
func solveLevelFile(ctx context.Context, w io.Writer, path string, opts ...engine.SolverOption) error {
	level, err := engine.LoadLevelConfig(path)
	if err != nil {
		return err
	}
	_, start, err := engine.NewPuzzle(level)
	if err != nil {
		return err
	}

	opts = append(opts, engine.WithProgress(func(l engine.LevelStats) {
		log.WithFields(logrus.Fields{
			"depth":     l.Depth,
			"frontier":  l.Frontier,
			"generated": l.Generated,
			"visited":   l.Visited,
		}).Debug("Expanded search level")
	}))

	fmt.Fprintf(w, "Level: %s\n%s\n", level.Name, engine.RenderState(start))

	result, err := engine.NewSolver(opts...).Solve(ctx, start)
	if err != nil {
		var noSolution *engine.NoSolutionError
		if errors.As(err, &noSolution) {
			fmt.Fprintf(w, "No solution: explored %d states across %d levels\n",
				noSolution.Stats.Visited, noSolution.Stats.Depth())
		}
		return fmt.Errorf("%s: %w", level.Name, err)
	}

	fmt.Fprintf(w, "Solution (%d moves): %s\n", result.MoveCount(), engine.FormatSolution(result.Solution))
	fmt.Fprintf(w, "Visited %d states across %d levels in %s\n\n",
		result.Stats.Visited, result.Stats.Depth(), result.Stats.Duration)
	fmt.Fprintln(w, engine.RenderState(result.Goal))
	return nil
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel. It returns when ctx is cancelled.
func runHTTPServer(ctx context.Context, cfg appConfig, puzzleService service.PuzzleService) error {
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	addr := cfg.addr()
	handler := newRootHandler(puzzleService, hub, cfg, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Solve requests may run up to the solve timeout
		WriteTimeout: cfg.solveTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Infof("HTTP server listening on %s", addr)
		log.Infof("REST API: http://%s/api", addr)
		log.Infof("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Infof("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	if cfg.ngrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, handler)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err = <-serveErr:
		log.WithError(err).Error("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("Server stopped")
	return err
}

// newRootHandler mounts the API server at the root and the MCP proxy at /mcp
func newRootHandler(puzzleService service.PuzzleService, hub *websocket.Hub, cfg appConfig, baseURL string) http.Handler {
	apiServer := api.NewServer(puzzleService, hub,
		api.WithLogger(log),
		api.WithSolveTimeout(cfg.solveTimeout),
	)
	mcpClient := mcp.NewClient(baseURL)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return mux
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is cancelled
func runNgrokTunnel(ctx context.Context, cfg appConfig, handler http.Handler) {
	if cfg.ngrokAuth == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Info("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.ngrokDomain))
		log.WithField("domain", cfg.ngrokDomain).Info("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.ngrokAuth))
	if err != nil {
		log.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Infof("Ngrok tunnel established: %s", ngrokURL)
	log.Infof("  REST API (ngrok): %s/api", ngrokURL)
	log.Infof("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Infof("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.WithError(err).Warn("Ngrok server error")
	}
	log.Info("Ngrok tunnel closed")
}

// services holds the wired components shared by the server commands
type services struct {
	puzzle   service.PuzzleService
	sessions *session.Manager
	levels   *config.Manager
}

// flush writes every in-memory session to disk
func (s *services) flush() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.WithError(err).Warn("Failed to save sessions on shutdown")
		return
	}
	log.WithField("count", s.sessions.Count()).Debug("Saved sessions on shutdown")
}

// initializeServices wires the level catalog, session storage and the puzzle
// service. Background routines prune stale sessions and reload levels on
// SIGHUP until ctx is cancelled.
func initializeServices(ctx context.Context, cfg appConfig) (*services, error) {
	levels, err := config.NewManager(cfg.levelsDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}
	if cfg.defaultLevel != "" {
		if err := levels.SetDefault(cfg.defaultLevel); err != nil {
			return nil, fmt.Errorf("default level %q: %w", cfg.defaultLevel, err)
		}
	}
	log.WithField("level", levels.DefaultLevelID()).Info("Default level selected")

	persistence, err := session.NewFilePersistence(cfg.sessionsDir, levels)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessions := session.NewManager(
		session.WithPersistence(persistence),
		session.WithLogger(log),
	)

	if err := sessions.LoadPersistedSessions(); err != nil {
		log.WithError(err).Warn("Failed to load persisted sessions")
	}

	puzzleService := service.NewPuzzleService(sessions, levels, log, cfg.solverOptions()...)

	go sessionCleanupRoutine(ctx, sessions, sessionSweepInterval, sessionTTL)
	go filesystemSyncRoutine(ctx, sessions, persistence, filesystemSyncPeriod)

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		defer signal.Stop(reload)
		levelReloadRoutine(ctx, levels, reload)
	}()

	return &services{puzzle: puzzleService, sessions: sessions, levels: levels}, nil
}

// levelReloadRoutine drops the level cache whenever a value arrives on reload,
// so edited level files are read again on next use.
func levelReloadRoutine(ctx context.Context, levels *config.Manager, reload <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-reload:
			levels.RefreshCache()
			log.WithField("default", levels.DefaultLevelID()).Info("Reloaded level catalog")
		}
	}
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within maxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.WithField("count", removed).Info("Cleaned up expired sessions")
			}
		}
	}
}

// filesystemSyncRoutine drops in-memory sessions whose files were deleted.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneOrphanedSessions(manager, persistence)
		}
	}
}

func pruneOrphanedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			log.WithField("session", s.ID).Debug("Pruned session from memory (file deleted)")
		}
	}
	if pruned > 0 {
		log.WithField("count", pruned).Info("Filesystem sync pruned orphaned sessions")
	}
	return pruned
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening on
// the configured address; otherwise it starts an internal HTTP API bound to a
// random loopback port and targets that.
func runStdioMCP(ctx context.Context, cfg appConfig) error {
	externalURL := fmt.Sprintf("http://%s", cfg.addr())
	log.Infof("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil {
		resp.Body.Close()
	}
	if err == nil && resp.StatusCode < 500 {
		log.Infof("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Info("No external API server found, starting internal HTTP server")

		svcs, err := initializeServices(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svcs.flush()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()
		baseURL = fmt.Sprintf("http://%s", internalAddr)

		hub := websocket.NewHub(log)
		go hub.Run(ctx)

		httpServer := &http.Server{
			Handler: api.NewServer(svcs.puzzle, hub, api.WithLogger(log), api.WithSolveTimeout(cfg.solveTimeout)),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		log.Infof("Internal HTTP server on %s for MCP stdio", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
