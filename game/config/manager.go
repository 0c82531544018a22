package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/stone-slide/game/engine"
	"github.com/wricardo/stone-slide/game/service"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = service.ErrInvalidLevel
)

// PreferredDefault is the level used for sessions created without a level id
const PreferredDefault = "corridor"

// extensions are probed in this order when resolving a level id
var extensions = []string{".json", ".yaml", ".yml", ".txt", ".lvl"}

// Manager handles level loading and caching
type Manager struct {
	levelsDir string
	defaultID string
	levels    map[string]*engine.LevelConfig
	logger    logrus.FieldLogger
	mu        sync.RWMutex
}

// NewManager creates a new level manager over levelsDir
func NewManager(levelsDir string, logger logrus.FieldLogger) (*Manager, error) {
	// Ensure levels directory exists
	if _, err := os.Stat(levelsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("levels directory does not exist: %s", levelsDir)
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	m := &Manager{
		levelsDir: levelsDir,
		levels:    make(map[string]*engine.LevelConfig),
		logger:    logger.WithField("component", "levels"),
	}

	m.pickDefault()
	return m, nil
}

// normalizeID strips a known file extension from a level id
func normalizeID(name string) string {
	if _, ok := engine.FormatForPath(name); ok {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

// LoadLevel loads a level by id, with or without its file extension
func (m *Manager) LoadLevel(name string) (*engine.LevelConfig, error) {
	id := normalizeID(name)
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrLevelNotFound, name)
	}

	m.mu.RLock()
	// Check cache first
	if level, exists := m.levels[id]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	path, ok := m.findFile(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, id)
	}

	level, err := engine.LoadLevelConfig(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	m.mu.Lock()
	m.levels[id] = level
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{"level": id, "file": filepath.Base(path)}).Debug("Level loaded")
	return level, nil
}

// findFile locates the file backing a level id
func (m *Manager) findFile(id string) (string, bool) {
	for _, ext := range extensions {
		path := filepath.Join(m.levelsDir, id+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// ListLevels returns information about all loadable levels, sorted by id
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read levels directory: %w", err)
	}

	seen := make(map[string]bool)
	var levels []*service.LevelInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		format, ok := engine.FormatForPath(entry.Name())
		if !ok {
			continue
		}

		id := normalizeID(entry.Name())
		if seen[id] {
			continue
		}

		level, err := m.LoadLevel(id)
		if err != nil {
			// Skip invalid levels
			m.logger.WithError(err).WithField("file", entry.Name()).Warn("Skipping invalid level")
			continue
		}
		seen[id] = true

		info := &service.LevelInfo{
			Filename:    entry.Name(),
			LevelID:     id,
			Name:        level.Name,
			Description: level.Description,
			Format:      format,
			Stones:      len(level.Stones),
		}
		if grid, _, err := engine.NewPuzzle(level); err == nil {
			info.Rows = grid.Rows()
			info.Width = grid.Width()
		}
		levels = append(levels, info)
	}

	sort.Slice(levels, func(i, j int) bool { return levels[i].LevelID < levels[j].LevelID })
	return levels, nil
}

// DefaultLevelID returns the id used when no level is requested
func (m *Manager) DefaultLevelID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID
}

// SetDefault sets the default level by id
func (m *Manager) SetDefault(name string) error {
	if _, err := m.LoadLevel(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = normalizeID(name)
	return nil
}

// RefreshCache drops cached levels so the next load reads from disk. The
// current default is kept while it still loads.
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.levels = make(map[string]*engine.LevelConfig)
	current := m.defaultID
	m.mu.Unlock()

	if _, err := m.LoadLevel(current); err == nil {
		return
	}
	m.pickDefault()
}

// pickDefault prefers the corridor level, then the first listed level,
// then the built-in minimal level
func (m *Manager) pickDefault() {
	id := ""
	if _, err := m.LoadLevel(PreferredDefault); err == nil {
		id = PreferredDefault
	} else if levels, err := m.ListLevels(); err == nil && len(levels) > 0 {
		id = levels[0].LevelID
	} else {
		minimal := minimalLevel()
		m.mu.Lock()
		m.levels[minimal.Name] = minimal
		m.mu.Unlock()
		id = minimal.Name
		m.logger.Warn("No levels found, using built-in minimal level")
	}

	m.mu.Lock()
	m.defaultID = id
	m.mu.Unlock()
}

// SaveLevel writes a level to disk. The format follows the extension of
// name, JSON when there is none.
func (m *Manager) SaveLevel(name string, level *engine.LevelConfig) error {
	if err := engine.ValidateLevelConfig(level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	id := normalizeID(name)
	if !validID(id) {
		return fmt.Errorf("%w: invalid level id %q", ErrInvalidLevel, name)
	}

	format, ok := engine.FormatForPath(name)
	filename := name
	if !ok {
		format = engine.FormatJSON
		filename = id + ".json"
	}

	data, err := engine.EncodeLevelConfig(level, format)
	if err != nil {
		return fmt.Errorf("failed to encode level: %w", err)
	}

	// Only one file may back an id
	if existing, found := m.findFile(id); found && filepath.Base(existing) != filename {
		if err := os.Remove(existing); err != nil {
			return fmt.Errorf("failed to replace level file: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(m.levelsDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[id] = level
	m.mu.Unlock()

	return nil
}

// minimalLevel is a one-move level used when the directory is empty
func minimalLevel() *engine.LevelConfig {
	return &engine.LevelConfig{
		Name:        "default",
		Description: "Built-in single stone corridor",
		Stones:      map[string]string{"A": "a"},
		Layout: []string{
			"XXXXX",
			"XA aX",
			"XXXXX",
		},
	}
}
