package engine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var ErrMalformedLevel = errors.New("malformed level")

// Level file formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// LevelConfig is the on-disk description of a puzzle
type LevelConfig struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Stones      map[string]string `json:"stones" yaml:"stones"` // stone id -> destination id
	Layout      []string          `json:"layout" yaml:"layout"`
}

// FormatForPath picks a level format from a file extension
func FormatForPath(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".lvl":
		return FormatText, true
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// ParseLevelText reads the plain text level format: the first line holds
// two-character stone/destination pairs separated by whitespace, every other
// line is a grid row where X is a wall.
func ParseLevelText(r io.Reader) (*LevelConfig, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read level: %w", err)
		}
		return nil, fmt.Errorf("%w: empty level", ErrMalformedLevel)
	}

	config := &LevelConfig{Stones: make(map[string]string)}
	for _, pair := range strings.Fields(scanner.Text()) {
		runes := []rune(pair)
		if len(runes) != 2 {
			return nil, fmt.Errorf("%w: legend entry %q must be a stone and a destination character", ErrMalformedLevel, pair)
		}
		stone := string(runes[0])
		if _, dup := config.Stones[stone]; dup {
			return nil, fmt.Errorf("%w: stone %s listed twice", ErrMalformedLevel, stone)
		}
		config.Stones[stone] = string(runes[1])
	}

	for scanner.Scan() {
		config.Layout = append(config.Layout, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read level: %w", err)
	}

	// Drop trailing blank rows
	for len(config.Layout) > 0 && strings.TrimSpace(config.Layout[len(config.Layout)-1]) == "" {
		config.Layout = config.Layout[:len(config.Layout)-1]
	}

	return config, nil
}

// DecodeLevelConfig parses level data in the given format
func DecodeLevelConfig(data []byte, format string) (*LevelConfig, error) {
	var config LevelConfig

	switch format {
	case FormatText:
		parsed, err := ParseLevelText(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		config = *parsed
	case FormatJSON:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLevel, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLevel, err)
		}
	default:
		return nil, fmt.Errorf("unsupported level format %q", format)
	}

	return &config, nil
}

// EncodeLevelConfig serializes a level in the given format
func EncodeLevelConfig(config *LevelConfig, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(config, "", "  ")
	case FormatYAML:
		return yaml.Marshal(config)
	case FormatText:
		var b strings.Builder
		stones := make([]string, 0, len(config.Stones))
		for stone := range config.Stones {
			stones = append(stones, stone)
		}
		sort.Strings(stones)
		for i, stone := range stones {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(stone + config.Stones[stone])
		}
		b.WriteByte('\n')
		for _, row := range config.Layout {
			b.WriteString(row)
			b.WriteByte('\n')
		}
		return []byte(b.String()), nil
	}
	return nil, fmt.Errorf("unsupported level format %q", format)
}

// LoadLevelConfig reads and validates a level file. Levels without a name
// are named after the file.
func LoadLevelConfig(path string) (*LevelConfig, error) {
	format, ok := FormatForPath(path)
	if !ok {
		return nil, fmt.Errorf("unsupported level file extension: %s", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config, err := DecodeLevelConfig(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse level file '%s': %w", filepath.Base(path), err)
	}

	if config.Name == "" {
		config.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if err := ValidateLevelConfig(config); err != nil {
		return nil, fmt.Errorf("invalid level '%s': %w", filepath.Base(path), err)
	}

	return config, nil
}

// ValidateLevelConfig checks the legend and layout for consistency
func ValidateLevelConfig(config *LevelConfig) error {
	if config == nil {
		return fmt.Errorf("%w: level cannot be nil", ErrMalformedLevel)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrMalformedLevel)
	}
	if len(config.Layout) == 0 {
		return fmt.Errorf("%w: layout is empty", ErrMalformedLevel)
	}
	if len(config.Stones) == 0 {
		return fmt.Errorf("%w: level must define at least one stone", ErrMalformedLevel)
	}

	destinations := make(map[string]string, len(config.Stones))
	for stone, dest := range config.Stones {
		if err := validateID("stone", stone); err != nil {
			return err
		}
		if err := validateID("destination", dest); err != nil {
			return err
		}
		if stone == dest {
			return fmt.Errorf("%w: stone %s cannot be its own destination", ErrMalformedLevel, stone)
		}
		if other, dup := destinations[dest]; dup {
			return fmt.Errorf("%w: destination %s assigned to both %s and %s", ErrMalformedLevel, dest, other, stone)
		}
		destinations[dest] = stone
	}
	for stone := range config.Stones {
		if _, clash := destinations[stone]; clash {
			return fmt.Errorf("%w: %s is used both as a stone and as a destination", ErrMalformedLevel, stone)
		}
	}

	counts := make(map[string]int)
	for _, row := range config.Layout {
		for _, char := range row {
			counts[string(char)]++
		}
	}

	for stone, dest := range config.Stones {
		switch n := counts[stone]; {
		case n == 0:
			return fmt.Errorf("%w: stone %s does not appear in the layout", ErrMalformedLevel, stone)
		case n > 1:
			return fmt.Errorf("%w: stone %s appears %d times in the layout", ErrMalformedLevel, stone, n)
		}
		switch n := counts[dest]; {
		case n == 0:
			return fmt.Errorf("%w: destination %s does not appear in the layout", ErrMalformedLevel, dest)
		case n > 1:
			return fmt.Errorf("%w: destination %s appears %d times in the layout", ErrMalformedLevel, dest, n)
		}
	}

	return nil
}

func validateID(kind, id string) error {
	if utf8.RuneCountInString(id) != 1 {
		return fmt.Errorf("%w: %s id %q must be a single character", ErrMalformedLevel, kind, id)
	}
	r, _ := utf8.DecodeRuneInString(id)
	if r == WallChar || r == ' ' || r == '\t' {
		return fmt.Errorf("%w: %s id %q is reserved", ErrMalformedLevel, kind, id)
	}
	return nil
}

// NewPuzzle validates a level and builds its grid and initial state
func NewPuzzle(config *LevelConfig) (*Grid, *State, error) {
	if err := ValidateLevelConfig(config); err != nil {
		return nil, nil, err
	}

	stoneOf := make(map[rune]StoneID, len(config.Stones))
	destOf := make(map[rune]DestinationID, len(config.Stones))
	assignment := make(map[StoneID]DestinationID, len(config.Stones))
	for stone, dest := range config.Stones {
		s, _ := utf8.DecodeRuneInString(stone)
		d, _ := utf8.DecodeRuneInString(dest)
		stoneOf[s] = StoneID(stone)
		destOf[d] = DestinationID(dest)
		assignment[StoneID(stone)] = DestinationID(dest)
	}

	tiles := make([][]TileKind, len(config.Layout))
	stonePos := make(map[StoneID]Position, len(config.Stones))
	destPos := make(map[DestinationID]Position, len(config.Stones))

	for r, row := range config.Layout {
		runes := []rune(row)
		tiles[r] = make([]TileKind, len(runes))
		for c, char := range runes {
			pos := Position{Row: r, Col: c}
			if char == WallChar {
				tiles[r][c] = Wall
				continue
			}
			tiles[r][c] = Open
			if stone, ok := stoneOf[char]; ok {
				stonePos[stone] = pos
			} else if dest, ok := destOf[char]; ok {
				destPos[dest] = pos
			}
		}
	}

	grid, err := NewGrid(tiles, assignment, destPos)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedLevel, err)
	}

	initial, err := NewState(grid, stonePos, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedLevel, err)
	}

	return grid, initial, nil
}
