package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/stone-slide/game/engine"
)

func writeLevel(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write level: %v", err)
	}
	return path
}

func puzzle(t *testing.T, stones map[string]string, layout ...string) (*engine.Grid, *engine.State) {
	t.Helper()
	grid, initial, err := engine.NewPuzzle(&engine.LevelConfig{Name: "test", Stones: stones, Layout: layout})
	if err != nil {
		t.Fatalf("NewPuzzle failed: %v", err)
	}
	return grid, initial
}

func hasMessage(result ValidationResult, substr string) bool {
	for _, msg := range result.Errors {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestValidateLevel_ValidLevel(t *testing.T) {
	path := writeLevel(t, t.TempDir(), "corridor.txt", "Aa\nXXXXXX\nXA  aX\nXXXXXX\n")

	result := validateLevel(path)
	if !result.Valid {
		t.Fatalf("Expected valid level, got errors: %v", result.Errors)
	}
	if result.File != "corridor.txt" {
		t.Errorf("Expected file name corridor.txt, got %s", result.File)
	}
	for _, want := range []string{"✓ Name: corridor", "✓ Grid: 3x6", "✓ Stones: 1"} {
		if !hasMessage(result, want) {
			t.Errorf("Expected %q in %v", want, result.Errors)
		}
	}
}

func TestValidateLevel_Formats(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.json": `{"name": "a", "stones": {"A": "a"}, "layout": ["XXXXX", "XA aX", "XXXXX"]}`,
		"b.yaml": "name: b\nstones:\n  A: a\nlayout:\n  - XXXXX\n  - XA aX\n  - XXXXX\n",
	}
	for name, content := range files {
		result := validateLevel(writeLevel(t, dir, name, content))
		if !result.Valid {
			t.Errorf("%s: expected valid, got %v", name, result.Errors)
		}
	}
}

func TestValidateLevel_Malformed(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"missing_stone.txt": "Aa\nXXXX\nX aX\nXXXX\n",
		"bad_legend.txt":    "Aab\nXXXX\nXAaX\nXXXX\n",
		"bad_json.json":     "{not json",
		"empty.txt":         "",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			result := validateLevel(writeLevel(t, dir, name, content))
			if result.Valid {
				t.Errorf("Expected invalid result for %s", name)
			}
		})
	}
}

func TestValidateLevel_MissingFile(t *testing.T) {
	result := validateLevel(filepath.Join(t.TempDir(), "nope.txt"))
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
}

func TestValidateConnectivity_ValidLayout(t *testing.T) {
	grid, initial := puzzle(t, map[string]string{"A": "a", "B": "b"},
		"XXXXXXXX",
		"XA B abX",
		"XXXXXXXX",
	)

	result := validateConnectivity(grid, initial)
	if !result.Valid {
		t.Errorf("Expected valid connectivity, but got errors: %v", result.Errors)
	}
}

func TestValidateConnectivity_Unreachable(t *testing.T) {
	grid, initial := puzzle(t, map[string]string{"A": "a"},
		"XXXXX",
		"XAXaX",
		"XXXXX",
	)

	result := validateConnectivity(grid, initial)
	if result.Valid {
		t.Error("Expected invalid connectivity due to a walled off destination")
	}
	if !hasMessage(result, "Connectivity failure") {
		t.Errorf("Expected 'Connectivity failure' error, got %v", result.Errors)
	}
}

func TestValidateConnectivity_NoStopForSingleStone(t *testing.T) {
	// The destination sits in the middle of an open room
	grid, initial := puzzle(t, map[string]string{"A": "a"},
		"XXXXX",
		"XA  X",
		"X a X",
		"X   X",
		"XXXXX",
	)

	result := validateConnectivity(grid, initial)
	if result.Valid {
		t.Error("Expected a single stone without a stopping point to be invalid")
	}
	if !hasMessage(result, "can never stop") {
		t.Errorf("Expected stopping point error, got %v", result.Errors)
	}
}

func TestValidateConnectivity_BlockerStone(t *testing.T) {
	grid, initial := puzzle(t, map[string]string{"A": "a", "B": "b"},
		"XXXXX",
		"XA bX",
		"X a X",
		"X  BX",
		"XXXXX",
	)

	result := validateConnectivity(grid, initial)
	if !result.Valid {
		t.Fatalf("Expected valid connectivity, got %v", result.Errors)
	}
	if !hasMessage(result, "Needs another stone as blocker: A") {
		t.Errorf("Expected blocker note, got %v", result.Errors)
	}
}

func TestLevelFiles(t *testing.T) {
	dir := t.TempDir()
	writeLevel(t, dir, "b.txt", "")
	writeLevel(t, dir, "a.json", "")
	writeLevel(t, dir, "notes.md", "")
	os.Mkdir(filepath.Join(dir, "sub.json"), 0755)

	files, err := levelFiles(dir)
	if err != nil {
		t.Fatalf("levelFiles failed: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.json" || filepath.Base(files[1]) != "b.txt" {
		t.Errorf("Unexpected files: %v", files)
	}
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writeLevel(t, dir, "corridor.txt", "Aa\nXXXXXX\nXA  aX\nXXXXXX\n")

	var out bytes.Buffer
	if err := validateDir(&out, dir); err != nil {
		t.Fatalf("validateDir failed: %v", err)
	}
	if !strings.Contains(out.String(), "All levels are valid") {
		t.Errorf("Expected success summary, got:\n%s", out.String())
	}

	writeLevel(t, dir, "stuck.txt", "Aa\nXXXXX\nXAXaX\nXXXXX\n")
	out.Reset()
	if err := validateDir(&out, dir); !errors.Is(err, errInvalidLevels) {
		t.Fatalf("Expected errInvalidLevels, got %v", err)
	}
	if !strings.Contains(out.String(), "❌ INVALID") {
		t.Errorf("Expected an invalid entry, got:\n%s", out.String())
	}

	if err := validateDir(&bytes.Buffer{}, "/non/existent"); err == nil {
		t.Error("Expected error for a missing directory")
	}
}
