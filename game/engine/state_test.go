package engine

import (
	"errors"
	"testing"
)

func openRow(n int) []TileKind {
	row := make([]TileKind, n)
	for i := range row {
		row[i] = Open
	}
	return row
}

func createTestGrid(t *testing.T) *Grid {
	t.Helper()
	grid, err := NewGrid(
		[][]TileKind{openRow(4), openRow(4)},
		map[StoneID]DestinationID{"A": "a", "B": "b"},
		map[DestinationID]Position{"a": {Row: 0, Col: 3}, "b": {Row: 1, Col: 3}},
	)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}
	return grid
}

func TestIsGoal(t *testing.T) {
	grid := createTestGrid(t)

	tests := []struct {
		name      string
		positions map[StoneID]Position
		expected  bool
	}{
		{"all on target", map[StoneID]Position{"A": {0, 3}, "B": {1, 3}}, true},
		{"one stone off", map[StoneID]Position{"A": {0, 3}, "B": {1, 2}}, false},
		{"swapped", map[StoneID]Position{"A": {1, 3}, "B": {0, 3}}, false},
		{"none on target", map[StoneID]Position{"A": {0, 0}, "B": {1, 0}}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			state, err := NewState(grid, test.positions, nil)
			if err != nil {
				t.Fatalf("NewState failed: %v", err)
			}
			if state.IsGoal() != test.expected {
				t.Errorf("IsGoal(): expected %v, got %v", test.expected, state.IsGoal())
			}
		})
	}
}

func TestNewState_Validation(t *testing.T) {
	grid := createTestGrid(t)

	_, err := NewState(grid, map[StoneID]Position{"A": {0, 0}}, nil)
	if !errors.Is(err, ErrUnknownStone) {
		t.Errorf("Expected ErrUnknownStone for missing stone, got %v", err)
	}

	_, err = NewState(grid, map[StoneID]Position{"A": {0, 0}, "Z": {1, 0}}, nil)
	if !errors.Is(err, ErrUnknownStone) {
		t.Errorf("Expected ErrUnknownStone for unknown stone, got %v", err)
	}

	if _, err := NewState(nil, nil, nil); err == nil {
		t.Error("Expected error for nil grid")
	}
}

func TestNewState_CopiesMoves(t *testing.T) {
	grid := createTestGrid(t)
	moves := []Move{{Stone: "A", Direction: Right}}

	state, err := NewState(grid, map[StoneID]Position{"A": {0, 0}, "B": {1, 0}}, moves)
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}

	moves[0].Stone = "B"
	if got := state.Moves()[0].Stone; got != "A" {
		t.Errorf("State aliased caller moves: got stone %s", got)
	}

	returned := state.Moves()
	returned[0].Direction = Left
	if got := state.Moves()[0].Direction; got != Right {
		t.Errorf("Moves() exposed internal slice: got %s", got)
	}
}

func TestFingerprint_IgnoresMoveOrder(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a", "B": "b"},
		"A  a",
		"B  b",
	)

	viaA, _ := Slide(state, "A", Right)
	viaAB, _ := Slide(viaA, "B", Right)
	viaB, _ := Slide(state, "B", Right)
	viaBA, _ := Slide(viaB, "A", Right)

	if viaAB.Fingerprint() != viaBA.Fingerprint() {
		t.Errorf("Expected equal fingerprints, got %q and %q", viaAB.Fingerprint(), viaBA.Fingerprint())
	}
	if viaAB.Moves()[0] == viaBA.Moves()[0] {
		t.Error("Expected different move histories")
	}
	if viaA.Fingerprint() == viaB.Fingerprint() {
		t.Error("Different stone positions must not share a fingerprint")
	}
}

func TestFingerprint_NoCollisionOnDigits(t *testing.T) {
	grid, err := NewGrid(
		[][]TileKind{openRow(12), openRow(12), openRow(12)},
		map[StoneID]DestinationID{"A": "a"},
		map[DestinationID]Position{"a": {Row: 0, Col: 0}},
	)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}

	// (1,11) and (11,1) must stay distinct
	s1, _ := NewState(grid, map[StoneID]Position{"A": {Row: 1, Col: 11}}, nil)
	s2, _ := NewState(grid, map[StoneID]Position{"A": {Row: 11, Col: 1}}, nil)
	if s1.Fingerprint() == s2.Fingerprint() {
		t.Errorf("Fingerprint collision: %q", s1.Fingerprint())
	}
}

func TestAlreadySolvedState(t *testing.T) {
	grid := createTestGrid(t)
	state, err := NewState(grid, map[StoneID]Position{"A": {0, 3}, "B": {1, 3}}, nil)
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}

	if !state.IsGoal() {
		t.Error("Expected initial state to be a goal")
	}
	if state.StonesOnTarget() != 2 {
		t.Errorf("Expected 2 stones on target, got %d", state.StonesOnTarget())
	}
	if RemainingDistance(state) != 0 {
		t.Errorf("Expected zero remaining distance, got %d", RemainingDistance(state))
	}
}

func TestStoneAt(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a"}, "A a")

	if stone, ok := state.StoneAt(Position{0, 0}); !ok || stone != "A" {
		t.Errorf("Expected A at (0,0), got %q %v", stone, ok)
	}
	if state.Occupied(Position{0, 2}) {
		t.Error("Destination tile must not count as occupied")
	}
}
