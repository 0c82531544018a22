package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func createTestLevel() *LevelConfig {
	return &LevelConfig{
		Name:        "Test Level",
		Description: "Test level for engine tests",
		Stones:      map[string]string{"A": "a"},
		Layout: []string{
			"XXXXX",
			"XA  X",
			"X   X",
			"X  aX",
			"XXXXX",
		},
	}
}

func TestNewEngine(t *testing.T) {
	eng, err := NewEngine(createTestLevel())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	if eng.GetState() != eng.GetInitialState() {
		t.Error("Expected current state to start at the initial state")
	}
	if eng.IsSolved() {
		t.Error("Level must not start solved")
	}
	if eng.GetGrid().StoneCount() != 1 {
		t.Errorf("Expected 1 stone, got %d", eng.GetGrid().StoneCount())
	}

	if _, err := NewEngine(&LevelConfig{Name: "broken"}); !errors.Is(err, ErrMalformedLevel) {
		t.Errorf("Expected ErrMalformedLevel, got %v", err)
	}
}

func TestEngine_MoveAndReset(t *testing.T) {
	eng, err := NewEngine(createTestLevel())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	if !eng.CanMove(Move{Stone: "A", Direction: Right}) {
		t.Error("Expected A:right to be possible")
	}
	if eng.CanMove(Move{Stone: "A", Direction: Up}) {
		t.Error("Expected A:up to be blocked")
	}

	if _, err := eng.Move(Move{Stone: "A", Direction: Up}); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("Expected ErrIllegalMove, got %v", err)
	}
	if eng.GetState().MoveCount() != 0 {
		t.Error("Failed move must not change the state")
	}

	if _, err := eng.Move(Move{Stone: "A", Direction: Right}); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	state, err := eng.Move(Move{Stone: "A", Direction: Down})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if !state.IsGoal() || !eng.IsSolved() {
		t.Error("Expected level to be solved")
	}

	reset := eng.Reset()
	if reset != eng.GetInitialState() || reset.MoveCount() != 0 {
		t.Error("Reset must return the initial state")
	}
}

func TestEngine_Restore(t *testing.T) {
	eng, err := NewEngine(createTestLevel())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	if err := eng.Restore([]Move{{"A", Right}, {"A", Down}}); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !eng.IsSolved() {
		t.Error("Expected restored state to be solved")
	}

	if err := eng.Restore([]Move{{"A", Left}}); err == nil {
		t.Error("Expected error restoring an illegal move")
	}
}

func TestMove_JSON(t *testing.T) {
	data, err := json.Marshal(Move{Stone: "A", Direction: Left})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"stone":"A","direction":"left"}` {
		t.Errorf("Unexpected encoding: %s", data)
	}

	var decoded Move
	if err := json.Unmarshal([]byte(`{"stone":"B","direction":"D"}`), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded != (Move{Stone: "B", Direction: Down}) {
		t.Errorf("Unexpected move: %+v", decoded)
	}
}
