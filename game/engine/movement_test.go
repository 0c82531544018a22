package engine

import (
	"errors"
	"testing"
)

func newTestPuzzle(t *testing.T, stones map[string]string, layout ...string) *State {
	t.Helper()
	_, initial, err := NewPuzzle(&LevelConfig{Name: "test", Stones: stones, Layout: layout})
	if err != nil {
		t.Fatalf("Failed to build puzzle: %v", err)
	}
	return initial
}

func mustPosition(t *testing.T, s *State, stone StoneID) Position {
	t.Helper()
	pos, ok := s.Position(stone)
	if !ok {
		t.Fatalf("Stone %s missing from state", stone)
	}
	return pos
}

func TestSlide_Corridor(t *testing.T) {
	// 1x3 corridor, stone at column 0, destination at column 2
	state := newTestPuzzle(t, map[string]string{"A": "a"}, "A a")

	next, ok := Slide(state, "A", Right)
	if !ok {
		t.Fatal("Expected stone to slide right")
	}
	if got := mustPosition(t, next, "A"); got != (Position{Row: 0, Col: 2}) {
		t.Errorf("Expected A at (0,2), got %s", got)
	}
	if !next.IsGoal() {
		t.Error("Expected corridor to be solved after one move")
	}

	moves := next.Moves()
	if len(moves) != 1 || moves[0] != (Move{Stone: "A", Direction: Right}) {
		t.Errorf("Expected moves [A:right], got %v", moves)
	}
}

func TestSlide_StopsNextToStone(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a", "B": "b"},
		"A  B",
		"Xab ",
	)

	next, ok := Slide(state, "A", Right)
	if !ok {
		t.Fatal("Expected A to slide right")
	}
	if got := mustPosition(t, next, "A"); got != (Position{Row: 0, Col: 2}) {
		t.Errorf("Expected A to halt at (0,2) next to B, got %s", got)
	}
	if got := mustPosition(t, next, "B"); got != (Position{Row: 0, Col: 3}) {
		t.Errorf("Expected B to stay at (0,3), got %s", got)
	}
}

func TestSlide_NoOpExclusion(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a", "B": "b"},
		"XXXXX",
		"XAB X",
		"X  abX",
		"XXXXX",
	)

	tests := []struct {
		name  string
		stone StoneID
		dir   Direction
		moves bool
	}{
		{"wall above A", "A", Up, false},
		{"wall left of A", "A", Left, false},
		{"stone right of A", "A", Right, false},
		{"open below A", "A", Down, true},
		{"stone left of B", "B", Left, false},
		{"open right of B", "B", Right, true},
		{"wall above B", "B", Up, false},
		{"open below B", "B", Down, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			next, ok := Slide(state, test.stone, test.dir)
			if ok != test.moves {
				t.Fatalf("Slide(%s, %s): expected %v, got %v", test.stone, test.dir, test.moves, ok)
			}
			if !ok && next != nil {
				t.Error("Expected nil state for a blocked slide")
			}
			if state.CanSlide(test.stone, test.dir) != test.moves {
				t.Errorf("CanSlide(%s, %s) disagrees with Slide", test.stone, test.dir)
			}
		})
	}
}

func TestSlide_OutOfBoundsActsAsWall(t *testing.T) {
	// Ragged rows: tiles past the end of a row are walls
	state := newTestPuzzle(t, map[string]string{"A": "a"},
		"  a  ",
		"A",
	)

	if _, ok := Slide(state, "A", Right); ok {
		t.Error("Expected A to be blocked by the end of a short row")
	}
	if _, ok := Slide(state, "A", Down); ok {
		t.Error("Expected A to be blocked by the bottom edge")
	}

	next, ok := Slide(state, "A", Up)
	if !ok {
		t.Fatal("Expected A to slide up")
	}
	if got := mustPosition(t, next, "A"); got != (Position{Row: 0, Col: 0}) {
		t.Errorf("Expected A at (0,0), got %s", got)
	}
}

func TestSlide_DoesNotMutateParent(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a"}, "A a")
	before := state.Fingerprint()

	if _, ok := Slide(state, "A", Right); !ok {
		t.Fatal("Expected slide")
	}

	if state.Fingerprint() != before {
		t.Error("Parent fingerprint changed after deriving a successor")
	}
	if got := mustPosition(t, state, "A"); got != (Position{Row: 0, Col: 0}) {
		t.Errorf("Parent stone moved to %s", got)
	}
	if state.MoveCount() != 0 {
		t.Errorf("Parent move count changed to %d", state.MoveCount())
	}
}

func TestSuccessors_Legality(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a", "B": "b", "C": "c"},
		"XXXXXXX",
		"XA   bX",
		"X  X  X",
		"XB  C X",
		"Xa   cX",
		"XXXXXXX",
	)

	successors := Successors(state)
	if len(successors) == 0 {
		t.Fatal("Expected successors")
	}
	if len(successors) > state.Grid().StoneCount()*len(Directions) {
		t.Errorf("Too many successors: %d", len(successors))
	}

	parent := state.Positions()
	for _, next := range successors {
		moves := next.Moves()
		if len(moves) != 1 {
			t.Fatalf("Expected exactly one move played, got %v", moves)
		}
		moved := moves[0].Stone
		positions := next.Positions()

		occupied := make(map[Position]StoneID)
		for stone, pos := range positions {
			if next.Grid().Tile(pos) != Open {
				t.Errorf("%s: stone %s on non-open tile %s", moves[0], stone, pos)
			}
			if other, dup := occupied[pos]; dup {
				t.Errorf("%s: stones %s and %s share %s", moves[0], stone, other, pos)
			}
			occupied[pos] = stone

			if stone != moved && pos != parent[stone] {
				t.Errorf("%s: unmoved stone %s changed from %s to %s", moves[0], stone, parent[stone], pos)
			}
		}
		if positions[moved] == parent[moved] {
			t.Errorf("%s: moved stone did not change position", moves[0])
		}
	}
}

func TestSuccessors_DeterministicOrder(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a", "B": "b"},
		"XXXXX",
		"X A X",
		"XB  X",
		"Xab X",
		"XXXXX",
	)

	first := Successors(state)
	second := Successors(state)
	if len(first) != len(second) {
		t.Fatalf("Successor counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Fingerprint() != second[i].Fingerprint() {
			t.Errorf("Successor %d differs between runs", i)
		}
	}

	// Stones in canonical order, directions Up, Down, Left, Right
	expected := []Move{
		{"A", Down}, {"A", Left}, {"A", Right},
		{"B", Up}, {"B", Down}, {"B", Right},
	}
	if len(first) != len(expected) {
		t.Fatalf("Expected %d successors, got %d", len(expected), len(first))
	}
	for i, next := range first {
		if got := next.Moves()[0]; got != expected[i] {
			t.Errorf("Successor %d: expected %s, got %s", i, expected[i], got)
		}
	}
}

func TestApply_Errors(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a"}, "A a")

	tests := []struct {
		name     string
		move     Move
		expected error
	}{
		{"unknown stone", Move{Stone: "Z", Direction: Right}, ErrUnknownStone},
		{"blocked", Move{Stone: "A", Direction: Left}, ErrIllegalMove},
		{"bad direction", Move{Stone: "A", Direction: Direction(9)}, ErrUnknownDirection},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Apply(state, test.move)
			if !errors.Is(err, test.expected) {
				t.Errorf("Expected %v, got %v", test.expected, err)
			}
		})
	}
}

func TestReplay(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a"},
		"XXXXX",
		"XA  X",
		"X   X",
		"X  aX",
		"XXXXX",
	)

	final, err := Replay(state, []Move{{"A", Right}, {"A", Down}})
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if !final.IsGoal() {
		t.Error("Expected goal after replay")
	}

	if _, err := Replay(state, []Move{{"A", Up}}); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("Expected ErrIllegalMove, got %v", err)
	}
}

func TestPossibleMoves(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a"}, "A a")

	moves := PossibleMoves(state)
	if len(moves) != 1 || moves[0] != (Move{Stone: "A", Direction: Right}) {
		t.Errorf("Expected only A:right, got %v", moves)
	}
}
