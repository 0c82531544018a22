package engine

import (
	"sync"
	"testing"
)

func TestVisitedSet_Deduplication(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a", "B": "b"},
		"A  a",
		"B  b",
	)

	viaA, _ := Slide(state, "A", Right)
	s1, _ := Slide(viaA, "B", Right)
	viaB, _ := Slide(state, "B", Right)
	s2, _ := Slide(viaB, "A", Right)

	visited := NewVisitedSet()
	if visited.Contains(s1) {
		t.Fatal("Empty set reported a state as visited")
	}

	visited.Insert(s1)
	if !visited.Contains(s2) {
		t.Error("Expected identical stone positions to be reported as visited")
	}
	if visited.TryInsert(s2) {
		t.Error("TryInsert admitted a duplicate configuration")
	}
	if visited.Contains(viaA) {
		t.Error("Different configuration reported as visited")
	}
	if !visited.TryInsert(viaA) {
		t.Error("TryInsert rejected a new configuration")
	}
	if visited.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", visited.Len())
	}
}

func TestVisitedSet_ConcurrentTryInsert(t *testing.T) {
	state := newTestPuzzle(t, map[string]string{"A": "a"}, "A a")
	visited := NewVisitedSet()

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if visited.TryInsert(state) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 1 {
		t.Errorf("Expected exactly one admission, got %d", admitted)
	}
}
