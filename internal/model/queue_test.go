package model

import (
	"errors"
	"testing"
)

func TestQueuePairsBySize(t *testing.T) {
	q := NewQueue()
	for _, p := range []Player{{"a", 8}, {"b", 6}, {"c", 4}, {"d", 6}, {"e", 8}} {
		if err := q.AddPlayer(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := q.AddPlayer(Player{"a", 4}); !errors.Is(err, ErrAlreadyQueued) {
		t.Errorf("duplicate: %v, want ErrAlreadyQueued", err)
	}

	p1, p2, ok := q.GetNextPair()
	if !ok || p1.ID != "a" || p2.ID != "e" {
		t.Errorf("first pair = %s, %s, %v; want a, e", p1.ID, p2.ID, ok)
	}
	p1, p2, ok = q.GetNextPair()
	if !ok || p1.ID != "b" || p2.ID != "d" {
		t.Errorf("second pair = %s, %s, %v; want b, d", p1.ID, p2.ID, ok)
	}
	if _, _, ok := q.GetNextPair(); ok {
		t.Error("c has nobody to play on 4x4")
	}
	if q.Size() != 1 {
		t.Errorf("size = %d, want 1", q.Size())
	}
	q.Remove("c")
	if q.Size() != 0 {
		t.Errorf("size = %d after Remove", q.Size())
	}
}
