package store

import (
	"testing"
	"time"

	"github.com/menta2k/image-annotator/pkg/types"
)

func box(name string, x float64) types.Box {
	return types.Box{
		Rect: types.Rect{X1: x, Y1: x, X2: x + 10, Y2: x + 10},
		Name: name,
		Date: types.NewDate(2024, time.May, 1),
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	s := New()
	s.Append(box("fox", 1))
	s.Append(box("owl", 2))
	s.Append(box("fox", 3))

	if s.Len() != 3 {
		t.Fatalf("expected 3 boxes, got %d", s.Len())
	}

	names := []string{"fox", "owl", "fox"}
	for i, b := range s.Boxes() {
		if b.Name != names[i] || b.X1 != float64(i+1) {
			t.Errorf("box %d: got %s@%f", i, b.Name, b.X1)
		}
	}
}

func TestBoxesIsSnapshot(t *testing.T) {
	s := New()
	s.Append(box("fox", 1))

	snap := s.Boxes()
	snap[0].Name = "changed"
	s.Append(box("owl", 2))

	if got, _ := s.At(0); got.Name != "fox" {
		t.Errorf("store mutated through snapshot: %s", got.Name)
	}
	if len(snap) != 1 {
		t.Errorf("snapshot grew with store: %d", len(snap))
	}
}

func TestAt(t *testing.T) {
	s := New()
	s.Append(box("fox", 1))

	if _, ok := s.At(-1); ok {
		t.Error("expected At(-1) to fail")
	}
	if _, ok := s.At(1); ok {
		t.Error("expected At(1) to fail")
	}
	if b, ok := s.At(0); !ok || b.Name != "fox" {
		t.Errorf("unexpected At(0): %v %v", b, ok)
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.Append(box("fox", 1))
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
	if len(s.Boxes()) != 0 {
		t.Error("expected no boxes after Clear")
	}
}
