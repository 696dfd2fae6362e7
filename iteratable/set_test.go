package iteratable

import "testing"

func TestAddDedup(t *testing.T) {
	s := NewSet(0)
	if !s.Add("a") {
		t.Fatalf("expected first add to report changed")
	}
	if s.Add("a") {
		t.Fatalf("expected duplicate add to report unchanged")
	}
	if s.Size() != 1 {
		t.Fatalf("expected size 1, got %d", s.Size())
	}
}

func TestGrowWhileIterating(t *testing.T) {
	s := NewSet(0, 1, 2)
	s.IterateOnce()
	count := 0
	for s.Next() {
		v := s.Item().(int)
		count++
		if v < 5 {
			s.Add(v + 10)
		}
	}
	// 1, 2 each spawn one more element (11, 12); those don't spawn further
	// since 11, 12 >= 5. Total visited: 1, 2, 11, 12 = 4.
	if count != 4 {
		t.Fatalf("expected iteration to drain newly appended items, got count=%d", count)
	}
}

func TestDifferenceIsNonDestructive(t *testing.T) {
	a := NewSet(0, 1, 2, 3)
	b := NewSet(0, 2)
	d := a.Difference(b)
	if a.Size() != 4 {
		t.Fatalf("expected Difference to leave receiver unmodified, got size %d", a.Size())
	}
	if d.Size() != 2 || !d.Contains(1) || !d.Contains(3) {
		t.Fatalf("unexpected difference result: %v", d.Values())
	}
}

func TestUnionIsDestructive(t *testing.T) {
	a := NewSet(0, 1)
	b := NewSet(0, 2)
	a.Union(b)
	if a.Size() != 2 || !a.Contains(2) {
		t.Fatalf("expected union to merge b into a, got %v", a.Values())
	}
}

func TestEquals(t *testing.T) {
	a := NewSet(0, 1, 2)
	b := NewSet(0, 2, 1)
	if !a.Equals(b) {
		t.Fatalf("expected sets with the same elements in different order to be equal")
	}
}
