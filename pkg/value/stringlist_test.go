package value

import "testing"

func TestStringListAddDedup(t *testing.T) {
	l := NewStringList("a", "b", "a")
	if l.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", l.Len())
	}
	if !l.Has("a") || !l.Has("b") {
		t.Fatal("expected a and b present")
	}
}

func TestStringListRemovePreservesOrder(t *testing.T) {
	l := NewStringList("a", "b", "c")
	l.Remove("b")
	got := l.Items()
	want := []string{"a", "c"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	l := NewStringList("a", "b", "c")
	s := l.Join(".")
	if s != "a.b.c" {
		t.Fatalf("join: got %q", s)
	}
	back := SplitStringList(s, ".")
	if back.Join(".") != s {
		t.Fatalf("round-trip mismatch: %q vs %q", back.Join("."), s)
	}
}

func TestSplitEmptyStringIsEmptyList(t *testing.T) {
	l := SplitStringList("", ".")
	if l.Len() != 0 {
		t.Fatalf("expected empty list, got %d items", l.Len())
	}
}

func TestDiff(t *testing.T) {
	curr := NewStringList("a", "b", "c")
	want := NewStringList("a", "c", "x")
	added, removed := Diff(curr, want)
	if len(added) != 1 || added[0] != "x" {
		t.Fatalf("added: got %v", added)
	}
	if len(removed) != 1 || removed[0] != "b" {
		t.Fatalf("removed: got %v", removed)
	}
}

func TestUnionSubtract(t *testing.T) {
	a := NewStringList("a", "b")
	b := NewStringList("b", "c")
	u := Union(a, b)
	if u.Join(",") != "a,b,c" {
		t.Fatalf("union: got %q", u.Join(","))
	}
	s := Subtract(a, b)
	if s.Join(",") != "a" {
		t.Fatalf("subtract: got %q", s.Join(","))
	}
}
