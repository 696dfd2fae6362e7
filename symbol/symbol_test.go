package symbol

import "testing"

func TestOccludesSingleCodepointInClass(t *testing.T) {
	digit := NewCodepoint("digit-5", '5', 0)
	class := NewClass(ClassNum, "Num")
	if !Occludes(digit, class) {
		t.Fatalf("expected %v to occlude %v", digit, class)
	}
}

func TestOccludesReflexive(t *testing.T) {
	a := NewTerminal("a", 'a', 1)
	if !Occludes(a, a) {
		t.Fatalf("expected a symbol to occlude itself")
	}
}

func TestOccludesFalseForUnrelated(t *testing.T) {
	kw := NewToken("if", 10, 100)
	class := NewClass(ClassID, "Id")
	if Occludes(kw, class) {
		t.Fatalf("did not expect token to occlude class")
	}
}

func TestComparePrecedenceNonPositiveIgnored(t *testing.T) {
	if ComparePrecedence(0, 0) != 0 {
		t.Fatalf("expected two zero precedences to compare equal")
	}
	if ComparePrecedence(0, 5) >= 0 {
		t.Fatalf("expected zero precedence to lose to a positive one")
	}
	if ComparePrecedence(5, 0) <= 0 {
		t.Fatalf("expected a positive precedence to beat zero")
	}
}

func TestSymbolEqual(t *testing.T) {
	a := NewTerminal("a", 'a', 1)
	b := NewTerminal("a-again", 'a', 2)
	if !a.Equal(b) {
		t.Fatalf("expected two char literals with the same byte to be equal regardless of precedence")
	}
	c := NewTerminal("b", 'b', 1)
	if a.Equal(c) {
		t.Fatalf("did not expect distinct char literals to be equal")
	}
}

func TestIsCustomPrecedence(t *testing.T) {
	low := NewToken("x", 1, 5)
	high := NewToken("y", 2, CustomTokenBaseline+1)
	if low.IsCustomPrecedence() {
		t.Fatalf("did not expect low precedence to be custom")
	}
	if !high.IsCustomPrecedence() {
		t.Fatalf("expected precedence above baseline to be custom")
	}
}
