package termrender

import (
	"testing"
)

func TestRuneWidth(t *testing.T) {
	if RuneWidth('A') != 1 {
		t.Errorf("expected width 1 for 'A', got %d", RuneWidth('A'))
	}
	if RuneWidth('世') != 2 {
		t.Errorf("expected width 2 for CJK, got %d", RuneWidth('世'))
	}
}

func TestIsWideRune(t *testing.T) {
	if IsWideRune('A') {
		t.Error("expected 'A' to be narrow")
	}
	if !IsWideRune('界') {
		t.Error("expected CJK rune to be wide")
	}
}

func TestStringWidth(t *testing.T) {
	if w := StringWidth("abc"); w != 3 {
		t.Errorf("expected width 3, got %d", w)
	}
	if w := StringWidth("世界"); w != 4 {
		t.Errorf("expected width 4, got %d", w)
	}
}
