package testutil

import "testing"

func TestIDSequence(t *testing.T) {
	g := NewIDSequence("corr")

	want := []string{"corr-000001", "corr-000002", "corr-000003"}
	for i, w := range want {
		if got := g.Next(); got != w {
			t.Errorf("Next() call %d = %q, want %q", i+1, got, w)
		}
	}
}

func TestIDSequence_DefaultPrefix(t *testing.T) {
	g := NewIDSequence("")

	if got := g.Next(); got != "row-000001" {
		t.Errorf("Next() = %q, want row-000001", got)
	}
}

func TestIDSequence_IndependentGenerators(t *testing.T) {
	a := NewIDSequence("a")
	b := NewIDSequence("b")

	a.Next()
	a.Next()

	if got := b.Next(); got != "b-000001" {
		t.Errorf("Next() = %q, want b-000001", got)
	}
}
