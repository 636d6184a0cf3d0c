package output

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 0},
		{"ab", 1},
		{"next();", 2},
		{strings.Repeat("x", 400), 100},
		{"→→→→", 1},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestFitToBudget(t *testing.T) {
	items := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
		strings.Repeat("d", 40),
	}
	render := func(xs []string) (string, error) { return strings.Join(xs, ""), nil }

	t.Run("everything fits", func(t *testing.T) {
		kept, text, err := FitToBudget(items, 100, render)
		if err != nil {
			t.Fatal(err)
		}
		if len(kept) != 4 || len(text) != 160 {
			t.Errorf("kept %d items, %d chars", len(kept), len(text))
		}
	})

	t.Run("prefix kept", func(t *testing.T) {
		kept, text, err := FitToBudget(items, 25, render)
		if err != nil {
			t.Fatal(err)
		}
		if len(kept) != 2 || text != items[0]+items[1] {
			t.Errorf("kept %d items, text %q", len(kept), text)
		}
	})

	t.Run("nothing fits", func(t *testing.T) {
		kept, text, err := FitToBudget(items, 1, render)
		if err != nil {
			t.Fatal(err)
		}
		if len(kept) != 0 || text != "" {
			t.Errorf("kept %d items, text %q", len(kept), text)
		}
	})
}
