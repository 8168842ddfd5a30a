package llm

import "testing"

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "single char", text: "a", want: 1},
		{name: "exact multiple", text: "abcdefgh", want: 2},
		{name: "rounds up", text: "abcdefghi", want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateTokens(tt.text); got != tt.want {
				t.Fatalf("estimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimateTokensCountsRunesNotBytes(t *testing.T) {
	// Four multi-byte runes should count as one token, not three.
	if got := estimateTokens("日本語字"); got != 1 {
		t.Fatalf("estimateTokens = %d, want 1", got)
	}
}
