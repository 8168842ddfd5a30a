package llm

import "unicode/utf8"

// estimateTokens approximates the token count of text.
//
// None of the supported backends expose a tokenizer endpoint usable without a
// round trip, so all clients share the conventional four-characters-per-token
// heuristic. Counts are approximate and used for budgeting prompts, not
// billing.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	tokens := (runes + 3) / 4
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
