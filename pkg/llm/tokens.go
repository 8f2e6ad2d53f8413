package llm

import (
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// CountTokens returns the token count of text using the cl100k_base encoding,
// falling back to character-based estimation if the encoding is unavailable.
func CountTokens(text string) int {
	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return estimateTokens(text)
	}
	ids, _, err := enc.Encode(text)
	if err != nil {
		return estimateTokens(text)
	}
	return len(ids)
}

// estimateTokens assumes ~4 characters per token.
func estimateTokens(text string) int {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
