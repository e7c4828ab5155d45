package utils

// Token estimates used to keep LLM prompts inside small-model context
// windows. 1 token ~= 4 characters is close enough for the models in the
// fallback presets.

// CountTokens estimates the number of tokens in text. Non-empty text is
// at least one token.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit cuts text to roughly limit tokens on a rune boundary.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	return string(runes[:charLimit])
}
