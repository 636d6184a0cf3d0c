package output

import "unicode/utf8"

// CharsPerToken is the approximate character-to-token ratio for
// code-heavy text.
const CharsPerToken = 4.0

// EstimateTokens returns an approximate token count for text.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := float64(utf8.RuneCountInString(text)) / CharsPerToken
	return int(tokens + 0.5)
}

// FitToBudget returns the longest prefix of items whose rendering stays
// within limit tokens, together with that rendering. Items should be sorted
// most important first.
func FitToBudget[T any](items []T, limit int, render func([]T) (string, error)) ([]T, string, error) {
	full, err := render(items)
	if err != nil {
		return nil, "", err
	}
	if EstimateTokens(full) <= limit {
		return items, full, nil
	}

	lo, hi := 0, len(items)-1
	best, bestText := 0, ""
	for lo <= hi {
		mid := (lo + hi) / 2
		text, err := render(items[:mid])
		if err != nil {
			return nil, "", err
		}
		if EstimateTokens(text) <= limit {
			best, bestText = mid, text
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best == 0 {
		if bestText, err = render(items[:0]); err != nil {
			return nil, "", err
		}
	}
	return items[:best], bestText, nil
}
