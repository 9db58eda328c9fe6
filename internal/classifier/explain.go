package classifier

import (
	"fmt"
	"strings"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/features"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
)

const (
	highConfidence = 0.8
	goodConfidence = 0.6
)

// explain builds the human-readable reason for a prediction.
func explain(lex *lexicon.Lexicon, f lexicon.Faculty, resp applicant.Response, confidence float64) string {
	var parts []string

	var matched []string
	for _, code := range resp.Liked {
		if contains(f.Liked, code) {
			matched = append(matched, strings.ToLower(lex.SubjectName(code)))
		}
	}
	if len(matched) > 0 {
		parts = append(parts, fmt.Sprintf("Ваши любимые предметы (%s) соответствуют профилю факультета", strings.Join(matched, ", ")))
	}

	if resp.Interests != "" {
		for _, kw := range f.Keywords {
			if features.KeywordScore(resp.Interests, kw) > 0 {
				parts = append(parts, "Ваши интересы совпадают с направлениями факультета")
				break
			}
		}
	}

	parts = append(parts, confidenceBand(confidence))
	return strings.Join(parts, ". ")
}

func confidenceBand(c float64) string {
	pct := c * 100
	switch {
	case c >= highConfidence:
		return fmt.Sprintf("Высокая уверенность модели (%.1f%%)", pct)
	case c >= goodConfidence:
		return fmt.Sprintf("Хорошее соответствие (%.1f%%)", pct)
	default:
		return fmt.Sprintf("Возможный вариант для рассмотрения (%.1f%%)", pct)
	}
}
