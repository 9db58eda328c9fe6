/*
Package features turns questionnaire answers into fixed-length numeric
vectors.

A vector is the concatenation of five blocks:

	liked subjects     multi-hot over the subject list
	disliked subjects  multi-hot over the subject list
	exams              multi-hot over the subject list (level suffix stripped)
	interests          keyword match scores over the vocabulary
	dislikes           keyword match scores over the vocabulary

The subject list and the vocabulary together form a Schema. A Schema is
stored next to a trained model so that a loaded model always sees vectors
laid out exactly as during training.
*/
package features

import (
	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
)

const (
	// ExactMatch is the score of a keyword found verbatim (after normalization).
	ExactMatch = 1.0

	// PartialMatch is the score of a multi-word keyword whose words all
	// occur, but not as one phrase.
	PartialMatch = 0.5
)

// Vector is an encoded questionnaire response.
type Vector []float64

// Schema fixes the layout of a Vector.
type Schema struct {
	Subjects []string
	Keywords []string
}

// SchemaFromLexicon derives the layout from the lexicon's subject order and
// keyword vocabulary.
func SchemaFromLexicon(lex *lexicon.Lexicon) Schema {
	subjects := lex.Subjects()
	codes := make([]string, len(subjects))
	for i, s := range subjects {
		codes[i] = s.Code
	}
	return Schema{Subjects: codes, Keywords: lex.Vocabulary()}
}

// Dim is the length of every vector produced under this schema.
func (s Schema) Dim() int {
	return 3*len(s.Subjects) + 2*len(s.Keywords)
}

// Equal reports whether two schemas produce identical layouts.
func (s Schema) Equal(o Schema) bool {
	return equalStrings(s.Subjects, o.Subjects) && equalStrings(s.Keywords, o.Keywords)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Encoder encodes responses under a fixed Schema. Safe for concurrent use.
type Encoder struct {
	schema       Schema
	subjectIndex map[string]int
	keywordStems [][]string
}

// NewEncoder prepares an encoder; keyword normalization happens once here.
func NewEncoder(schema Schema) *Encoder {
	e := &Encoder{
		schema:       Schema{Subjects: append([]string(nil), schema.Subjects...), Keywords: append([]string(nil), schema.Keywords...)},
		subjectIndex: make(map[string]int, len(schema.Subjects)),
		keywordStems: make([][]string, len(schema.Keywords)),
	}
	for i, code := range schema.Subjects {
		e.subjectIndex[code] = i
	}
	for i, kw := range schema.Keywords {
		e.keywordStems[i] = Normalize(kw)
	}
	return e
}

// Schema returns the layout this encoder produces.
func (e *Encoder) Schema() Schema {
	return e.schema
}

// Dim is the vector length.
func (e *Encoder) Dim() int {
	return e.schema.Dim()
}

// Encode maps a response to a vector. Unknown subject and exam codes are
// dropped; empty fields encode as zero blocks.
func (e *Encoder) Encode(resp applicant.Response) Vector {
	n := len(e.schema.Subjects)
	v := make(Vector, e.Dim())

	e.multiHot(v[0:n], resp.Liked, false)
	e.multiHot(v[n:2*n], resp.Disliked, false)
	e.multiHot(v[2*n:3*n], resp.Exams, true)

	k := len(e.schema.Keywords)
	e.keywordScores(v[3*n:3*n+k], resp.Interests)
	e.keywordScores(v[3*n+k:], resp.Dislikes)

	return v
}

func (e *Encoder) multiHot(dst Vector, codes []string, exams bool) {
	for _, code := range codes {
		if exams {
			code = lexicon.StripExamLevel(code)
		}
		if i, ok := e.subjectIndex[code]; ok {
			dst[i] = 1
		}
	}
}

func (e *Encoder) keywordScores(dst Vector, text string) {
	if text == "" {
		return
	}
	tokens := Normalize(text)
	if len(tokens) == 0 {
		return
	}
	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}
	for i, kw := range e.keywordStems {
		dst[i] = matchScore(tokens, present, kw)
	}
}

// matchScore scores a normalized keyword against normalized text.
func matchScore(tokens []string, present map[string]bool, kw []string) float64 {
	if len(kw) == 0 {
		return 0
	}
	if containsPhrase(tokens, kw) {
		return ExactMatch
	}
	if len(kw) == 1 {
		return 0
	}
	for _, w := range kw {
		if !present[w] {
			return 0
		}
	}
	return PartialMatch
}

func containsPhrase(tokens, phrase []string) bool {
outer:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		for j, w := range phrase {
			if tokens[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}

// KeywordScore scores a single keyword against text, using the same rules
// as Encode.
func KeywordScore(text, keyword string) float64 {
	tokens := Normalize(text)
	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}
	return matchScore(tokens, present, Normalize(keyword))
}
