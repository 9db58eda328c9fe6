/*
Package scoring implements the rule-based faculty scorer.

The scorer needs no training and cannot fail, which makes it the fallback
whenever the classifier is unavailable. Scores are plain keyword counts over
a lower-cased blob of the applicant's liked subjects, interests and exams.
*/
package scoring

import (
	"strings"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
)

const (
	// Confidence is reported for every keyword-based recommendation.
	Confidence = 0.5

	// defaultReasonItems is how many matched terms the reason lists.
	defaultReasonItems = 3

	// directionItems is how many keywords go into the directions list.
	directionItems = 4

	noSignalReason = "Универсальный выбор для тех, кто интересуется современными технологиями"
)

// FacultyScore is the keyword count of one faculty.
type FacultyScore struct {
	Code    string
	Score   int
	Matches []string
}

// Options tune the scorer output.
type Options struct {
	// ReasonItems caps the number of matched terms listed in the reason.
	ReasonItems int
}

// Scorer ranks faculties by keyword overlap.
type Scorer struct {
	lex         *lexicon.Lexicon
	reasonItems int
}

// NewScorer creates a scorer over the given lexicon.
func NewScorer(lex *lexicon.Lexicon, opts Options) *Scorer {
	if opts.ReasonItems <= 0 {
		opts.ReasonItems = defaultReasonItems
	}
	return &Scorer{lex: lex, reasonItems: opts.ReasonItems}
}

// blob joins the searchable parts of a response.
func (s *Scorer) blob(resp applicant.Response) string {
	parts := make([]string, 0, len(resp.Liked)+len(resp.Exams)+1)
	for _, code := range resp.Liked {
		parts = append(parts, s.lex.SubjectName(code))
	}
	parts = append(parts, resp.Interests)
	for _, code := range resp.Exams {
		parts = append(parts, s.lex.ExamName(code))
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Rank scores every faculty, in declaration order.
func (s *Scorer) Rank(resp applicant.Response) []FacultyScore {
	text := s.blob(resp)
	faculties := s.lex.Faculties()

	scores := make([]FacultyScore, 0, len(faculties))
	for _, f := range faculties {
		fs := FacultyScore{Code: f.Code}
		for _, kw := range f.Keywords {
			if n := strings.Count(text, strings.ToLower(kw)); n > 0 {
				fs.Score += n
				fs.Matches = append(fs.Matches, kw)
			}
		}
		scores = append(scores, fs)
	}
	return scores
}

// Best returns the highest score. Ties go to the faculty declared first;
// when nothing matched the lexicon's default faculty is returned with
// score zero.
func (s *Scorer) Best(resp applicant.Response) FacultyScore {
	best := FacultyScore{Code: s.lex.DefaultFaculty().Code}
	for _, fs := range s.Rank(resp) {
		if fs.Score > best.Score {
			best = fs
		}
	}
	return best
}

// Score produces a recommendation. It never fails.
func (s *Scorer) Score(resp applicant.Response) applicant.Recommendation {
	best := s.Best(resp)
	faculty, _ := s.lex.Faculty(best.Code)

	return applicant.Recommendation{
		FacultyCode: faculty.Code,
		FacultyName: faculty.Name,
		Reason:      s.reason(faculty, best, resp),
		Directions:  Directions(faculty),
		Confidence:  Confidence,
		Source:      applicant.SourceKeywords,
	}
}

func (s *Scorer) reason(f lexicon.Faculty, best FacultyScore, resp applicant.Response) string {
	if best.Score == 0 {
		return noSignalReason
	}

	items := make([]string, 0, s.reasonItems)
	for _, kw := range best.Matches {
		if len(items) == s.reasonItems {
			break
		}
		items = append(items, kw)
	}
	for _, code := range overlap(resp.Liked, f.Liked) {
		if len(items) == s.reasonItems {
			break
		}
		items = append(items, strings.ToLower(s.lex.SubjectName(code)))
	}

	return f.Summary + ". Совпадения с профилем: " + strings.Join(items, ", ")
}

// Directions renders the first keywords of a faculty as a bulleted list.
func Directions(f lexicon.Faculty) string {
	kws := f.Keywords
	if len(kws) > directionItems {
		kws = kws[:directionItems]
	}
	return "• " + strings.Join(kws, "\n• ")
}

// overlap returns the elements of a that also occur in b, in a's order.
func overlap(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, x := range b {
		in[x] = true
	}
	var out []string
	for _, x := range a {
		if in[x] {
			out = append(out, x)
		}
	}
	return out
}
