/*
Package lexicon holds the static knowledge the advisor reasons over: the
closed set of school subjects, the exam list, the faculty profiles and the
keyword variants used to perturb synthetic answers.

A Lexicon is immutable once built and safe for concurrent use.
*/
package lexicon

import (
	"fmt"
	"strings"
)

// Subject is a school subject known to the questionnaire.
type Subject struct {
	Code string
	Name string
}

// Exam is a state exam an applicant can report. Exam codes may carry a
// level suffix that is not part of the subject space.
type Exam struct {
	Code string
	Name string
}

// Faculty describes what a typical applicant of a faculty likes and dislikes.
type Faculty struct {
	Code       string
	Name       string
	Summary    string
	Liked      []string
	Disliked   []string
	Keywords   []string
	Programmes []string
}

// Lexicon is the read-only reference data shared by every component.
type Lexicon struct {
	subjects     []Subject
	exams        []Exam
	faculties    []Faculty
	defaultCode  string
	synonyms     map[string][]string
	subjectNames map[string]string
	examNames    map[string]string
	facultyIdx   map[string]int
}

// New validates the given tables and builds a Lexicon. Faculty order is
// significant: it is the tie-break order of the keyword scorer and the
// label order of a freshly trained classifier.
func New(subjects []Subject, exams []Exam, faculties []Faculty, defaultCode string, synonyms map[string][]string) (*Lexicon, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("lexicon: no subjects")
	}
	if len(faculties) == 0 {
		return nil, fmt.Errorf("lexicon: no faculties")
	}

	l := &Lexicon{
		subjects:     append([]Subject(nil), subjects...),
		exams:        append([]Exam(nil), exams...),
		faculties:    make([]Faculty, 0, len(faculties)),
		defaultCode:  defaultCode,
		synonyms:     make(map[string][]string, len(synonyms)),
		subjectNames: make(map[string]string, len(subjects)),
		examNames:    make(map[string]string, len(exams)),
		facultyIdx:   make(map[string]int, len(faculties)),
	}

	for _, s := range subjects {
		if _, dup := l.subjectNames[s.Code]; dup {
			return nil, fmt.Errorf("lexicon: duplicate subject %q", s.Code)
		}
		l.subjectNames[s.Code] = s.Name
	}
	for _, e := range exams {
		l.examNames[e.Code] = e.Name
	}

	for _, f := range faculties {
		if _, dup := l.facultyIdx[f.Code]; dup {
			return nil, fmt.Errorf("lexicon: duplicate faculty %q", f.Code)
		}
		if len(f.Keywords) == 0 {
			return nil, fmt.Errorf("lexicon: faculty %q has no keywords", f.Code)
		}
		for _, code := range append(append([]string(nil), f.Liked...), f.Disliked...) {
			if _, ok := l.subjectNames[code]; !ok {
				return nil, fmt.Errorf("lexicon: faculty %q references unknown subject %q", f.Code, code)
			}
		}
		l.facultyIdx[f.Code] = len(l.faculties)
		l.faculties = append(l.faculties, cloneFaculty(f))
	}

	if _, ok := l.facultyIdx[defaultCode]; !ok {
		return nil, fmt.Errorf("lexicon: default faculty %q is not declared", defaultCode)
	}

	for k, v := range synonyms {
		l.synonyms[k] = append([]string(nil), v...)
	}

	return l, nil
}

func cloneFaculty(f Faculty) Faculty {
	f.Liked = append([]string(nil), f.Liked...)
	f.Disliked = append([]string(nil), f.Disliked...)
	f.Keywords = append([]string(nil), f.Keywords...)
	f.Programmes = append([]string(nil), f.Programmes...)
	return f
}

// Subjects returns the subject list in its canonical order.
func (l *Lexicon) Subjects() []Subject {
	return append([]Subject(nil), l.subjects...)
}

// Exams returns the exam list in display order.
func (l *Lexicon) Exams() []Exam {
	return append([]Exam(nil), l.exams...)
}

// Faculties returns the profiles in declaration order.
func (l *Lexicon) Faculties() []Faculty {
	out := make([]Faculty, len(l.faculties))
	for i, f := range l.faculties {
		out[i] = cloneFaculty(f)
	}
	return out
}

// Faculty looks a profile up by code.
func (l *Lexicon) Faculty(code string) (Faculty, bool) {
	i, ok := l.facultyIdx[code]
	if !ok {
		return Faculty{}, false
	}
	return cloneFaculty(l.faculties[i]), true
}

// FacultyIndex returns the declaration index of a faculty, or -1.
func (l *Lexicon) FacultyIndex(code string) int {
	if i, ok := l.facultyIdx[code]; ok {
		return i
	}
	return -1
}

// DefaultFaculty is the profile recommended when nothing in the answers
// points anywhere.
func (l *Lexicon) DefaultFaculty() Faculty {
	return cloneFaculty(l.faculties[l.facultyIdx[l.defaultCode]])
}

// SubjectName returns the display name of a subject, or the code itself.
func (l *Lexicon) SubjectName(code string) string {
	if name, ok := l.subjectNames[code]; ok {
		return name
	}
	return code
}

// HasSubject reports whether code belongs to the subject space.
func (l *Lexicon) HasSubject(code string) bool {
	_, ok := l.subjectNames[code]
	return ok
}

// ExamName returns the display name of an exam, or the code itself.
func (l *Lexicon) ExamName(code string) string {
	if name, ok := l.examNames[code]; ok {
		return name
	}
	return code
}

// Vocabulary is the de-duplicated union of all faculty keywords in
// first-seen order.
func (l *Lexicon) Vocabulary() []string {
	seen := make(map[string]bool)
	var vocab []string
	for _, f := range l.faculties {
		for _, kw := range f.Keywords {
			if seen[kw] {
				continue
			}
			seen[kw] = true
			vocab = append(vocab, kw)
		}
	}
	return vocab
}

// Synonyms returns the replacement phrases known for a keyword.
func (l *Lexicon) Synonyms(keyword string) []string {
	return append([]string(nil), l.synonyms[keyword]...)
}

// WithDisplayNames returns a copy of the lexicon with faculty names
// replaced by the given code to name table. Unknown codes are ignored.
func (l *Lexicon) WithDisplayNames(names map[string]string) *Lexicon {
	if len(names) == 0 {
		return l
	}
	cp := *l
	cp.faculties = make([]Faculty, len(l.faculties))
	for i, f := range l.faculties {
		f = cloneFaculty(f)
		if name := strings.TrimSpace(names[f.Code]); name != "" {
			f.Name = name
		}
		cp.faculties[i] = f
	}
	return &cp
}

// StripExamLevel removes a "_basic" or "_advanced" level suffix so that an
// exam code can be matched against the subject space.
func StripExamLevel(code string) string {
	for _, suffix := range []string{"_basic", "_advanced"} {
		if strings.HasSuffix(code, suffix) {
			return strings.TrimSuffix(code, suffix)
		}
	}
	return code
}
