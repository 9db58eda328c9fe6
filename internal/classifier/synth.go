package classifier

import (
	"math/rand"
	"strings"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
)

// Noise controls how far synthetic applicants stray from their profile.
type Noise struct {
	// OffProfile is the probability of adding a liked subject that the
	// profile neither likes nor dislikes.
	OffProfile float64 `koanf:"off_profile"`

	// ExtraExam is the probability of adding a generic exam.
	ExtraExam float64 `koanf:"extra_exam"`

	// Synonym is the per-keyword probability of replacing an interest with
	// one of its variants.
	Synonym float64 `koanf:"synonym"`
}

// DefaultNoise mirrors the perturbation levels the model was tuned with.
func DefaultNoise() Noise {
	return Noise{OffProfile: 0.3, ExtraExam: 0.4, Synonym: 0.3}
}

// labeledResponse is a synthetic answer with the index of its faculty.
type labeledResponse struct {
	Response applicant.Response
	Label    int
}

// synthesizer fabricates plausible questionnaire answers from the faculty
// profiles.
type synthesizer struct {
	lex       *lexicon.Lexicon
	faculties []lexicon.Faculty
	subjects  []lexicon.Subject
	noise     Noise
	rng       *rand.Rand
}

func newSynthesizer(lex *lexicon.Lexicon, noise Noise, rng *rand.Rand) *synthesizer {
	return &synthesizer{
		lex:       lex,
		faculties: lex.Faculties(),
		subjects:  lex.Subjects(),
		noise:     noise,
		rng:       rng,
	}
}

// generate draws n samples with labels chosen uniformly.
func (s *synthesizer) generate(n int) []labeledResponse {
	out := make([]labeledResponse, n)
	for i := range out {
		label := s.rng.Intn(len(s.faculties))
		out[i] = labeledResponse{Response: s.response(label), Label: label}
	}
	return out
}

// response fabricates one answer for the faculty at index label.
func (s *synthesizer) response(label int) applicant.Response {
	f := s.faculties[label]

	liked := s.pick(f.Liked, s.between(2, 5, len(f.Liked)))
	if s.rng.Float64() < s.noise.OffProfile {
		if extra, ok := s.offProfileSubject(f, liked); ok {
			liked = append(liked, extra)
		}
	}

	disliked := s.pick(f.Disliked, s.between(1, 4, len(f.Disliked)))

	exams := append([]string(nil), liked...)
	if s.rng.Float64() < s.noise.ExtraExam {
		exam := lexicon.GenericExams[s.rng.Intn(len(lexicon.GenericExams))]
		if !contains(exams, exam) {
			exams = append(exams, exam)
		}
	}

	interests := s.pick(f.Keywords, s.between(2, 3, len(f.Keywords)))
	for i, kw := range interests {
		if s.rng.Float64() >= s.noise.Synonym {
			continue
		}
		if variants := s.lex.Synonyms(kw); len(variants) > 0 {
			interests[i] = variants[s.rng.Intn(len(variants))]
		}
	}

	var dislikes []string
	if len(s.faculties) > 1 {
		other := s.rng.Intn(len(s.faculties) - 1)
		if other >= label {
			other++
		}
		of := s.faculties[other]
		dislikes = s.pick(of.Keywords, s.between(1, 2, len(of.Keywords)))
	}

	return applicant.Response{
		Liked:     liked,
		Disliked:  disliked,
		Exams:     exams,
		Interests: strings.Join(interests, ", "),
		Dislikes:  strings.Join(dislikes, ", "),
	}
}

// between draws a count in [lo, hi] clamped to available.
func (s *synthesizer) between(lo, hi, available int) int {
	if hi > available {
		hi = available
	}
	if lo > hi {
		return hi
	}
	return lo + s.rng.Intn(hi-lo+1)
}

// pick samples k distinct elements.
func (s *synthesizer) pick(from []string, k int) []string {
	perm := s.rng.Perm(len(from))
	out := make([]string, 0, k)
	for _, i := range perm[:k] {
		out = append(out, from[i])
	}
	return out
}

func (s *synthesizer) offProfileSubject(f lexicon.Faculty, liked []string) (string, bool) {
	var pool []string
	for _, subj := range s.subjects {
		if contains(f.Liked, subj.Code) || contains(f.Disliked, subj.Code) || contains(liked, subj.Code) {
			continue
		}
		pool = append(pool, subj.Code)
	}
	if len(pool) == 0 {
		return "", false
	}
	return pool[s.rng.Intn(len(pool))], true
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// Profile is a synthetic applicant with the faculty it was drawn from.
type Profile struct {
	Response    applicant.Response
	FacultyCode string
}

// Profiles draws n synthetic applicants. The same seed yields the same
// profiles.
func Profiles(lex *lexicon.Lexicon, noise Noise, n int, seed int64) []Profile {
	s := newSynthesizer(lex, noise, rand.New(rand.NewSource(seed)))
	out := make([]Profile, 0, n)
	for _, lr := range s.generate(n) {
		out = append(out, Profile{Response: lr.Response, FacultyCode: s.faculties[lr.Label].Code})
	}
	return out
}
