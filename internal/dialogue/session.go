package dialogue

import (
	"sync"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
)

// Step is a position in the questionnaire.
type Step int

const (
	StepIdle Step = iota
	StepLiked
	StepDisliked
	StepExams
	StepInterests
	StepDislikes
	StepChooseFaculty
	StepReuseContacts
	StepPhone
	StepEmail
	StepConfirm
)

var stepNames = map[Step]string{
	StepIdle:          "idle",
	StepLiked:         "liked",
	StepDisliked:      "disliked",
	StepExams:         "exams",
	StepInterests:     "interests",
	StepDislikes:      "dislikes",
	StepChooseFaculty: "choose_faculty",
	StepReuseContacts: "reuse_contacts",
	StepPhone:         "phone",
	StepEmail:         "email",
	StepConfirm:       "confirm",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// transitions is the forward path of the questionnaire. Steps missing here
// are left only by explicit jumps (contacts reuse, edits, reset).
var transitions = map[Step]Step{
	StepLiked:         StepDisliked,
	StepDisliked:      StepExams,
	StepExams:         StepInterests,
	StepInterests:     StepDislikes,
	StepDislikes:      StepChooseFaculty,
	StepChooseFaculty: StepPhone,
	StepReuseContacts: StepConfirm,
	StepPhone:         StepEmail,
	StepEmail:         StepConfirm,
}

// Selection lists, as they appear in callback data.
const (
	listLiked    = "liked"
	listDisliked = "disliked"
	listExams    = "exams"
)

// listSteps maps a selection list to the step that edits it.
var listSteps = map[string]Step{
	listLiked:    StepLiked,
	listDisliked: StepDisliked,
	listExams:    StepExams,
}

type session struct {
	mu sync.Mutex

	step      Step
	liked     []string
	disliked  []string
	exams     []string
	interests string
	dislikes  string

	recommended applicant.Recommendation
	faculty     string
	phone       string
	email       string
}

func (s *session) reset() {
	s.step = StepIdle
	s.liked = nil
	s.disliked = nil
	s.exams = nil
	s.interests = ""
	s.dislikes = ""
	s.recommended = applicant.Recommendation{}
	s.faculty = ""
	s.phone = ""
	s.email = ""
}

func (s *session) response() applicant.Response {
	return applicant.Response{
		Liked:     append([]string(nil), s.liked...),
		Disliked:  append([]string(nil), s.disliked...),
		Exams:     append([]string(nil), s.exams...),
		Interests: s.interests,
		Dislikes:  s.dislikes,
	}
}

// selection returns the list edited at the current step.
func (s *session) selection(list string) *[]string {
	switch list {
	case listLiked:
		return &s.liked
	case listDisliked:
		return &s.disliked
	case listExams:
		return &s.exams
	}
	return nil
}

// toggle adds code to the list or removes it when present.
func toggle(list []string, code string) []string {
	for i, c := range list {
		if c == code {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return append(list, code)
}
