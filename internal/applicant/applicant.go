/*
Package applicant defines the transient values exchanged while advising an
applicant: the answers collected by the questionnaire and the recommendation
produced from them.

Neither type is persisted by the recommendation path; the bot keeps a
Response only for the duration of a dialogue.
*/
package applicant

// Response holds the answers of a single questionnaire pass.
//
// Subject and exam entries are codes from the lexicon. Unknown codes are
// tolerated and ignored downstream.
type Response struct {
	Liked     []string `json:"liked"`
	Disliked  []string `json:"disliked"`
	Exams     []string `json:"exams"`
	Interests string   `json:"interests"`
	Dislikes  string   `json:"dislikes"`
}

// IsEmpty reports whether no answer was given at all.
func (r Response) IsEmpty() bool {
	return len(r.Liked) == 0 && len(r.Disliked) == 0 && len(r.Exams) == 0 &&
		r.Interests == "" && r.Dislikes == ""
}

// Source names the component that produced a recommendation.
type Source string

const (
	SourceClassifier Source = "classifier"
	SourceKeywords   Source = "keywords"
)

// Recommendation is the advice shown to the applicant.
type Recommendation struct {
	FacultyCode string  `json:"faculty_code"`
	FacultyName string  `json:"faculty_name"`
	Reason      string  `json:"reason"`
	Directions  string  `json:"directions"`
	Confidence  float64 `json:"confidence"`
	Source      Source  `json:"source"`
}
