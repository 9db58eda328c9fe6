/*
Package benchmark measures how well recommenders recover the faculty a
synthetic applicant was drawn from.

Each candidate (the keyword scorer, the trained classifier) predicts a
faculty for every profile. The result reports overall accuracy, recall per
faculty and how often the first two candidates agree.
*/
package benchmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/classifier"
)

// PredictFunc returns the faculty code chosen for resp.
type PredictFunc func(resp applicant.Response) (string, error)

// Candidate is a named recommender under test.
type Candidate struct {
	Name    string
	Predict PredictFunc
}

// FacultyRecall counts hits for profiles of one faculty.
type FacultyRecall struct {
	Code    string  `json:"code"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Recall  float64 `json:"recall"`
}

// CandidateResult summarises one candidate.
type CandidateResult struct {
	Name       string          `json:"name"`
	Correct    int             `json:"correct"`
	Errors     int             `json:"errors"`
	Accuracy   float64         `json:"accuracy"`
	PerFaculty []FacultyRecall `json:"perFaculty"`
}

// Result contains the comparison.
type Result struct {
	Profiles   int               `json:"profiles"`
	Candidates []CandidateResult `json:"candidates"`
	// Agreement is the share of profiles on which the first two candidates
	// chose the same faculty; zero with fewer than two candidates.
	Agreement float64 `json:"agreement"`
}

// Run evaluates every candidate on profiles. faculties fixes the order of
// the per-faculty breakdown. A failed prediction counts as a miss.
func Run(ctx context.Context, profiles []classifier.Profile, faculties []string, candidates []Candidate) (*Result, error) {
	result := &Result{Profiles: len(profiles)}
	choices := make([][]string, len(candidates))

	for ci, c := range candidates {
		res := CandidateResult{Name: c.Name}
		hits := make(map[string]int, len(faculties))
		totals := make(map[string]int, len(faculties))
		choices[ci] = make([]string, len(profiles))

		for pi, p := range profiles {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			totals[p.FacultyCode]++

			code, err := c.Predict(p.Response)
			if err != nil {
				res.Errors++
				continue
			}
			choices[ci][pi] = code
			if code == p.FacultyCode {
				res.Correct++
				hits[p.FacultyCode]++
			}
		}

		res.Accuracy = ratio(res.Correct, len(profiles))
		for _, code := range faculties {
			res.PerFaculty = append(res.PerFaculty, FacultyRecall{
				Code:    code,
				Correct: hits[code],
				Total:   totals[code],
				Recall:  ratio(hits[code], totals[code]),
			})
		}
		result.Candidates = append(result.Candidates, res)
	}

	if len(candidates) >= 2 {
		same := 0
		for pi := range profiles {
			if a := choices[0][pi]; a != "" && a == choices[1][pi] {
				same++
			}
		}
		result.Agreement = ratio(same, len(profiles))
	}
	return result, nil
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// FormatResult formats the benchmark result for display.
func FormatResult(result *Result) string {
	var sb strings.Builder

	sb.WriteString("╔══════════════════════════════════════════════════════════════╗\n")
	sb.WriteString("║           RECOMMENDATION ACCURACY BENCHMARK                  ║\n")
	sb.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
	sb.WriteString(fmt.Sprintf("║  Profiles: %-50d║\n", result.Profiles))

	for _, c := range result.Candidates {
		sb.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
		sb.WriteString(fmt.Sprintf("║  %-60s║\n", strings.ToUpper(c.Name)))
		sb.WriteString(fmt.Sprintf("║     Accuracy: %-47s║\n", fmt.Sprintf("%.1f%% (%d/%d)", c.Accuracy*100, c.Correct, result.Profiles)))
		if c.Errors > 0 {
			sb.WriteString(fmt.Sprintf("║     Errors:   %-47d║\n", c.Errors))
		}
		for _, f := range c.PerFaculty {
			line := fmt.Sprintf("%-4s %5.1f%% (%d/%d)", f.Code, f.Recall*100, f.Correct, f.Total)
			sb.WriteString(fmt.Sprintf("║       %s%s║\n", line, pad(line, 55)))
		}
	}

	if len(result.Candidates) >= 2 {
		sb.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
		sb.WriteString(fmt.Sprintf("║  Agreement: %-49s║\n", fmt.Sprintf("%.1f%%", result.Agreement*100)))
	}
	sb.WriteString("╚══════════════════════════════════════════════════════════════╝\n")

	return sb.String()
}

// pad returns the spaces that fill s to width runes.
func pad(s string, width int) string {
	if n := width - len([]rune(s)); n > 0 {
		return strings.Repeat(" ", n)
	}
	return ""
}
