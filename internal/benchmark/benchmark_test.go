package benchmark

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/classifier"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
	"github.com/tusur-bots/faculty-advisor/internal/scoring"
)

var testFaculties = []string{"ФИТ", "ГФ"}

func testProfiles() []classifier.Profile {
	return []classifier.Profile{
		{Response: applicant.Response{Interests: "код"}, FacultyCode: "ФИТ"},
		{Response: applicant.Response{Interests: "код"}, FacultyCode: "ФИТ"},
		{Response: applicant.Response{Interests: "люди"}, FacultyCode: "ГФ"},
		{Response: applicant.Response{Interests: "люди"}, FacultyCode: "ГФ"},
	}
}

func constant(code string) PredictFunc {
	return func(applicant.Response) (string, error) { return code, nil }
}

func TestRunAccuracy(t *testing.T) {
	oracle := func(r applicant.Response) (string, error) {
		if r.Interests == "код" {
			return "ФИТ", nil
		}
		return "ГФ", nil
	}

	result, err := Run(context.Background(), testProfiles(), testFaculties, []Candidate{
		{Name: "oracle", Predict: oracle},
		{Name: "always-fit", Predict: constant("ФИТ")},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Profiles != 4 || len(result.Candidates) != 2 {
		t.Fatalf("unexpected result shape: %+v", result)
	}
	if got := result.Candidates[0].Accuracy; got != 1 {
		t.Errorf("expected oracle accuracy 1, got %v", got)
	}
	if got := result.Candidates[1].Accuracy; got != 0.5 {
		t.Errorf("expected constant accuracy 0.5, got %v", got)
	}

	recall := result.Candidates[1].PerFaculty
	if len(recall) != 2 || recall[0].Code != "ФИТ" || recall[0].Recall != 1 || recall[1].Recall != 0 {
		t.Errorf("unexpected per-faculty recall: %+v", recall)
	}
	if result.Agreement != 0.5 {
		t.Errorf("expected agreement 0.5, got %v", result.Agreement)
	}
}

func TestRunCountsErrorsAsMisses(t *testing.T) {
	failing := func(applicant.Response) (string, error) { return "", errors.New("model unavailable") }

	result, err := Run(context.Background(), testProfiles(), testFaculties, []Candidate{
		{Name: "broken", Predict: failing},
		{Name: "also-broken", Predict: failing},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	c := result.Candidates[0]
	if c.Errors != 4 || c.Correct != 0 || c.Accuracy != 0 {
		t.Errorf("expected 4 errors and no hits, got %+v", c)
	}
	if result.Agreement != 0 {
		t.Errorf("expected failed predictions not to agree, got %v", result.Agreement)
	}
}

func TestRunHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testProfiles(), testFaculties, []Candidate{{Name: "x", Predict: constant("ФИТ")}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestKeywordScorerOnSyntheticProfiles(t *testing.T) {
	lex := lexicon.Default()
	scorer := scoring.NewScorer(lex, scoring.Options{})
	profiles := classifier.Profiles(lex, classifier.DefaultNoise(), 200, 7)

	var codes []string
	for _, f := range lex.Faculties() {
		codes = append(codes, f.Code)
	}

	result, err := Run(context.Background(), profiles, codes, []Candidate{{
		Name:    "keywords",
		Predict: func(r applicant.Response) (string, error) { return scorer.Score(r).FacultyCode, nil },
	}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	total := 0
	for _, f := range result.Candidates[0].PerFaculty {
		total += f.Total
	}
	if total != 200 {
		t.Errorf("expected every profile attributed to a faculty, got %d", total)
	}
	// Five faculties; anything at chance level means the scorer ignores its input.
	if acc := result.Candidates[0].Accuracy; acc <= 0.2 {
		t.Errorf("expected better than chance accuracy, got %.2f", acc)
	}
}

func TestProfilesAreDeterministic(t *testing.T) {
	lex := lexicon.Default()
	a := classifier.Profiles(lex, classifier.DefaultNoise(), 20, 3)
	b := classifier.Profiles(lex, classifier.DefaultNoise(), 20, 3)

	for i := range a {
		if a[i].FacultyCode != b[i].FacultyCode || a[i].Response.Interests != b[i].Response.Interests {
			t.Fatalf("profile %d differs between runs with the same seed", i)
		}
	}
}

func TestFormatResult(t *testing.T) {
	result, err := Run(context.Background(), testProfiles(), testFaculties, []Candidate{
		{Name: "keywords", Predict: constant("ФИТ")},
		{Name: "classifier", Predict: constant("ФИТ")},
	})
	if err != nil {
		t.Fatal(err)
	}

	out := FormatResult(result)
	for _, expected := range []string{"ACCURACY BENCHMARK", "KEYWORDS", "CLASSIFIER", "50.0% (2/4)", "Agreement: 100.0%"} {
		if !strings.Contains(out, expected) {
			t.Errorf("output missing %q:\n%s", expected, out)
		}
	}

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	width := utf8.RuneCountInString(lines[0])
	for i, line := range lines {
		if n := utf8.RuneCountInString(line); n != width {
			t.Errorf("line %d has width %d, want %d: %q", i, n, width, line)
		}
	}
}
