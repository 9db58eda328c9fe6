package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	yandexgpt "github.com/sheeiavellie/go-yandexgpt"
	"github.com/sony/gobreaker/v2"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
)

var (
	testResponse = applicant.Response{
		Liked:     []string{"informatics", "math"},
		Disliked:  []string{"literature"},
		Exams:     []string{"math_advanced"},
		Interests: "программирование",
	}
	testRecommendation = applicant.Recommendation{
		FacultyCode: "ФИТ",
		FacultyName: "Факультет инновационных технологий",
		Reason:      "Совпадения с профилем: программирование",
	}
)

func TestNewDisabled(t *testing.T) {
	a, err := New(lexicon.Default(), Config{})
	if err != nil || a != nil {
		t.Errorf("expected nil advisor without error, got %v, %v", a, err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(lexicon.Default(), Config{Enabled: true, APIKey: "key"}); err == nil {
		t.Error("expected error without folder id")
	}
}

func TestPromptDescribesApplicant(t *testing.T) {
	a := newAdvisor(lexicon.Default(), Config{FolderID: "folder"}, nil)

	p := a.prompt(testResponse, testRecommendation)

	for _, want := range []string{
		"Любимые предметы: Информатика, Математика",
		"Нелюбимые предметы: Литература",
		"Экзамены: Математика (профильная)",
		"Интересы: программирование",
		"Не интересно: -",
		"Факультет инновационных технологий (ФИТ)",
		"Программная инженерия",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("expected prompt to contain %q, got:\n%s", want, p)
		}
	}
}

func TestRequestShape(t *testing.T) {
	a := newAdvisor(lexicon.Default(), Config{FolderID: "folder"}, nil)

	req := a.request(testResponse, testRecommendation)

	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != yandexgpt.YandexGPTMessageRoleSystem || req.Messages[1].Role != yandexgpt.YandexGPTMessageRoleUser {
		t.Errorf("expected system then user roles, got %v %v", req.Messages[0].Role, req.Messages[1].Role)
	}
	if !strings.Contains(req.ModelURI, "folder") {
		t.Errorf("expected folder in model uri, got %q", req.ModelURI)
	}
}

func TestCommentTrimsAndTruncates(t *testing.T) {
	long := strings.Repeat("я", maxCommentRunes+50)
	a := newAdvisor(lexicon.Default(), Config{FolderID: "f"}, func(context.Context, yandexgpt.YandexGPTRequest) (string, error) {
		return "  " + long + "\n", nil
	})

	got, err := a.Comment(context.Background(), testResponse, testRecommendation)
	if err != nil {
		t.Fatalf("Comment failed: %v", err)
	}
	if n := len([]rune(got)); n != maxCommentRunes+3 {
		t.Errorf("expected %d runes, got %d", maxCommentRunes+3, n)
	}
}

func TestCommentBreakerOpens(t *testing.T) {
	calls := 0
	a := newAdvisor(lexicon.Default(), Config{FolderID: "f"}, func(context.Context, yandexgpt.YandexGPTRequest) (string, error) {
		calls++
		return "", errors.New("unavailable")
	})

	for i := 0; i < failuresToTrip; i++ {
		if _, err := a.Comment(context.Background(), testResponse, testRecommendation); err == nil {
			t.Fatal("expected error")
		}
	}

	_, err := a.Comment(context.Background(), testResponse, testRecommendation)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open breaker, got %v", err)
	}
	if calls != failuresToTrip {
		t.Errorf("expected %d calls, got %d", failuresToTrip, calls)
	}
}
