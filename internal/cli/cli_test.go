package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/benchmark"
	"github.com/tusur-bots/faculty-advisor/internal/config"
	"github.com/tusur-bots/faculty-advisor/internal/storage"
)

// writeTestConfig writes a config with the store in a temp dir and the
// classifier disabled, and returns its path.
func writeTestConfig(t *testing.T) (path, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "fa.db")
	path = filepath.Join(dir, "faculty-advisor.yaml")

	content := "store:\n  path: " + dbPath + "\nmodel:\n  enabled: false\nlogging:\n  level: error\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path, dbPath
}

// execute runs cmd under a root carrying the --config flag.
func execute(t *testing.T, cmd *cobra.Command, cfgPath string, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "faculty-advisor", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("config", "", "config file")
	root.AddCommand(cmd)

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append(append([]string{cmd.Name()}, args...), "--config", cfgPath))

	err := root.Execute()
	return buf.String(), err
}

func seedStore(t *testing.T, dbPath string) storage.User {
	t.Helper()
	ctx := context.Background()
	store, err := storage.New(storage.Config{Driver: "sqlite", Path: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	user, err := store.UpsertUser(ctx, storage.User{ExternalID: 4242, Username: "ivan", FirstName: "Иван"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateContacts(ctx, user.ID, "89991234567", "ivan@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.AddApplication(ctx, user.ID, "ФИТ"); err != nil {
		t.Fatal(err)
	}
	for _, code := range []string{"ФИТ", "ФИТ", "ГФ"} {
		rec := storage.RecommendationRecord{ChatHash: storage.HashChat(4242), FacultyCode: code, Source: "keywords", Confidence: 0.5}
		if err := store.RecordRecommendation(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	return user
}

func TestCommandsAreDefined(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewServeCmd(), "serve", nil},
		{NewTrainCmd(), "train", []string{"output", "epochs", "samples", "seed"}},
		{NewRecommendCmd(), "recommend", []string{"liked", "disliked", "exams", "interests", "dislikes", "json", "keywords-only", "ranking"}},
		{NewFacultiesCmd(), "faculties", []string{"codes"}},
		{NewApplicationsCmd(), "applications", nil},
		{NewStatsCmd(), "stats", []string{"days"}},
		{NewBenchmarkCmd(), "benchmark", []string{"profiles", "seed", "json"}},
		{NewConfigCmd(), "config", nil},
		{NewVersionCmd(), "version", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			if tt.cmd.Name() != tt.use {
				t.Errorf("Expected name %q, got %q", tt.use, tt.cmd.Name())
			}
			if tt.cmd.Short == "" {
				t.Error("Command missing short description")
			}
			for _, f := range tt.flags {
				if tt.cmd.Flags().Lookup(f) == nil {
					t.Errorf("Flag %q not registered", f)
				}
			}
		})
	}
}

func TestServeCommandHelp(t *testing.T) {
	cmd := NewServeCmd()
	cmd.SetArgs([]string{"--help"})

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() with --help failed: %v", err)
	}
	for _, expected := range []string{"serve", "Telegram", "keyword scorer", "metrics"} {
		if !strings.Contains(buf.String(), expected) {
			t.Errorf("Help output missing %q", expected)
		}
	}
}

func TestServeRequiresToken(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	t.Setenv("FA_BOT_TOKEN", "")
	t.Setenv("BOT_TOKEN", "")

	_, err := execute(t, NewServeCmd(), cfgPath)
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Errorf("Expected missing token error, got %v", err)
	}
}

func TestRecommendKeywordsOnly(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	out, err := execute(t, NewRecommendCmd(), cfgPath, "--keywords-only", "--interests", "психология и философия", "--ranking")
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}
	if !strings.Contains(out, "Faculty:    Гуманитарный факультет (ГФ)") {
		t.Errorf("Expected ГФ recommendation, got:\n%s", out)
	}
	if !strings.Contains(out, "Source:     keywords") {
		t.Errorf("Expected keyword source, got:\n%s", out)
	}
	if !strings.Contains(out, "Keyword scores:") || !strings.Contains(out, "РТФ") {
		t.Errorf("Expected ranking of every faculty, got:\n%s", out)
	}
}

func TestRecommendJSON(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	out, err := execute(t, NewRecommendCmd(), cfgPath, "--json")
	if err != nil {
		t.Fatalf("recommend failed: %v", err)
	}

	var rec applicant.Recommendation
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", out, err)
	}
	if rec.FacultyCode != "ФИТ" || rec.Confidence != 0.5 {
		t.Errorf("Expected default faculty with 0.5 confidence, got %+v", rec)
	}
}

func TestFacultiesList(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	out, err := execute(t, NewFacultiesCmd(), cfgPath)
	if err != nil {
		t.Fatalf("faculties failed: %v", err)
	}
	for _, expected := range []string{"Faculties (5)", "ФИТ (default)", "Программная инженерия", "Гуманитарный факультет"} {
		if !strings.Contains(out, expected) {
			t.Errorf("Output missing %q:\n%s", expected, out)
		}
	}
}

func TestFacultiesCodes(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	out, err := execute(t, NewFacultiesCmd(), cfgPath, "--codes")
	if err != nil {
		t.Fatalf("faculties --codes failed: %v", err)
	}
	if !strings.Contains(out, "informatics") || !strings.Contains(out, "math_advanced") {
		t.Errorf("Expected subject and exam codes, got:\n%s", out)
	}
}

func TestFacultiesSearch(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	out, err := execute(t, NewFacultiesCmd(), cfgPath, "search", "психология")
	if err != nil {
		t.Fatalf("faculties search failed: %v", err)
	}
	if !strings.HasPrefix(out, "1. ГФ") {
		t.Errorf("Expected ГФ first, got:\n%s", out)
	}

	out, err = execute(t, NewFacultiesCmd(), cfgPath, "search", "виноделие")
	if err != nil {
		t.Fatalf("faculties search failed: %v", err)
	}
	if !strings.Contains(out, "No faculties found") {
		t.Errorf("Expected no results, got:\n%s", out)
	}
}

func TestApplications(t *testing.T) {
	cfgPath, dbPath := writeTestConfig(t)
	seedStore(t, dbPath)

	out, err := execute(t, NewApplicationsCmd(), cfgPath, "4242")
	if err != nil {
		t.Fatalf("applications failed: %v", err)
	}
	for _, expected := range []string{"@ivan", "89991234567", "Applications (1)", storage.DefaultStatus, "Факультет инновационных технологий"} {
		if !strings.Contains(out, expected) {
			t.Errorf("Output missing %q:\n%s", expected, out)
		}
	}

	out, err = execute(t, NewApplicationsCmd(), cfgPath, "1")
	if err != nil {
		t.Fatalf("applications failed: %v", err)
	}
	if !strings.Contains(out, "No user") {
		t.Errorf("Expected unknown user message, got:\n%s", out)
	}

	if _, err := execute(t, NewApplicationsCmd(), cfgPath, "abc"); err == nil {
		t.Error("Expected error for non-numeric id")
	}
}

func TestStats(t *testing.T) {
	cfgPath, dbPath := writeTestConfig(t)

	out, err := execute(t, NewStatsCmd(), cfgPath)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out, "No recommendations") {
		t.Errorf("Expected empty history, got:\n%s", out)
	}

	seedStore(t, dbPath)
	out, err = execute(t, NewStatsCmd(), cfgPath, "--days", "7")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out, "last 7 days: 3") {
		t.Errorf("Expected 3 recommendations, got:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	if len(lines) < 4 || !strings.Contains(lines[3], "ФИТ") {
		t.Errorf("Expected ФИТ ranked first, got:\n%s", out)
	}

	if _, err := execute(t, NewStatsCmd(), cfgPath, "--days", "0"); err == nil {
		t.Error("Expected error for --days 0")
	}
}

func TestBenchmarkKeywordsOnly(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	out, err := execute(t, NewBenchmarkCmd(), cfgPath, "--profiles", "50", "--json")
	if err != nil {
		t.Fatalf("benchmark failed: %v", err)
	}

	var result benchmark.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", out, err)
	}
	if result.Profiles != 50 || len(result.Candidates) != 1 || result.Candidates[0].Name != "keywords" {
		t.Errorf("Expected keyword scorer over 50 profiles, got %+v", result)
	}
	if len(result.Candidates[0].PerFaculty) != 5 {
		t.Errorf("Expected recall for 5 faculties, got %d", len(result.Candidates[0].PerFaculty))
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fa.yaml")

	cmd := NewConfigCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"init", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := config.Load(path); err != nil {
		t.Fatalf("Expected written config to load, got %v", err)
	}

	cmd = NewConfigCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"init", path})
	if err := cmd.Execute(); err == nil {
		t.Error("Expected init to refuse overwriting without --force")
	}

	t.Setenv("FA_BOT_TOKEN", "123:secret")
	out, err := execute(t, NewConfigCmd(), path, "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("Expected token to be masked:\n%s", out)
	}
	if !strings.Contains(out, "workers: 8") {
		t.Errorf("Expected effective settings, got:\n%s", out)
	}
}

func TestVersionOutput(t *testing.T) {
	cmd := NewVersionCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs(nil)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	for _, expected := range []string{"Version:", "Commit:", "Built:"} {
		if !strings.Contains(buf.String(), expected) {
			t.Errorf("Output missing %q", expected)
		}
	}
}
