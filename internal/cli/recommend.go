package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
	"github.com/tusur-bots/faculty-advisor/internal/scoring"
)

// NewRecommendCmd creates the 'recommend' command that answers one
// questionnaire from the command line.
func NewRecommendCmd() *cobra.Command {
	var (
		resp         applicant.Response
		jsonOutput   bool
		keywordsOnly bool
		ranking      bool
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend a faculty for a set of answers",
		Long: `Run the recommendation pipeline for answers given as flags. Subject and
exam values are lexicon codes; see 'faculty-advisor faculties --subjects'.`,
		Example: `  faculty-advisor recommend --liked informatics,math --disliked literature \
    --exams math_advanced,informatics --interests "программирование, роботы"

  faculty-advisor recommend --keywords-only --ranking --interests "психология"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			lex := newLexicon(cfg)
			svc := newService(cfg, lex, !keywordsOnly)
			if err := svc.Initialize(cmd.Context()); err != nil {
				return err
			}

			rec := svc.Recommend(cmd.Context(), resp)

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			printRecommendation(out, rec)
			if ranking {
				printRanking(out, lex, scoring.NewScorer(lex, cfg.Recommend.ScorerOptions()).Rank(resp))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&resp.Liked, "liked", nil, "Liked subject codes")
	cmd.Flags().StringSliceVar(&resp.Disliked, "disliked", nil, "Disliked subject codes")
	cmd.Flags().StringSliceVar(&resp.Exams, "exams", nil, "Exam codes")
	cmd.Flags().StringVar(&resp.Interests, "interests", "", "Free-text interests")
	cmd.Flags().StringVar(&resp.Dislikes, "dislikes", "", "Free-text dislikes")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().BoolVar(&keywordsOnly, "keywords-only", false, "Skip the classifier")
	cmd.Flags().BoolVar(&ranking, "ranking", false, "Also print keyword scores of every faculty")

	return cmd
}

func printRecommendation(out io.Writer, rec applicant.Recommendation) {
	fmt.Fprintf(out, "Faculty:    %s (%s)\n", rec.FacultyName, rec.FacultyCode)
	fmt.Fprintf(out, "Source:     %s\n", rec.Source)
	fmt.Fprintf(out, "Confidence: %.1f%%\n", rec.Confidence*100)
	fmt.Fprintf(out, "Reason:     %s\n", rec.Reason)
	if rec.Directions != "" {
		fmt.Fprintf(out, "Directions: %s\n", rec.Directions)
	}
}

func printRanking(out io.Writer, lex *lexicon.Lexicon, ranked []scoring.FacultyScore) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Keyword scores:")
	for _, s := range ranked {
		name := s.Code
		if f, ok := lex.Faculty(s.Code); ok {
			name = f.Name
		}
		fmt.Fprintf(out, "  %-4s %3d  %s\n", s.Code, s.Score, name)
	}
}
