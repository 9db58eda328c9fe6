package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tusur-bots/faculty-advisor/internal/applicant"
	"github.com/tusur-bots/faculty-advisor/internal/benchmark"
	"github.com/tusur-bots/faculty-advisor/internal/classifier"
	"github.com/tusur-bots/faculty-advisor/internal/scoring"
)

// NewBenchmarkCmd creates the 'benchmark' command comparing the keyword
// scorer with the saved classifier.
func NewBenchmarkCmd() *cobra.Command {
	var (
		profiles   int
		seed       int64
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Compare keyword scorer and classifier accuracy",
		Long: `Draw fresh synthetic applicant profiles and measure how often the keyword
scorer and the saved classifier recommend the faculty each profile was drawn
from. Use a seed different from model.classifier.seed so the profiles are not
the training data.`,
		Example: `  faculty-advisor benchmark
  faculty-advisor benchmark --profiles 2000 --seed 99 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if profiles < 1 {
				return errors.New("--profiles must be at least 1")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			lex := newLexicon(cfg)
			out := cmd.OutOrStdout()

			scorer := scoring.NewScorer(lex, cfg.Recommend.ScorerOptions())
			candidates := []benchmark.Candidate{{
				Name: "keywords",
				Predict: func(r applicant.Response) (string, error) {
					return scorer.Score(r).FacultyCode, nil
				},
			}}

			if cfg.Model.Enabled {
				clf := classifier.New(lex, cfg.Model.Classifier)
				if err := clf.Load(cfg.Model.ArtifactPath); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Classifier not loaded (%v); run 'faculty-advisor train' first.\n", err)
				} else {
					candidates = append(candidates, benchmark.Candidate{
						Name: "classifier",
						Predict: func(r applicant.Response) (string, error) {
							rec, err := clf.Predict(r)
							return rec.FacultyCode, err
						},
					})
				}
			}

			codes := make([]string, 0, len(lex.Faculties()))
			for _, f := range lex.Faculties() {
				codes = append(codes, f.Code)
			}

			set := classifier.Profiles(lex, cfg.Model.Classifier.Noise, profiles, seed)
			result, err := benchmark.Run(cmd.Context(), set, codes, candidates)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			fmt.Fprint(out, benchmark.FormatResult(result))
			return nil
		},
	}

	cmd.Flags().IntVarP(&profiles, "profiles", "n", 500, "Number of synthetic profiles")
	cmd.Flags().Int64Var(&seed, "seed", 7, "Random seed for the profiles")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}
