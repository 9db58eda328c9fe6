package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewTrainCmd creates the 'train' command that fits and saves the classifier.
func NewTrainCmd() *cobra.Command {
	var (
		output  string
		epochs  int
		samples int
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the faculty classifier on synthetic profiles",
		Long: `Generate synthetic applicant profiles from the faculty lexicon, train the
classifier and save the artifact. Flags override the model.classifier
settings from the configuration.`,
		Example: `  faculty-advisor train
  faculty-advisor train --epochs 60 --output data/model.gob`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				cfg.Model.ArtifactPath = output
			}
			if cmd.Flags().Changed("epochs") {
				cfg.Model.Classifier.Epochs = epochs
			}
			if cmd.Flags().Changed("samples") {
				cfg.Model.Classifier.Samples = samples
			}
			if cmd.Flags().Changed("seed") {
				cfg.Model.Classifier.Seed = seed
			}
			cfg.Model.Enabled = true
			if err := cfg.Model.Classifier.Validate(); err != nil {
				return err
			}

			svc := newService(cfg, newLexicon(cfg), true)
			report, err := svc.Retrain(cmd.Context())
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:                 %s\n", report.RunID)
			fmt.Fprintf(out, "Samples:             %d (train %d, validation %d)\n", report.Samples, report.TrainSize, report.ValidationSize)
			fmt.Fprintf(out, "Epochs:              %d\n", report.Epochs)
			fmt.Fprintf(out, "Final loss:          %.4f\n", report.FinalLoss)
			fmt.Fprintf(out, "Validation accuracy: %.1f%%\n", report.ValidationAccuracy*100)
			fmt.Fprintf(out, "Duration:            %s\n", report.Duration.Round(time.Millisecond))
			fmt.Fprintf(out, "Saved to:            %s\n", cfg.Model.ArtifactPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Artifact path (default: model.artifact_path)")
	cmd.Flags().IntVar(&epochs, "epochs", 0, "Training epochs")
	cmd.Flags().IntVar(&samples, "samples", 0, "Number of synthetic profiles")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed")

	return cmd
}
