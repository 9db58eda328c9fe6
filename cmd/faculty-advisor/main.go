/*
Package main is the entry point for the faculty-advisor CLI.

faculty-advisor is a Telegram bot that helps TUSUR applicants choose a
faculty. It asks which school subjects they like and dislike, which exams
they take and what interests them, then recommends a faculty using a
trained classifier with a keyword scorer as fallback.

Usage:
  faculty-advisor [command]

Available Commands:
  serve         Run the Telegram bot
  train         Train the faculty classifier on synthetic profiles
  recommend     Recommend a faculty for a set of answers
  faculties     List faculties and their study programmes
  applications  Show a user's contacts and submitted applications
  stats         Show how often each faculty was recommended
  benchmark     Compare keyword scorer and classifier accuracy
  config        Create or inspect the configuration file
  version       Show version information

Examples:
  # Create a config file, then run the bot
  faculty-advisor config init
  FA_BOT_TOKEN=123:abc faculty-advisor serve

  # Try the recommender without Telegram
  faculty-advisor recommend --liked informatics,math --interests "программирование"
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tusur-bots/faculty-advisor/internal/cli"
	"github.com/tusur-bots/faculty-advisor/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "faculty-advisor",
		Short: "TUSUR faculty recommendation bot",
		Long: `faculty-advisor walks applicants through a short questionnaire in Telegram
and recommends a TUSUR faculty.

Recommendations come from a small neural classifier trained on synthetic
profiles built from the faculty lexicon. When the classifier is missing,
still loading or failing, a keyword scorer answers instead, so every
questionnaire gets a recommendation.`,
		Version:      version.GetVersion(),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: $FA_CONFIG or ./faculty-advisor.yaml)")

	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewTrainCmd())
	rootCmd.AddCommand(cli.NewRecommendCmd())
	rootCmd.AddCommand(cli.NewFacultiesCmd())
	rootCmd.AddCommand(cli.NewApplicationsCmd())
	rootCmd.AddCommand(cli.NewStatsCmd())
	rootCmd.AddCommand(cli.NewBenchmarkCmd())
	rootCmd.AddCommand(cli.NewConfigCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
