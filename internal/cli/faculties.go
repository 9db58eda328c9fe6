package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
	"github.com/tusur-bots/faculty-advisor/internal/search"
)

// NewFacultiesCmd creates the 'faculties' command listing the lexicon.
func NewFacultiesCmd() *cobra.Command {
	var showCodes bool

	cmd := &cobra.Command{
		Use:     "faculties",
		Aliases: []string{"faculty"},
		Short:   "List faculties and their study programmes",
		Example: `  faculty-advisor faculties
  faculty-advisor faculties --codes   # subject and exam codes for 'recommend'
  faculty-advisor faculties search "психология"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			lex := newLexicon(cfg)
			out := cmd.OutOrStdout()

			if showCodes {
				printCodes(out, lex)
				return nil
			}

			faculties := lex.Faculties()
			fmt.Fprintf(out, "Faculties (%d):\n\n", len(faculties))
			for _, f := range faculties {
				marker := ""
				if f.Code == lex.DefaultFaculty().Code {
					marker = " (default)"
				}
				fmt.Fprintf(out, "  %s%s\n", f.Code, marker)
				fmt.Fprintf(out, "    Name:       %s\n", f.Name)
				if len(f.Programmes) > 0 {
					fmt.Fprintf(out, "    Programmes: %s\n", strings.Join(f.Programmes, ", "))
				}
				fmt.Fprintf(out, "    Keywords:   %d\n", len(f.Keywords))
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showCodes, "codes", false, "List subject and exam codes instead")
	cmd.AddCommand(newFacultiesSearchCmd())

	return cmd
}

func printCodes(out io.Writer, lex *lexicon.Lexicon) {
	fmt.Fprintln(out, "Subjects:")
	for _, s := range lex.Subjects() {
		fmt.Fprintf(out, "  %-20s %s\n", s.Code, s.Name)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Exams:")
	for _, e := range lex.Exams() {
		fmt.Fprintf(out, "  %-20s %s\n", e.Code, e.Name)
	}
}

func newFacultiesSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Full-text search over faculty names, programmes and keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			catalogue, err := search.NewCatalogue(newLexicon(cfg))
			if err != nil {
				return err
			}
			defer catalogue.Close()

			results, err := catalogue.Search(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No faculties found.")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "%d. %s  %s  (score %.3f)\n", i+1, r.Code, r.Name, r.Score)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Maximum number of results")
	return cmd
}
