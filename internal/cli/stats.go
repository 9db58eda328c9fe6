package cli

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the 'stats' command summarising recommendation history.
func NewStatsCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show how often each faculty was recommended",
		Example: `  faculty-advisor stats
  faculty-advisor stats --days 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return errors.New("--days must be at least 1")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.RecommendationStats(ctx, time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintf(out, "No recommendations in the last %d days.\n", days)
				return nil
			}

			sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
			total := 0
			for _, c := range counts {
				total += c.Count
			}

			fmt.Fprintf(out, "Recommendations in the last %d days: %d\n\n", days, total)
			fmt.Fprintf(out, "  %-6s %-11s %6s\n", "FACULTY", "SOURCE", "COUNT")
			for _, c := range counts {
				fmt.Fprintf(out, "  %-6s %-11s %6d\n", c.FacultyCode, c.Source, c.Count)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 30, "Look-back window in days")
	return cmd
}
