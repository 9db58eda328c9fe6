package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tusur-bots/faculty-advisor/internal/storage"
)

// NewApplicationsCmd creates the 'applications' command that lists the
// applications of one Telegram user.
func NewApplicationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "applications <telegram-user-id>",
		Short: "Show a user's contacts and submitted applications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			externalID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
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

			out := cmd.OutOrStdout()
			user, err := store.FindUserByExternalID(ctx, externalID)
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintf(out, "No user with Telegram id %d.\n", externalID)
				return nil
			}
			if err != nil {
				return err
			}

			apps, err := store.ListApplicationsByUser(ctx, user.ID)
			if err != nil {
				return err
			}

			lex := newLexicon(cfg)
			fmt.Fprintf(out, "User:  %s %s (@%s)\n", user.FirstName, user.LastName, user.Username)
			fmt.Fprintf(out, "Phone: %s\n", orNone(user.Phone))
			fmt.Fprintf(out, "Email: %s\n", orNone(user.Email))
			fmt.Fprintln(out)

			if len(apps) == 0 {
				fmt.Fprintln(out, "No applications.")
				return nil
			}
			fmt.Fprintf(out, "Applications (%d):\n", len(apps))
			for _, a := range apps {
				name := a.FacultyCode
				if f, ok := lex.Faculty(a.FacultyCode); ok {
					name = f.Name
				}
				fmt.Fprintf(out, "  #%d  %s  %s  %s\n", a.ID, a.CreatedAt.Format("2006-01-02 15:04"), a.Status, name)
			}
			return nil
		},
	}

	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
