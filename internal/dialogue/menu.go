package dialogue

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/tusur-bots/faculty-advisor/internal/storage"
)

func (d *Dialogue) start(ctx context.Context, ev Event, out *Output) {
	_, err := d.deps.Store.UpsertUser(ctx, storage.User{
		ExternalID: ev.User.ID,
		Username:   ev.User.Username,
		FirstName:  ev.User.FirstName,
		LastName:   ev.User.LastName,
	})
	if err != nil {
		d.log.Warn().Err(err).Int64("user", ev.User.ID).Msg("failed to register user")
	}
	out.add(Reply{Text: welcomeText(ev.User.FirstName), Menu: true})
}

func (d *Dialogue) applications(ctx context.Context, ev Event, out *Output) {
	u, err := d.deps.Store.FindUserByExternalID(ctx, ev.User.ID)
	if errors.Is(err, storage.ErrNotFound) {
		out.add(Reply{Text: textNoUser})
		return
	}
	if err != nil {
		d.storeFailure(err, out)
		return
	}

	apps, err := d.deps.Store.ListApplicationsByUser(ctx, u.ID)
	if err != nil {
		d.storeFailure(err, out)
		return
	}
	if len(apps) == 0 {
		out.add(Reply{Text: textNoApps})
		return
	}
	out.add(Reply{Text: d.applicationsText(apps)})
}

func (d *Dialogue) profile(ctx context.Context, ev Event, out *Output) {
	u, err := d.deps.Store.FindUserByExternalID(ctx, ev.User.ID)
	if errors.Is(err, storage.ErrNotFound) {
		out.add(Reply{Text: textNoProfile})
		return
	}
	if err != nil {
		d.storeFailure(err, out)
		return
	}

	apps, err := d.deps.Store.ListApplicationsByUser(ctx, u.ID)
	if err != nil {
		d.storeFailure(err, out)
		return
	}
	out.add(Reply{Text: d.profileText(u, apps)})
}

func (d *Dialogue) storeFailure(err error, out *Output) {
	d.log.Error().Err(err).Msg("storage request failed")
	out.add(Reply{Text: textStoreError})
}

// find answers "/find <text>" from the faculty catalogue.
func (d *Dialogue) find(query string, out *Output) {
	if d.deps.Searcher == nil {
		out.add(Reply{Text: textFindOff})
		return
	}
	if query == "" {
		out.add(Reply{Text: textFindUsage})
		return
	}

	results, err := d.deps.Searcher.Search(query, d.cfg.SearchLimit)
	if err != nil {
		d.log.Warn().Err(err).Str("query", query).Msg("faculty search failed")
		out.add(Reply{Text: textFindOff})
		return
	}
	if len(results) == 0 {
		out.add(Reply{Text: textFindNothing})
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔎 Факультеты по запросу «%s»:\n\n", html.EscapeString(query))
	for _, r := range results {
		fmt.Fprintf(&b, "• <b>%s</b> - %s\n", html.EscapeString(r.Code), html.EscapeString(r.Name))
		if f, ok := d.lex.Faculty(r.Code); ok && f.Summary != "" {
			fmt.Fprintf(&b, "  %s\n", html.EscapeString(f.Summary))
		}
	}
	b.WriteString("\nЧтобы получить персональную рекомендацию, пройдите анкету: " + MenuPick)
	out.add(Reply{Text: b.String()})
}
