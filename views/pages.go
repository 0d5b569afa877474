package views

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/survivorpool/lms-app/internal/league"
	"github.com/survivorpool/lms-app/internal/service"
)

// Pages are built directly on templ's ComponentFunc; the UI is a handful
// of server-rendered forms and tables.

func layout(title string, body func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title><link rel="stylesheet" href="/static/style.css"></head><body><header><h1><a href="/">Last Man Standing</a></h1>`, templ.EscapeString(title)); err != nil {
			return err
		}
		if user := GetUser(ctx); user != nil {
			if _, err := fmt.Fprintf(w, `<nav><span>%s</span><form method="post" action="/logout"><button type="submit">Log out</button></form></nav>`, templ.EscapeString(user.Username)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</header><main>`); err != nil {
			return err
		}
		if err := body(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func LoginPage() templ.Component {
	return layout("Log in", func(w io.Writer) error {
		_, err := io.WriteString(w, `<h2>Log in</h2>
<a href="/auth/discord">Log in with Discord</a>
<a href="/auth/google">Log in with Google</a>
<form method="post" action="/auth/guest"><button type="submit">Continue as guest</button></form>`)
		return err
	})
}

func Index(competitions []league.Competition) templ.Component {
	return layout("My competitions", func(w io.Writer) error {
		if _, err := io.WriteString(w, `<h2>My competitions</h2><ul>`); err != nil {
			return err
		}
		for _, c := range competitions {
			if _, err := fmt.Fprintf(w, `<li><a href="/competitions/%s">%s</a> <em>%s</em></li>`,
				c.ID, templ.EscapeString(c.Name), templ.EscapeString(string(c.Status))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>
<a href="/competitions/create">Create a competition</a>
<form method="post" action="/competitions/join">
<input type="text" name="invite_code" placeholder="Invite code" required>
<button type="submit">Join</button>
</form>`)
		return err
	})
}

func CreateCompetitionPage() templ.Component {
	return layout("Create competition", func(w io.Writer) error {
		_, err := io.WriteString(w, `<h2>Create competition</h2>
<form method="post" action="/competitions">
<label>Name <input type="text" name="name" required maxlength="50"></label>
<label>Lives per player <input type="number" name="lives" value="1" min="1" max="10"></label>
<label><input type="checkbox" name="no_repeat" checked> No repeat teams</label>
<label>Teams (one per line)<textarea name="teams" rows="10"></textarea></label>
<button type="submit">Create</button>
</form>`)
		return err
	})
}

func CompetitionPage(data *service.CompetitionData, myPick *league.Pick, isOrganiser bool, now time.Time) templ.Component {
	return layout(data.Competition.Name, func(w io.Writer) error {
		c := data.Competition
		if _, err := fmt.Fprintf(w, `<h2>%s</h2><p>Status: %s &middot; %d of %d players remaining &middot; Invite code: <code>%s</code></p>`,
			templ.EscapeString(c.Name), templ.EscapeString(string(c.Status)), data.ActiveCount, data.TotalCount, templ.EscapeString(c.InviteCode)); err != nil {
			return err
		}

		if c.Status == league.CompetitionComplete && c.Result != nil {
			label := "Everyone was eliminated. No winner this time."
			if *c.Result == league.ResultWinner {
				label = "We have a winner!"
			}
			if _, err := fmt.Fprintf(w, `<p><strong>%s</strong></p>`, label); err != nil {
				return err
			}
		}

		if data.CurrentRound != nil {
			if err := renderRound(w, data, myPick, isOrganiser, now); err != nil {
				return err
			}
		}

		if err := renderStandings(w, data); err != nil {
			return err
		}

		if isOrganiser && c.Status != league.CompetitionComplete {
			if err := renderOrganiserPanel(w, data); err != nil {
				return err
			}
		}
		return nil
	})
}

func renderRound(w io.Writer, data *service.CompetitionData, myPick *league.Pick, isOrganiser bool, now time.Time) error {
	round := data.CurrentRound
	teamNames := TeamNameMap(data.Teams)
	locked := round.IsLocked(now)

	state := "open for picks"
	if locked {
		state = "locked"
	}
	if _, err := fmt.Fprintf(w, `<h3>Round %d (%s, locks %s)</h3>`, round.RoundNumber, state, round.LockAt.Format("Mon 2 Jan 15:04")); err != nil {
		return err
	}

	if _, err := io.WriteString(w, `<table><tr><th>Home</th><th>Away</th><th>Kickoff</th><th>Result</th></tr>`); err != nil {
		return err
	}
	for _, f := range data.Fixtures {
		result := "-"
		if f.IsDraw() {
			result = "Draw"
		} else if winner, ok := f.WinnerTeamID(); ok {
			result = templ.EscapeString(teamNames[winner]) + " won"
		}
		if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			templ.EscapeString(teamNames[f.HomeTeamID]), templ.EscapeString(teamNames[f.AwayTeamID]),
			f.KickoffAt.Format("Mon 2 Jan 15:04"), result); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, `</table>`); err != nil {
		return err
	}

	if myPick != nil {
		if _, err := fmt.Fprintf(w, `<p>Your pick: <strong>%s</strong></p>`, templ.EscapeString(teamNames[myPick.TeamID])); err != nil {
			return err
		}
	}

	if !locked {
		if _, err := fmt.Fprintf(w, `<form method="post" action="/rounds/%s/picks"><select name="pick">`, round.ID); err != nil {
			return err
		}
		for _, f := range data.Fixtures {
			for _, teamID := range []uuid.UUID{f.HomeTeamID, f.AwayTeamID} {
				if _, err := fmt.Fprintf(w, `<option value="%s:%s">%s</option>`, f.ID, teamID, templ.EscapeString(teamNames[teamID])); err != nil {
					return err
				}
			}
		}
		if _, err := io.WriteString(w, `</select><button type="submit">Pick</button></form>`); err != nil {
			return err
		}
	}
	return nil
}

func renderStandings(w io.Writer, data *service.CompetitionData) error {
	if _, err := io.WriteString(w, `<h3>Standings</h3><table><tr><th>Player</th><th>Lives</th><th>Status</th><th>Rounds</th></tr>`); err != nil {
		return err
	}
	for _, row := range SortStandings(data.Standings) {
		badges := ""
		for _, h := range row.History {
			badges += OutcomeBadge(h.Outcome)
		}
		if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>`,
			templ.EscapeString(row.Username), row.Member.LivesRemaining, templ.EscapeString(string(row.Member.Status)), badges); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</table>`)
	return err
}

func renderOrganiserPanel(w io.Writer, data *service.CompetitionData) error {
	c := data.Competition
	if _, err := fmt.Fprintf(w, `<h3>Organiser</h3>
<form method="post" action="/competitions/%s/rounds">
<label>Lock time <input type="datetime-local" name="lock_at" required></label>
<button type="submit">Open next round</button>
</form>`, c.ID); err != nil {
		return err
	}

	if data.CurrentRound != nil {
		round := data.CurrentRound
		if _, err := fmt.Fprintf(w, `<form method="post" action="/rounds/%s/fixtures">
<select name="home_team">%s</select>
<select name="away_team">%s</select>
<label>Kickoff <input type="datetime-local" name="kickoff_at" required></label>
<button type="submit">Add fixture</button>
</form>`, round.ID, teamOptions(data.Teams), teamOptions(data.Teams)); err != nil {
			return err
		}

		for _, f := range data.Fixtures {
			if f.HasResult() {
				continue
			}
			if _, err := fmt.Fprintf(w, `<form method="post" action="/fixtures/%s/result">
<select name="result"><option value="home">Home win</option><option value="away">Away win</option><option value="draw">Draw</option></select>
<button type="submit">Enter result</button>
</form>`, f.ID); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, `<form method="post" action="/rounds/%s/resolve"><button type="submit">Resolve round</button></form>`, round.ID); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, `<form method="post" action="/competitions/%s/teams">
<label>Add teams (one per line)<textarea name="teams" rows="4"></textarea></label>
<button type="submit">Add</button>
</form>`, c.ID); err != nil {
		return err
	}
	return nil
}

func teamOptions(teams []league.Team) string {
	options := ""
	for _, t := range teams {
		options += fmt.Sprintf(`<option value="%s">%s</option>`, t.ID, templ.EscapeString(t.Name))
	}
	return options
}
