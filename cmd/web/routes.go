package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/markbates/goth/gothic"
	"github.com/survivorpool/lms-app/internal/httputil"
	"github.com/survivorpool/lms-app/internal/league"
	"github.com/survivorpool/lms-app/internal/middleware"
	"github.com/survivorpool/lms-app/internal/service"
	"github.com/survivorpool/lms-app/internal/store"
	"github.com/survivorpool/lms-app/views"
)

const lockTimeLayout = "2006-01-02T15:04"

func newRouter(sessionManager *scs.SessionManager, database *sqlx.DB, clock clockwork.Clock) http.Handler {
	r := chi.NewRouter()

	compStore := store.NewCompetitionStore(database)
	roundStore := store.NewRoundStore(database)
	userStore := store.NewUserStore(database)

	competitionService := service.NewCompetitionService(database, compStore, roundStore, userStore, clock)
	pickService := service.NewPickService(database, roundStore, compStore, clock)
	roundService := service.NewRoundService(database, roundStore, compStore, clock)
	userService := service.NewUserService(database, userStore)

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadAuthenticatedUser(sessionManager, userStore))

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			competitions, err := competitionService.GetCompetitionsForUser(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to get competitions", err)
				return
			}
			views.Render(w, r, views.Index(competitions))
		})

		r.Get("/competitions/create", func(w http.ResponseWriter, r *http.Request) {
			views.Render(w, r, views.CreateCompetitionPage())
		})

		r.Post("/competitions", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			name := strings.TrimSpace(r.Form.Get("name"))
			if name == "" || len(name) > 50 {
				httputil.BadRequest(w, "Competition name must be 1-50 characters", nil)
				return
			}
			lives, err := strconv.Atoi(r.Form.Get("lives"))
			if err != nil {
				lives = 1
			}
			input := service.CompetitionInput{
				Name:           name,
				LivesPerPlayer: lives,
				NoRepeatTeams:  r.Form.Get("no_repeat") != "",
				TeamNames:      r.Form.Get("teams"),
			}
			id, err := competitionService.CreateCompetition(r.Context(), input)
			if err != nil {
				httputil.InternalServerError(w, "Failed to create competition", err)
				return
			}
			http.Redirect(w, r, "/competitions/"+id.String(), http.StatusFound)
		})

		r.Post("/competitions/join", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			competition, err := competitionService.Join(r.Context(), r.Form.Get("invite_code"))
			if err != nil {
				renderLeagueError(w, "Failed to join competition", err)
				return
			}
			http.Redirect(w, r, "/competitions/"+competition.ID.String(), http.StatusFound)
		})

		r.Get("/competitions/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			data, err := competitionService.GetCompetitionData(r.Context(), id)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					httputil.NotFound(w, "Competition not found", err)
					return
				}
				httputil.InternalServerError(w, "Failed to get competition", err)
				return
			}

			userID, _ := middleware.GetUserIDFromContext(r.Context())
			var myPick *league.Pick
			if data.CurrentRound != nil {
				myPick, err = pickService.GetPickForRound(r.Context(), userID, data.CurrentRound.ID)
				if err != nil {
					httputil.InternalServerError(w, "Failed to get pick", err)
					return
				}
			}
			views.Render(w, r, views.CompetitionPage(data, myPick, data.Competition.IsOrganiser(userID), clock.Now()))
		})

		r.Get("/c/{slug}", func(w http.ResponseWriter, r *http.Request) {
			competition, err := competitionService.GetCompetitionBySlug(r.Context(), chi.URLParam(r, "slug"))
			if err != nil {
				httputil.NotFound(w, "Competition not found", err)
				return
			}
			http.Redirect(w, r, "/competitions/"+competition.ID.String(), http.StatusFound)
		})

		r.Post("/competitions/{id}/teams", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			id := chi.URLParam(r, "id")
			if err := competitionService.AddTeams(r.Context(), id, r.Form.Get("teams")); err != nil {
				renderLeagueError(w, "Failed to add teams", err)
				return
			}
			http.Redirect(w, r, "/competitions/"+id, http.StatusFound)
		})

		r.Post("/competitions/{id}/rounds", func(w http.ResponseWriter, r *http.Request) {
			competitionID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid competition ID", err)
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			lockAt, err := time.ParseInLocation(lockTimeLayout, r.Form.Get("lock_at"), time.Local)
			if err != nil {
				httputil.BadRequest(w, "Invalid lock time", err)
				return
			}
			userID, _ := middleware.GetUserIDFromContext(r.Context())
			if _, err := roundService.CreateRound(r.Context(), userID, competitionID, lockAt); err != nil {
				renderLeagueError(w, "Failed to create round", err)
				return
			}
			http.Redirect(w, r, "/competitions/"+competitionID.String(), http.StatusFound)
		})

		r.Post("/rounds/{id}/lock-time", func(w http.ResponseWriter, r *http.Request) {
			roundID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid round ID", err)
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			lockAt, err := time.ParseInLocation(lockTimeLayout, r.Form.Get("lock_at"), time.Local)
			if err != nil {
				httputil.BadRequest(w, "Invalid lock time", err)
				return
			}
			userID, _ := middleware.GetUserIDFromContext(r.Context())
			if err := roundService.UpdateLockTime(r.Context(), userID, roundID, lockAt); err != nil {
				renderLeagueError(w, "Failed to update lock time", err)
				return
			}
			redirectToRoundCompetition(w, r, roundStore, roundID)
		})

		r.Post("/rounds/{id}/fixtures", func(w http.ResponseWriter, r *http.Request) {
			roundID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid round ID", err)
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			homeTeamID, err := uuid.Parse(r.Form.Get("home_team"))
			if err != nil {
				httputil.BadRequest(w, "Invalid home team", err)
				return
			}
			awayTeamID, err := uuid.Parse(r.Form.Get("away_team"))
			if err != nil {
				httputil.BadRequest(w, "Invalid away team", err)
				return
			}
			kickoffAt, err := time.ParseInLocation(lockTimeLayout, r.Form.Get("kickoff_at"), time.Local)
			if err != nil {
				httputil.BadRequest(w, "Invalid kickoff time", err)
				return
			}
			userID, _ := middleware.GetUserIDFromContext(r.Context())
			if _, err := roundService.CreateFixture(r.Context(), userID, roundID, homeTeamID, awayTeamID, kickoffAt); err != nil {
				renderLeagueError(w, "Failed to create fixture", err)
				return
			}
			redirectToRoundCompetition(w, r, roundStore, roundID)
		})

		r.Post("/rounds/{id}/picks", func(w http.ResponseWriter, r *http.Request) {
			roundID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid round ID", err)
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			// The pick select encodes "fixtureID:teamID"
			parts := strings.SplitN(r.Form.Get("pick"), ":", 2)
			if len(parts) != 2 {
				httputil.BadRequest(w, "Invalid pick", nil)
				return
			}
			fixtureID, err := uuid.Parse(parts[0])
			if err != nil {
				httputil.BadRequest(w, "Invalid fixture ID", err)
				return
			}
			teamID, err := uuid.Parse(parts[1])
			if err != nil {
				httputil.BadRequest(w, "Invalid team ID", err)
				return
			}
			userID, _ := middleware.GetUserIDFromContext(r.Context())
			if _, err := pickService.SubmitPick(r.Context(), userID, roundID, fixtureID, teamID); err != nil {
				renderLeagueError(w, "Failed to submit pick", err)
				return
			}
			redirectToRoundCompetition(w, r, roundStore, roundID)
		})

		r.Post("/fixtures/{id}/result", func(w http.ResponseWriter, r *http.Request) {
			fixtureID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid fixture ID", err)
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}
			userID, _ := middleware.GetUserIDFromContext(r.Context())
			result := league.FixtureResult(r.Form.Get("result"))
			if err := roundService.SetFixtureResult(r.Context(), userID, fixtureID, result); err != nil {
				renderLeagueError(w, "Failed to set result", err)
				return
			}
			fixture, err := roundStore.GetFixture(r.Context(), fixtureID.String())
			if err != nil {
				httputil.InternalServerError(w, "Failed to get fixture", err)
				return
			}
			redirectToRoundCompetition(w, r, roundStore, fixture.RoundID)
		})

		r.Post("/rounds/{id}/resolve", func(w http.ResponseWriter, r *http.Request) {
			roundID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid round ID", err)
				return
			}
			userID, _ := middleware.GetUserIDFromContext(r.Context())
			if _, err := roundService.ResolveRound(r.Context(), userID, roundID); err != nil {
				renderLeagueError(w, "Failed to resolve round", err)
				return
			}
			redirectToRoundCompetition(w, r, roundStore, roundID)
		})
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		user, err := userService.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create user", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())

		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		views.Render(w, r, views.LoginPage())
	})

	r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		user, err := userService.EnsureGuestUser(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to login as guest", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())
		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Destroy(r.Context())
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	return r
}

func redirectToRoundCompetition(w http.ResponseWriter, r *http.Request, roundStore *store.RoundStore, roundID uuid.UUID) {
	round, err := roundStore.GetRound(r.Context(), roundID.String())
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/competitions/"+round.CompetitionID.String(), http.StatusFound)
}

// renderLeagueError maps domain sentinels onto HTTP statuses: validation
// mistakes are 400s, business-rule conflicts are 409s.
func renderLeagueError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		httputil.NotFound(w, "Not found", err)
	case errors.Is(err, league.ErrNotOrganiser):
		httputil.Forbidden(w, err.Error(), err)
	case errors.Is(err, league.ErrInvalidFixture),
		errors.Is(err, league.ErrInvalidResult),
		errors.Is(err, league.ErrLockTimeInPast),
		errors.Is(err, league.ErrInvalidInviteCode),
		errors.Is(err, league.ErrTeamNotInCompetition):
		httputil.BadRequest(w, err.Error(), err)
	case errors.Is(err, league.ErrRoundLocked),
		errors.Is(err, league.ErrRoundNotLocked),
		errors.Is(err, league.ErrTeamAlreadyUsed),
		errors.Is(err, league.ErrNotParticipant),
		errors.Is(err, league.ErrResultFrozen),
		errors.Is(err, league.ErrLockTimeFrozen),
		errors.Is(err, league.ErrRoundUnapplied),
		errors.Is(err, league.ErrCompetitionComplete),
		errors.Is(err, league.ErrCompetitionSetup),
		errors.Is(err, league.ErrAlreadyJoined),
		errors.Is(err, league.ErrJoinClosed),
		errors.Is(err, league.ErrNotCurrentRound):
		httputil.Conflict(w, err.Error(), err)
	default:
		httputil.InternalServerError(w, msg, err)
	}
}
