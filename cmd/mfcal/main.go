package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/s153756/My-Friend-Calendar/client"
	"github.com/s153756/My-Friend-Calendar/ics"
	"github.com/s153756/My-Friend-Calendar/internal/config"
	"github.com/s153756/My-Friend-Calendar/session"
	"github.com/s153756/My-Friend-Calendar/viewrange"
)

var apiURL string
var debug bool

const requestTimeout = 15 * time.Second

var cfg config.Config

func dbg(v interface{}) {
	if !debug {
		return
	}
	log.Debug().Interface("data", v).Msg("debug output")
}

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mfcal",
		Short: "My Friend Calendar CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			cfg, err = config.Load()
			if err != nil {
				log.Error().Err(err).Msg("invalid configuration")
				os.Exit(1)
			}
			config.InitLogger(cfg.LogLevel)
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				os.Setenv("MFCAL_DEBUG", "true")
				log.Debug().Msg("debug logging enabled")
			}
			if apiURL != "" {
				cfg.APIURL = apiURL
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the calendar API (defaults to CALENDAR_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newRequestResetCmd())
	rootCmd.AddCommand(newResetPasswordCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newListEventsCmd())
	rootCmd.AddCommand(newCreateEventCmd())
	rootCmd.AddCommand(newUpdateEventCmd())
	rootCmd.AddCommand(newDeleteEventCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

// newAPI wires a store backed by the persisted session file and a client
// without background workers; CLI invocations are short-lived.
func newAPI() (*client.Client, *session.Store) {
	store := session.NewStore(session.Options{PersistPath: cfg.SessionPath()})
	return client.New(cfg.APIURL, store, client.WithoutExecutor()), store
}

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, store := newAPI()
			defer func() { _ = api.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			start := time.Now()
			err := api.Login(ctx, email, password)
			if err != nil {
				log.Error().Err(err).Str("email", email).Dur("elapsed", time.Since(start)).Msg("login failed")
				return err
			}
			sess := store.Session()
			log.Debug().Str("email", sess.User.Email).Dur("elapsed", time.Since(start)).Msg("login completed")
			fmt.Printf("Logged in as %s\n", sess.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _ := newAPI()
			defer func() { _ = api.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			api.Logout(ctx)
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var email, password, fullName, displayName string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, store := newAPI()
			defer func() { _ = api.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			err := api.Register(ctx, client.RegisterRequest{
				Email:            email,
				Password:         password,
				RepeatedPassword: password,
				FullName:         fullName,
				DisplayName:      displayName,
			})
			if err != nil {
				log.Error().Err(err).Str("email", email).Msg("register failed")
				return err
			}
			fmt.Printf("Registered and logged in as %s\n", store.Session().User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&fullName, "full-name", "", "Full name")
	cmd.Flags().StringVar(&displayName, "display-name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRequestResetCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "request-reset",
		Short: "Request a password reset email",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _ := newAPI()
			defer func() { _ = api.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			if err := api.RequestPasswordReset(ctx, email); err != nil {
				return err
			}
			fmt.Println("If the address exists, a reset link is on its way")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newResetPasswordCmd() *cobra.Command {
	var token, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Complete a password reset",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _ := newAPI()
			defer func() { _ = api.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			if err := api.ResetPassword(ctx, token, password); err != nil {
				return err
			}
			fmt.Println("Password updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Reset token from the emailed link")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store := newAPI()
			sess := store.Session()
			if !sess.Authenticated() {
				fmt.Println("Not logged in")
				return nil
			}
			fmt.Printf("%s (verified: %v)\n", sess.User.Email, sess.User.EmailVerified)
			return nil
		},
	}
}

func newListEventsCmd() *cobra.Command {
	var view, date string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list-events",
		Short: "List events, optionally restricted to a view window",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _ := newAPI()
			defer func() { _ = api.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			start := time.Now()
			events, err := api.ListEvents(ctx)
			if err != nil {
				log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("list events failed")
				return err
			}
			log.Debug().Int("count", len(events)).Dur("elapsed", time.Since(start)).Msg("list events completed")

			if view != "" {
				ref := time.Now()
				if date != "" {
					ref, err = time.ParseInLocation("2006-01-02", date, time.Local)
					if err != nil {
						return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
					}
				}
				r := viewrange.Compute(viewrange.Granularity(view), ref)
				events = viewrange.VisibleEvents(events, r)
			}

			if asJSON {
				b, err := json.MarshalIndent(events, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				return nil
			}
			for _, ev := range events {
				fmt.Printf("%s  %s .. %s  %s\n", ev.ID, ev.Start.Format(time.RFC3339), ev.End.Format(time.RFC3339), ev.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "View window: day, week, agenda or month")
	cmd.Flags().StringVar(&date, "date", "", "Anchor date (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a listing")
	return cmd
}

func newCreateEventCmd() *cobra.Command {
	var title, startRaw, endRaw, description, location, color, repeat string
	var allDay bool

	cmd := &cobra.Command{
		Use:   "create-event",
		Short: "Create a calendar event",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.ParseInLocation("2006-01-02T15:04", startRaw, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --start %q, want YYYY-MM-DDTHH:MM", startRaw)
			}
			end, err := time.ParseInLocation("2006-01-02T15:04", endRaw, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --end %q, want YYYY-MM-DDTHH:MM", endRaw)
			}

			api, _ := newAPI()
			defer func() { _ = api.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			ev, err := api.CreateEvent(ctx, client.CreateEventRequest{
				Title:       title,
				Description: description,
				Location:    location,
				Color:       color,
				AllDay:      allDay,
				Start:       start,
				End:         end,
				RepeatRule:  client.RepeatRule(repeat),
			})
			if err != nil {
				log.Error().Err(err).Str("title", title).Msg("create event failed")
				return err
			}
			dbg(ev)
			fmt.Printf("Created event %s\n", ev.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Event title")
	cmd.Flags().StringVar(&startRaw, "start", "", "Start, local time YYYY-MM-DDTHH:MM")
	cmd.Flags().StringVar(&endRaw, "end", "", "End, local time YYYY-MM-DDTHH:MM")
	cmd.Flags().StringVar(&description, "description", "", "Free-text description")
	cmd.Flags().StringVar(&location, "location", "", "Location")
	cmd.Flags().StringVar(&color, "color", "", "Display color, #RRGGBB")
	cmd.Flags().StringVar(&repeat, "repeat", "none", "Repeat rule: none, daily, weekly or monthly")
	cmd.Flags().BoolVar(&allDay, "all-day", false, "All-day event")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newUpdateEventCmd() *cobra.Command {
	var id, title, description, location, color, status string

	cmd := &cobra.Command{
		Use:   "update-event",
		Short: "Apply a partial update to an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch client.EventPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("location") {
				patch.Location = &location
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &color
			}
			if cmd.Flags().Changed("status") {
				s := client.EventStatus(status)
				patch.Status = &s
			}

			api, _ := newAPI()
			defer func() { _ = api.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			ev, err := api.UpdateEvent(ctx, id, patch)
			if err != nil {
				log.Error().Err(err).Str("event_id", id).Msg("update event failed")
				return err
			}
			dbg(ev)
			fmt.Printf("Updated event %s\n", ev.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Event ID")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&location, "location", "", "New location")
	cmd.Flags().StringVar(&color, "color", "", "New display color, #RRGGBB")
	cmd.Flags().StringVar(&status, "status", "", "New status: planned, in_progress, completed or cancelled")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newDeleteEventCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "delete-event",
		Short: "Cancel an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _ := newAPI()
			defer func() { _ = api.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			// The backend has no delete endpoint; cancelling is the
			// server-visible equivalent.
			cancelled := client.StatusCancelled
			if _, err := api.UpdateEvent(ctx, id, client.EventPatch{Status: &cancelled}); err != nil {
				log.Error().Err(err).Str("event_id", id).Msg("delete event failed")
				return err
			}
			fmt.Printf("Cancelled event %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Event ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all events as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _ := newAPI()
			defer func() { _ = api.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			events, err := api.ListEvents(ctx)
			if err != nil {
				return err
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			if err := ics.Export(w, events); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if out != "" {
				fmt.Printf("Wrote %d events to %s\n", len(events), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file (defaults to stdout)")
	return cmd
}
