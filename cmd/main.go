package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"meetme/internal/config"
	"meetme/internal/google"
	"meetme/internal/models"
	"meetme/internal/planner"
	"meetme/internal/server"

	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "meetme",
		Usage: "Find the time a group of people is free to meet.",
		Commands: []*cli.Command{
			authCommand(cfg),
			calendarsCommand(cfg),
			freeCommand(cfg),
			proposeCommand(cfg),
			respondCommand(cfg),
			serveCommand(cfg),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			oauthConfig, err := google.GetOAuthConfigForAuthFlow(cfg.GoogleClientID, cfg.GoogleClientSecret)
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)

			tokenFile, err := google.SaveToken(accountName, token)
			if err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func calendarsCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "calendars",
		Usage: "List the calendars of every authenticated Google account.",
		Action: func(c *cli.Context) error {
			logger := setupLogger(cfg.LogLevel)

			clients, err := googleClients(c.Context, cfg, logger)
			if err != nil {
				return err
			}

			for _, gc := range clients {
				cals, err := gc.client.Calendars(c.Context)
				if err != nil {
					logger.Error("Could not list calendars", "account", gc.account, "error", err)
					continue
				}
				fmt.Printf("%s:\n", gc.account)
				for _, cal := range cals {
					marker := " "
					if cal.Primary {
						marker = "*"
					}
					fmt.Printf(" %s %-40s %s (%s)\n", marker, cal.ID, cal.Summary, cal.Description)
				}
			}
			return nil
		},
	}
}

func windowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "start", Usage: "First day, YYYY-MM-DD.", Required: true},
		&cli.StringFlag{Name: "end", Usage: "Last day, YYYY-MM-DD. Defaults to --start."},
		&cli.StringFlag{Name: "from", Value: "09:00", Usage: "Daily window start, HH:MM."},
		&cli.StringFlag{Name: "to", Value: "17:00", Usage: "Daily window end, HH:MM."},
	}
}

func meetingFromFlags(c *cli.Context) models.Meeting {
	end := c.String("end")
	if end == "" {
		end = c.String("start")
	}
	return models.Meeting{
		Title:     c.String("title"),
		Proposer:  c.String("proposer"),
		StartDate: c.String("start"),
		EndDate:   end,
		BeginTime: c.String("from"),
		EndTime:   c.String("to"),
	}
}

func freeCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "free",
		Usage: "Show busy and free time of calendars over a range of days.",
		Flags: append(windowFlags(),
			&cli.StringFlag{Name: "title", Value: "Meeting", Usage: "Title of the free blocks."},
			&cli.StringSliceFlag{Name: "calendar", Usage: "Google calendar IDs. Defaults to GOOGLE_CALENDAR_IDS, then primary."},
			&cli.BoolFlag{Name: "icloud", Usage: "Also read ICLOUD_CALENDAR_NAME over CalDAV."},
			&cli.BoolFlag{Name: "publish", Usage: "Write the common free time to ICLOUD_CALENDAR_NAME."},
		),
		Action: func(c *cli.Context) error {
			logger := setupLogger(cfg.LogLevel)
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			m := meetingFromFlags(c)
			windows, err := planner.Windows(m, loc)
			if err != nil {
				return fmt.Errorf("invalid window: %w", err)
			}

			sources, err := busySources(c.Context, cfg, logger, loc, c.StringSlice("calendar"), c.Bool("icloud"))
			if err != nil {
				return err
			}

			p := planner.New(logger, nil, loc)
			var busy []models.Event
			for _, src := range sources {
				results, err := p.CheckCalendars(c.Context, m, src.source, src.calendars)
				if err != nil {
					return err
				}
				for _, r := range results {
					fmt.Printf("%s / %s:\n", src.name, r.Calendar)
					events := timelineEvents(c.Context, logger, src, r.Calendar, windows, r.Busy)
					for _, tr := range planner.Timeline(events, windows) {
						fmt.Printf("  %s - %s  %s\n", tr.Start, tr.End, tr.Summary)
					}
					busy = append(busy, r.Busy...)
				}
			}

			free := planner.FreeTimes(busyAppts(logger, busy), windows)
			fmt.Println("Free in every calendar:")
			for _, tr := range models.TimeRanges(free) {
				fmt.Printf("  %s - %s\n", tr.Start, tr.End)
			}

			if c.Bool("publish") {
				iClient, err := caldavClient(cfg, logger, loc)
				if err != nil {
					return err
				}
				if err := iClient.PublishFree(c.Context, m.Title, free); err != nil {
					return fmt.Errorf("failed to publish free time: %w", err)
				}
				logger.Info("Published free time", "calendar", cfg.ICloudCalendarName, "blocks", free.Len())
			}
			return nil
		},
	}
}

func proposeCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "propose",
		Usage: "Store a meeting proposal that respondents can answer.",
		Flags: append(windowFlags(),
			&cli.StringFlag{Name: "title", Usage: "Meeting title.", Required: true},
			&cli.StringFlag{Name: "proposer", Usage: "Name of the person proposing."},
		),
		Action: func(c *cli.Context) error {
			logger := setupLogger(cfg.LogLevel)

			m := meetingFromFlags(c)
			if err := m.Validate(); err != nil {
				return fmt.Errorf("invalid meeting: %w", err)
			}

			s, err := openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.CreateMeeting(c.Context, m)
			if err != nil {
				return fmt.Errorf("failed to store meeting: %w", err)
			}
			logger.Info("Stored meeting proposal", "id", id, "title", m.Title)
			fmt.Println(id)
			return nil
		},
	}
}

func respondCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "respond",
		Usage: "Answer a meeting proposal with the busy times of your calendars.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "meeting", Usage: "Meeting ID.", Required: true},
			&cli.StringFlag{Name: "name", Usage: "Your name.", Required: true},
			&cli.StringSliceFlag{Name: "calendar", Usage: "Google calendar IDs. Defaults to GOOGLE_CALENDAR_IDS, then primary."},
			&cli.BoolFlag{Name: "icloud", Usage: "Also read ICLOUD_CALENDAR_NAME over CalDAV."},
			&cli.StringSliceFlag{Name: "ignore", Usage: "Busy time to leave out, as calendar/start/end with RFC 3339 times."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(cfg.LogLevel)
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			var ignored []models.Event
			for _, raw := range c.StringSlice("ignore") {
				e, err := parseIgnored(raw)
				if err != nil {
					return err
				}
				ignored = append(ignored, e)
			}

			s, err := openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := s.Meeting(c.Context, c.String("meeting"))
			if err != nil {
				return fmt.Errorf("failed to load meeting: %w", err)
			}

			sources, err := busySources(c.Context, cfg, logger, loc, c.StringSlice("calendar"), c.Bool("icloud"))
			if err != nil {
				return err
			}

			p := planner.New(logger, s, loc)
			var busy []models.Event
			for _, src := range sources {
				results, err := p.CheckCalendars(c.Context, m, src.source, src.calendars)
				if err != nil {
					return err
				}
				for _, r := range results {
					busy = append(busy, r.Busy...)
				}
			}
			busy = planner.Without(busy, ignored)

			stored, err := p.Respond(c.Context, m.ID, c.String("name"), busy)
			if err != nil {
				return fmt.Errorf("failed to respond: %w", err)
			}
			logger.Info("Responded to meeting", "meeting", m.Title, "busyTimes", len(stored))
			return nil
		},
	}
}

func serveCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the meeting API over HTTP.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Value: cfg.AppPort, Usage: "Port to listen on."},
			&cli.BoolFlag{Name: "profile", Usage: "Write a CPU profile to /tmp."},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("profile") {
				defer profile.Start(profile.ProfilePath("/tmp")).Stop()
			}

			logger := setupLogger(cfg.LogLevel)
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			s, err := openStore(c.Context, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(logger, s, planner.New(logger, s, loc), cfg.MaxRequestsPerMin)
			return srv.Run(ctx, "0.0.0.0:"+c.String("port"))
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
