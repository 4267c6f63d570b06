package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"stitchworks/internal/feed"
	"stitchworks/internal/tui"
)

func main() {
	cmd := &cli.Command{
		Name:  "notifyfeed",
		Usage: "live notification feed for stitchworks back-office admins",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the client config file",
				Value: feed.DefaultConfigPath(),
			},
			&cli.StringFlag{
				Name:  "server",
				Usage: "base URL of the stitchworks API",
			},
			&cli.StringFlag{
				Name:  "email",
				Usage: "admin email (used when no token is configured)",
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "admin password (used when no token is configured)",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "pre-issued API token",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write debug logs to this file (logging is off by default: the TUI owns the terminal)",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	if path := c.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(io.Discard)
	}

	cfg, err := feed.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if v := c.String("server"); v != "" {
		cfg.ServerURL = v
	}
	if v := c.String("email"); v != "" {
		cfg.Email = v
	}
	if v := c.String("token"); v != "" {
		cfg.Token = v
	}

	client := feed.NewClient(cfg.ServerURL, cfg.Token)

	if cfg.Token == "" {
		password := c.String("password")
		if cfg.Email == "" || password == "" {
			return fmt.Errorf("no token configured; pass --email and --password to log in")
		}
		token, role, err := client.Login(ctx, cfg.Email, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if role != "admin" && role != "super_admin" {
			// The notification feed is an admin-only affordance.
			return fmt.Errorf("account %s is not an admin", cfg.Email)
		}
		cfg.Token = token
		client.SetToken(token)
	} else {
		// A configured token carries no role info; probe an admin endpoint.
		if _, err := client.UnreadCount(ctx); err != nil {
			return fmt.Errorf("token rejected (the feed is admin-only): %w", err)
		}
	}

	store := feed.NewStore(client)
	mgr, err := feed.NewManager(feed.Options{
		ServerURL:      cfg.ServerURL,
		Token:          cfg.Token,
		PingInterval:   cfg.PingInterval(),
		ReconnectDelay: cfg.ReconnectDelay(),
	}, store)
	if err != nil {
		return err
	}
	store.SetSender(mgr)

	p := tea.NewProgram(tui.New(store, mgr), tea.WithAltScreen())

	store.OnChange(func() {
		p.Send(tui.StoreChangedMsg{})
	})
	store.OnNewNotification(func(n feed.Notification) {
		// Audible cue is best-effort; the hook is already panic-wrapped.
		os.Stdout.Write([]byte("\a"))
		p.Send(tui.NewNotificationMsg{Notification: n})
	})

	mgr.Connect()
	defer mgr.Close()

	_, err = p.Run()
	return err
}
