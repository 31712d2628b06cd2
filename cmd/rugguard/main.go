package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	cli "github.com/urfave/cli/v2"

	"rugguard/internal/analyze"
	"rugguard/internal/config"
	"rugguard/internal/jobs"
	"rugguard/internal/logging"
	"rugguard/internal/metrics"
	"rugguard/internal/model"
	"rugguard/internal/monitor"
	"rugguard/internal/report"
	"rugguard/internal/theme"
	"rugguard/internal/trust"
	"rugguard/internal/xclient"
)

var errMissingCredentials = errors.New("missing required credentials")

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	app := &cli.App{
		Name:    "rugguard",
		Usage:   "replies with a trust report when asked about a post's author",
		Version: versioninfo.Short(),
		Writer:  out,
	}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to a YAML config file (optional)",
			Value:   "rugguard.yaml",
			EnvVars: []string{"RUGGUARD_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "env-file",
			Usage:   "dotenv file loaded before reading credentials",
			Value:   ".env",
			EnvVars: []string{"RUGGUARD_ENV_FILE"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			EnvVars: []string{"RUGGUARD_METRICS_LISTEN"},
		},
	}
	app.Commands = []*cli.Command{runCmd, initCmd}
	app.Action = runBot
	return app
}

var runCmd = &cli.Command{
	Name:   "run",
	Usage:  "watch for triggers and reply with trust reports",
	Action: runBot,
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "write a default config file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "path", Value: "rugguard.yaml", Usage: "path to write config"},
	},
	Action: func(cctx *cli.Context) error {
		cfg := config.Default()
		path := cctx.String("path")
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		abs, _ := filepath.Abs(path)
		theme.PrintBanner(cctx.App.Writer, cfg.Bot.TargetHandle, cfg.Bot.TriggerPhrase)
		fmt.Fprintln(cctx.App.Writer, "Config written to:", abs)
		return nil
	},
}

func loadConfig(cctx *cli.Context) (config.Config, error) {
	if err := config.LoadDotEnv(cctx.String("env-file")); err != nil {
		return config.Config{}, fmt.Errorf("load env file: %w", err)
	}
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if lvl := cctx.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if addr := cctx.String("metrics-listen"); addr != "" {
		cfg.Metrics.Listen = addr
	}
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		out := cctx.App.Writer
		fmt.Fprintln(out, "Error: Missing required environment variables:")
		for _, name := range missing {
			fmt.Fprintln(out, "- "+name)
		}
		fmt.Fprintln(out, "Please set these variables in your .env file")
		return cfg, errMissingCredentials
	}
	return cfg, nil
}

func runBot(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.Log.Level)
	theme.PrintBanner(cctx.App.Writer, cfg.Bot.TargetHandle, cfg.Bot.TriggerPhrase)

	if srv := metrics.StartServer(cfg.Metrics.Listen); srv != nil {
		logger.Info("metrics listening", "addr", srv.Addr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := xclient.NewHTTPClient(xclient.Credentials{
		BearerToken:    cfg.Credentials.BearerToken,
		ConsumerKey:    cfg.Credentials.APIKey,
		ConsumerSecret: cfg.Credentials.APISecret,
		AccessToken:    cfg.Credentials.AccessToken,
		AccessSecret:   cfg.Credentials.AccessTokenSecret,
	}, cfg.Pacing.MinAPIInterval, logger)

	me, err := client.GetMe(ctx)
	if err != nil {
		if xclient.IsUnauthorized(err) {
			fmt.Fprintln(cctx.App.Writer, "Error: Twitter API authentication failed")
		}
		return fmt.Errorf("verify credentials: %w", err)
	}
	logger.Info("authenticated", "username", me.Username, "user_id", me.ID)
	if err := checkTarget(ctx, client, cfg.Bot.TargetHandle, logger); err != nil {
		return err
	}

	runner, err := newRunner(cfg, client, logger)
	if err != nil {
		return err
	}
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type userLookup interface {
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}

// checkTarget fails when the watched handle does not exist. Other lookup errors are
// only logged; the search still works without the id.
func checkTarget(ctx context.Context, client userLookup, handle string, logger *slog.Logger) error {
	handle = strings.TrimPrefix(handle, "@")
	target, err := client.GetUserByUsername(ctx, handle)
	switch {
	case xclient.IsNotFound(err):
		return fmt.Errorf("target handle @%s: %w", handle, err)
	case err != nil:
		logger.Warn("could not look up target handle", "handle", handle, "err", err)
		return nil
	}
	logger.Info("watching target", "handle", target.Username, "user_id", target.ID)
	return nil
}

func newRunner(cfg config.Config, client xclient.XClient, logger *slog.Logger) (*jobs.Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := monitor.New(client, monitor.Options{
		TargetHandle:  cfg.Bot.TargetHandle,
		TriggerPhrase: cfg.Bot.TriggerPhrase,
		SearchResults: cfg.Limits.SearchResults,
		SeenCapacity:  cfg.Limits.SeenCapacity,
		Backoff:       monitor.NewBackoff(cfg.Pacing.BackoffMin, cfg.Pacing.BackoffMax),
	}, logger)
	if err != nil {
		return nil, err
	}
	trusted := trust.NewSet(cfg.Trust.Accounts)
	logger.Info("trusted accounts loaded", "count", trusted.Len())
	return &jobs.Runner{
		Monitor:      m,
		Analyzer:     analyze.New(client, cfg.Limits.RecentPosts, logger),
		Verifier:     trust.New(client, trusted, cfg.Limits.Followers, logger),
		Reporter:     report.New(client, cfg.Limits.ReplyMaxLength, logger),
		PollInterval: cfg.Pacing.PollInterval,
		ErrorSleep:   cfg.Pacing.ErrorSleep,
		Log:          logger,
	}, nil
}
