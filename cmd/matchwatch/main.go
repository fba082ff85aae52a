// Command matchwatch is a terminal client for the matchpulse server.
//
// Usage:
//
//	matchwatch --subscriber s1 follow "Team Heretics"
//	matchwatch --subscriber s1 settings "Team Heretics" --score-change=false
//	matchwatch --subscriber s1 listen
//	matchwatch --subscriber s1 history --limit 10
//	matchwatch teams --region eu
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"matchpulse/internal/client"
	"matchpulse/internal/model"
)

type options struct {
	server     string
	subscriber string
	dataDir    string
	verbose    bool
}

func main() {
	_ = godotenv.Load(".env")

	opts := &options{}
	root := &cobra.Command{
		Use:           "matchwatch",
		Short:         "Follow esports teams and receive live match alerts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("MATCHWATCH_SERVER", "http://localhost:8080"), "matchpulse server base URL")
	root.PersistentFlags().StringVar(&opts.subscriber, "subscriber", os.Getenv("MATCHWATCH_SUBSCRIBER"), "subscriber id")
	root.PersistentFlags().StringVar(&opts.dataDir, "data", envOr("MATCHWATCH_DATA", defaultDataDir()), "local storage directory")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(listenCmd(opts))
	root.AddCommand(followCmd(opts))
	root.AddCommand(unfollowCmd(opts))
	root.AddCommand(settingsCmd(opts))
	root.AddCommand(historyCmd(opts))
	root.AddCommand(teamsCmd(opts))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// commands
// --------------------------------------------------------------------------

func listenCmd(opts *options) *cobra.Command {
	var capacity int
	var retry time.Duration
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Stream notifications into the local inbox and alert on them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, true, func(ctx context.Context, env *env) error {
				inbox, err := client.NewInbox(env.store, capacity, client.TerminalAlerter{W: cmd.OutOrStdout()}, env.log)
				if err != nil {
					return err
				}
				receiver := client.NewReceiver(opts.server, opts.subscriber, retry, env.log)
				env.log.Info("listening", zap.String("server", opts.server), zap.String("subscriber_id", opts.subscriber))
				err = receiver.Run(ctx, func(event model.NotificationEvent) {
					if _, err := inbox.Receive(event); err != nil {
						env.log.Error("store event failed", zap.Int64("event_id", event.ID), zap.Error(err))
					}
				})
				if ctx.Err() != nil {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().IntVar(&capacity, "capacity", 50, "local history size")
	cmd.Flags().DurationVar(&retry, "retry", 3*time.Second, "minimum delay between reconnects")
	return cmd
}

func followCmd(opts *options) *cobra.Command {
	var teamID string
	cmd := &cobra.Command{
		Use:   "follow <team>",
		Short: "Follow a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, true, func(ctx context.Context, env *env) error {
				fav, err := env.api.Follow(ctx, teamID, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "following %s\n", fav.TeamName)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&teamID, "team-id", "", "provider team id")
	return cmd
}

func unfollowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "unfollow <team>",
		Short: "Stop following a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, true, func(ctx context.Context, env *env) error {
				if err := env.api.Unfollow(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "unfollowed %s\n", args[0])
				return nil
			})
		},
	}
}

func settingsCmd(opts *options) *cobra.Command {
	prefs := model.DefaultPreferences()
	cmd := &cobra.Command{
		Use:   "settings <team>",
		Short: "Set which notifications a followed team sends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, true, func(ctx context.Context, env *env) error {
				fav, err := env.api.UpdateSettings(ctx, args[0], prefs)
				if err != nil {
					return err
				}
				p := fav.Preferences
				fmt.Fprintf(cmd.OutOrStdout(), "%s: matchStart=%t scoreChange=%t matchEnd=%t newsUpdate=%t\n",
					fav.TeamName, p.MatchStart, p.ScoreChange, p.MatchEnd, p.NewsUpdate)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&prefs.MatchStart, "match-start", true, "notify when a match starts")
	cmd.Flags().BoolVar(&prefs.ScoreChange, "score-change", true, "notify on score changes")
	cmd.Flags().BoolVar(&prefs.MatchEnd, "match-end", true, "notify when a match ends")
	cmd.Flags().BoolVar(&prefs.NewsUpdate, "news", true, "notify on news")
	return cmd
}

func historyCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the local notification inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, false, func(ctx context.Context, env *env) error {
				events, err := env.store.LoadInbox()
				if err != nil {
					return err
				}
				for i, e := range events {
					if limit > 0 && i >= limit {
						break
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %-11s  %s\n", e.Timestamp.Local().Format(time.DateTime), e.Type, e.Message)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries, 0 for all")
	return cmd
}

func teamsCmd(opts *options) *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "List ranked teams of a region",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, false, func(ctx context.Context, env *env) error {
				teams, err := env.api.Teams(ctx, region)
				if err != nil {
					return err
				}
				for _, t := range teams {
					fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-24s  %s\n", t.Rank, t.Name, t.Record)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&region, "region", "eu", "ranking region")
	return cmd
}

// --------------------------------------------------------------------------
// helpers
// --------------------------------------------------------------------------

type env struct {
	store *client.LocalStore
	api   *client.API
	log   *zap.Logger
}

// run opens local storage, builds the API client and calls fn with a context
// cancelled on SIGINT or SIGTERM.
func run(opts *options, needSubscriber bool, fn func(ctx context.Context, env *env) error) error {
	if needSubscriber && opts.subscriber == "" {
		return fmt.Errorf("--subscriber or MATCHWATCH_SUBSCRIBER is required")
	}

	level := zapcore.WarnLevel
	if opts.verbose {
		level = zapcore.DebugLevel
	}
	logger, err := zap.NewDevelopment(zap.IncreaseLevel(level))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(opts.dataDir, 0o755); err != nil {
		return err
	}
	store, err := client.Open(filepath.Join(opts.dataDir, subscriberDir(opts.subscriber)))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, &env{
		store: store,
		api:   client.NewAPI(opts.server, opts.subscriber, store),
		log:   logger,
	})
}

func subscriberDir(subscriber string) string {
	if subscriber == "" {
		return "shared"
	}
	return "sub-" + filepath.Base(subscriber)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "matchwatch")
	}
	return ".matchwatch"
}
