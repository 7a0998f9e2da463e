package main

import (
	"context"
	"fmt"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type app struct {
	log     zerolog.Logger
	session *goSession.Session
	closers []func()
}

// flushTimeout bounds how long exit waits for audit events to be written.
const flushTimeout = 2 * time.Second

func (a *app) close() {
	if a.session != nil {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		if err := a.session.Flush(ctx); err != nil {
			a.log.Warn().Err(err).Msg("audit events not flushed")
		}
		cancel()
		a.session = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// BuildRootCmd returns the taskflow command tree.
func BuildRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "taskflow",
		Short:        "Task API session client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("api-url", "", "API base URL")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.String("store", "", "credential store: file, memory or redis")
	flags.String("store-dir", "", "directory for per-server credential files")
	flags.String("store-path", "", "explicit credential file")
	flags.String("redis-addr", "", "redis address for the redis store")
	flags.String("redis-prefix", "", "redis key prefix")
	flags.Duration("profile-ttl", 0, "profile cache lifetime")
	flags.String("log-level", "", "log level")
	flags.String("log-format", "", "log format: console or json")
	flags.Bool("audit", false, "log audit events")

	cmd.AddCommand(
		loginCommand(a),
		logoutCommand(a),
		whoamiCommand(a),
		statusCommand(a),
		tokenCommand(a),
		openCommand(a),
	)
	// PersistentPostRun is skipped when RunE fails; close on every path.
	for _, sub := range cmd.Commands() {
		run := sub.RunE
		if run == nil {
			continue
		}
		sub.RunE = func(cmd *cobra.Command, args []string) error {
			defer a.close()
			return run(cmd, args)
		}
	}
	return cmd
}

func (a *app) open(cmd *cobra.Command) error {
	v, err := newViper(cmd.Flags())
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(v.GetString("log.level"))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch format := v.GetString("log.format"); format {
	case "json":
		a.log = zerolog.New(cmd.ErrOrStderr())
	case "console":
		a.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true})
	default:
		return fmt.Errorf("log format %q: want console or json", format)
	}
	a.log = a.log.Level(level).With().Timestamp().Logger()

	cfg := sessionConfig(v)
	b := goSession.New().
		WithConfig(cfg).
		WithLogger(a.log).
		WithAuditSink(goSession.NewLogSink(a.log)).
		WithNavigator(navigation.NavigatorFunc(func(_ context.Context, route string, replace bool) {
			a.log.Debug().Str("route", route).Bool("replace", replace).Msg("navigate")
		}))

	if cfg.Store.Backend == goSession.StoreRedis {
		rdb := redis.NewClient(&redis.Options{Addr: v.GetString("store.redis_addr")})
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		b = b.WithRedis(rdb)
	}

	s, err := b.Build()
	if err != nil {
		a.close()
		return err
	}
	a.session = s
	a.closers = append(a.closers, s.Close)
	return nil
}
