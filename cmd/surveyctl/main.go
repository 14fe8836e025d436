package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"golang.org/x/term"

	"github.com/surveyhub/surveyhub/cmd/surveyctl/cli"
	"github.com/surveyhub/surveyhub/internal/app"
	"github.com/surveyhub/surveyhub/internal/auth"
	"github.com/surveyhub/surveyhub/internal/platform/db"
	"github.com/surveyhub/surveyhub/internal/profiles"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []func()
	load := func(ctx context.Context) (*cli.Deps, error) {
		cfg, err := app.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		logger := app.NewLogger(cfg)
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		closers = append(closers, pool.Close)
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		closers = append(closers, func() { _ = inspector.Close() })

		users := auth.NewService(auth.ServiceConfig{
			Repo:   auth.NewRepository(pool),
			Logger: logger,
		})
		return &cli.Deps{
			Users:    users,
			Profiles: profiles.NewService(profiles.NewRepository(pool)),
			Migrate: func(ctx context.Context) error {
				return db.Migrate(ctx, pool)
			},
			Queue: inspector,
		}, nil
	}

	root := cli.NewRootCommand(load, readPassword)
	err := cli.Execute(ctx, root, os.Args[1:], os.Stdout, os.Stderr)
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	if err != nil {
		slog.Default().Error("surveyctl", slog.Any("error", err))
		os.Exit(1)
	}
}

var stdin = bufio.NewReader(os.Stdin)

// readPassword reads without echo on a terminal and a plain line otherwise,
// so passwords can be piped in from scripts.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
