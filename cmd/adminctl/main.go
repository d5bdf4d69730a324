// Command adminctl runs operator tasks against the configured storage.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"streamnet/internal/config"
	"streamnet/internal/database"
	"streamnet/internal/logger"
	"streamnet/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := database.OpenRepositories(ctx, cfg, log.Named("db"))
	if err != nil {
		return err
	}
	defer closeRepos()

	// No chat provider here.
	sync := service.NewChatSync(nil, nil, log)
	cmd := &commands{
		out:       os.Stdout,
		users:     service.NewUserService(repos.Tx, repos.Users, service.NewValidator(), service.NewAvatarSource(cfg.AvatarBaseURL), sync, cfg.AdminSecretKey, log.Named("users")),
		friends:   service.NewFriendService(repos.Tx, repos.Users, repos.Friends, log.Named("friends")),
		admins:    repos.Users,
		secretKey: cfg.AdminSecretKey,
	}

	log.Debug("running command", zap.String("command", args[0]), zap.String("storage", cfg.Storage))
	return cmd.dispatch(ctx, args[0], args[1:])
}

func printUsage() {
	fmt.Fprint(os.Stderr, `adminctl: operator tasks for the admin system and friend graph.

Usage:
  adminctl verify
      Print the master admin, every admin account and whether
      ADMIN_SECRET_KEY is configured.

  adminctl reconcile [--dry-run]
      Find friendships recorded in one direction only and restore the
      missing direction.

  adminctl bootstrap --email EMAIL --name NAME --password PASSWORD
      Create an admin with the configured secret key. The account becomes
      master admin when none exists yet.

Configuration is read from the environment (and .env), the same as the server.
`)
}
