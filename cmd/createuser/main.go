// createuser provisions a staff account in the Postgres store. It is the
// only way accounts are created; the API has no signup endpoint.
//
//	createuser --username reception1 --role RECEPTION --display-name "Front desk"
//
// The password is read from --password or, preferably, LABINTAKE_PASSWORD.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lalith-99/labintake/internal/config"
	"github.com/lalith-99/labintake/internal/db"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/observ"
	"github.com/lalith-99/labintake/internal/repository"
	"github.com/lalith-99/labintake/internal/repository/postgres"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	username    string
	email       string
	displayName string
	role        string
	password    string
	databaseURL string
	migrate     bool
}

func parseFlags(args []string) (*options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("createuser", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.username, "username", "u", "", "login name (required)")
	flagSet.StringVar(&opts.email, "email", "", "email address")
	flagSet.StringVar(&opts.displayName, "display-name", "", "name shown in the UI")
	flagSet.StringVarP(&opts.role, "role", "r", string(models.RoleReception), "RECEPTION, ANALYST or ADMIN")
	flagSet.StringVar(&opts.password, "password", "", "password (default: $LABINTAKE_PASSWORD)")
	flagSet.StringVar(&opts.databaseURL, "database-url", config.GetEnv("DATABASE_URL", ""), "Postgres URL (default: $DATABASE_URL)")
	flagSet.BoolVar(&opts.migrate, "migrate", false, "apply pending migrations first")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	if opts.password == "" {
		opts.password = os.Getenv("LABINTAKE_PASSWORD")
	}
	opts.role = strings.ToUpper(opts.role)

	switch {
	case strings.TrimSpace(opts.username) == "":
		return nil, errors.New("--username is required")
	case !models.Role(opts.role).Valid():
		return nil, fmt.Errorf("--role: %q is not RECEPTION, ANALYST or ADMIN", opts.role)
	case len(opts.password) < minPasswordLen:
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	case opts.databaseURL == "":
		return nil, errors.New("--database-url or DATABASE_URL is required")
	}
	return &opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger, err := observ.NewLogger(config.GetEnv("ENV", "development"), config.GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if opts.migrate {
		if err := db.Migrate(opts.databaseURL, logger); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	database, err := db.New(ctx, opts.databaseURL, db.Options{MaxConns: 1, MinConns: 1}, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     opts.username,
		Email:        opts.email,
		DisplayName:  opts.displayName,
		PasswordHash: string(hash),
		Role:         models.Role(opts.role),
	}
	store := postgres.NewStore(database.Pool())
	if err := store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("user %q already exists", opts.username)
		}
		return fmt.Errorf("create user: %w", err)
	}

	logger.Info("user created",
		zap.String("id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	return nil
}
