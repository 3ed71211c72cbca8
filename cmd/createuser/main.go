package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"docsmanager/internal/config"
	"docsmanager/internal/database"
	"docsmanager/internal/database/migration"
	"docsmanager/internal/logger"
	"docsmanager/internal/repository/postgres"
	"docsmanager/internal/service"
	"docsmanager/internal/validation"
)

type options struct {
	username  string
	password  string
	staff     bool
	superuser bool
}

func main() {
	var opts options
	pflag.StringVarP(&opts.username, "username", "u", "", "login name of the new account")
	pflag.StringVarP(&opts.password, "password", "p", os.Getenv("CREATEUSER_PASSWORD"), "password (defaults to $CREATEUSER_PASSWORD)")
	pflag.BoolVar(&opts.staff, "staff", false, "grant staff rights (may delete any document)")
	pflag.BoolVar(&opts.superuser, "superuser", false, "grant superuser rights (implies --staff)")
	pflag.Parse()

	if opts.username == "" || opts.password == "" {
		fmt.Fprintln(os.Stderr, "usage: createuser --username NAME --password SECRET [--staff] [--superuser]")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	err := run(cfg, log, opts)
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run logs its own failures; every deferred cleanup has happened by the time it returns.
func run(cfg *config.AppConfig, log *zap.Logger, opts options) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgres(cfg.Database, log)
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Error("migration failed", zap.Error(err))
		return err
	}

	users := service.NewAuthService(postgres.NewUserPostgres(db), nil, nil, log)
	u, err := users.CreateUser(ctx, validation.UserForm{Username: opts.username, Password: opts.password}, opts.staff, opts.superuser)
	if err != nil {
		var verrs validation.Errors
		switch {
		case errors.As(err, &verrs):
			log.Error("user_invalid", zap.Any("errors", []validation.FieldError(verrs)))
		case errors.Is(err, service.ErrUsernameTaken):
			log.Error("user_exists", zap.String("username", opts.username))
		default:
			log.Error("user_create_failed", zap.Error(err))
		}
		return err
	}

	log.Info("user_created",
		zap.String("user_id", u.ID),
		zap.String("username", u.Username),
		zap.Bool("is_staff", u.IsStaff),
		zap.Bool("is_superuser", u.IsSuperuser),
	)
	return nil
}
