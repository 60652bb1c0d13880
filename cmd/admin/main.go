package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Kamal-Wagle/recondition/internal/config"
	"github.com/Kamal-Wagle/recondition/internal/database"
	"github.com/Kamal-Wagle/recondition/internal/log"
	"github.com/Kamal-Wagle/recondition/internal/models"
	"github.com/Kamal-Wagle/recondition/internal/repository"
	"github.com/Kamal-Wagle/recondition/internal/service"
)

// admin creates a back-office account, or resets the password and role of an
// existing one. The password may come from RECONDITION_ADMIN_PASSWORD so it
// stays out of shell history.
func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", os.Getenv("RECONDITION_ADMIN_PASSWORD"), "account password (min 12 characters)")
	name := flag.String("name", "", "display name")
	role := flag.String("role", string(models.UserRoleAdmin), "editor, admin or superadmin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := log.New(cfg.Environment, cfg.Logging.Level)

	if err := parseRole(*role); err != nil {
		logger.Fatal().Err(err).Msg("invalid role")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Postgres.AutoMigrate {
		if _, err := database.Migrate(cfg.Postgres.DSN); err != nil {
			logger.Fatal().Err(err).Msg("database migration failed")
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer pool.Close()

	auth := service.NewAuthService(
		repository.NewUserRepository(pool),
		repository.NewSessionRepository(pool),
		cfg.Security,
		logger,
	)

	user, err := auth.EnsureAdmin(ctx, service.AdminInput{
		Email:    *email,
		Password: *password,
		Name:     *name,
		Role:     models.UserRole(*role),
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			logger.Fatal().Str("field", verr.Field).Msg(verr.Message)
		}
		logger.Fatal().Err(err).Msg("ensure admin failed")
	}

	logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("account ready")
}

func parseRole(role string) error {
	switch models.UserRole(role) {
	case models.UserRoleEditor, models.UserRoleAdmin, models.UserRoleSuperAdmin:
		return nil
	}
	return fmt.Errorf("unknown role %q", role)
}
