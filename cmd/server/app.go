package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskdeck-api/internal/config"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/platform/postgres"
	"github.com/phrazzld/taskdeck-api/internal/service"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// application holds the shared dependencies of the server process. Every
// handler and middleware is wired from here, so tests can build the same
// graph with fakes swapped in.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	userService      service.UserService
}

// newApplication loads configuration, sets up logging, connects to the
// database and wires the stores and services into an application.
func newApplication() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := setupAppDatabase(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	userStore := postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost, log)
	taskStore := postgres.NewPostgresTaskStore(db, log)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	passwordVerifier := auth.NewBcryptVerifier()

	userService := service.NewUserService(
		db,
		userStore,
		taskStore,
		jwtService,
		passwordVerifier,
		log,
	)

	return &application{
		config:           cfg,
		logger:           log,
		db:               db,
		userStore:        userStore,
		taskStore:        taskStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		userService:      userService,
	}, nil
}

// cleanup releases resources held by the application. Safe to call more
// than once.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database connection", "error", err)
		}
		app.db = nil
	}
}
