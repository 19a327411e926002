// Package main implements the entry point for the taskdeck API server,
// a task-management backend with per-user accounts, bearer-token
// authentication and owner-scoped task CRUD.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
)

func main() {
	migrateCmd := flag.String(
		"migrate",
		"",
		"run a migration command (up, down, status) and exit",
	)
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

// run loads configuration, wires the application together and either
// executes a migration command or starts the HTTP server. Split out of
// main so every exit path funnels through a single error return.
func run(migrateCmd string) error {
	app, err := newApplication()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	slog.Info("Server configuration loaded",
		"port", app.config.Server.Port,
		"log_level", app.config.Server.LogLevel)

	if migrateCmd != "" {
		slog.Info("Executing migrations", "command", migrateCmd)
		if err := runMigrations(app.db, migrateCmd); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		return nil
	}

	// Always bring the schema up to date before serving traffic.
	if err := runMigrations(app.db, "up"); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if err := app.startHTTPServer(app.setupRouter()); err != nil {
		return err
	}

	return nil
}
