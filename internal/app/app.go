// Package app wires config, logging, storage and the engine together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"

	"teamtask/internal/config"
	"teamtask/internal/db"
	"teamtask/internal/domain"
	"teamtask/internal/engine"
	"teamtask/internal/engine/auth"
	"teamtask/internal/logging"
	"teamtask/internal/migrate"
	"teamtask/internal/repo"
)

type App struct {
	Config *config.Config
	Log    *log.Logger
	DB     *sqlx.DB
	Engine engine.Engine
}

// Open builds the logger, opens and migrates the store and returns a ready engine.
func Open(workspace string, cfg *config.Config, stderr io.Writer) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	conn, err := db.Open(db.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN, Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Debug("store ready", "driver", conn.DriverName())
	return &App{Config: cfg, Log: logger, DB: conn, Engine: engine.New(conn, logger)}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

// EnsureCompany returns the company with slug, creating it with an owner when missing.
func EnsureCompany(ctx context.Context, e engine.Engine, name, slug, ownerEmail string) (domain.Company, domain.User, error) {
	if slug == "" {
		slug = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	}
	c, err := e.Repo.GetCompanyBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return domain.Company{}, domain.User{}, err
		}
		c, err = e.CreateCompany(ctx, name, slug)
		if err != nil {
			return domain.Company{}, domain.User{}, err
		}
	}
	if ownerEmail == "" {
		return c, domain.User{}, nil
	}
	u, err := e.Repo.GetUserByEmail(ctx, c.ID, strings.ToLower(strings.TrimSpace(ownerEmail)))
	if err == nil {
		return c, u, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.Company{}, domain.User{}, err
	}
	u, err = e.CreateUser(ctx, c.ID, ownerEmail, "", auth.RoleOwner)
	if err != nil {
		return domain.Company{}, domain.User{}, err
	}
	return c, u, nil
}
