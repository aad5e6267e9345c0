package http

import (
	"log/slog"

	"github.com/mrlokans/notebridge/internal/database"
	"github.com/mrlokans/notebridge/internal/profiles"
	"github.com/mrlokans/notebridge/internal/services"
	"github.com/mrlokans/notebridge/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Collection *database.Collection
	Profiles   *profiles.Manager
	Search     *services.SearchService
	Imports    *services.ImportService

	// Task queue client (optional). Async import endpoints are only
	// registered when it is set.
	TaskClient *tasks.Client

	// Application info
	Version string

	Logger *slog.Logger
}
