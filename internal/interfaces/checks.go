package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/notebridge/internal/database"
	"github.com/mrlokans/notebridge/internal/hooks"
	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/importers"
	"github.com/mrlokans/notebridge/internal/profiles"
	"github.com/mrlokans/notebridge/internal/services"
	"github.com/mrlokans/notebridge/internal/tasks"
)

// =============================================================================
// Collections
// =============================================================================

// SourceCollection implementations
var _ importers.SourceCollection = (*profiles.Collection)(nil)

// Destination implementations
var _ importers.Destination = (*database.Collection)(nil)

// NoteFinder and ProfileOpener implementations
var _ services.NoteFinder = (*profiles.Collection)(nil)
var _ services.ProfileOpener = (*profiles.Manager)(nil)

// =============================================================================
// External Services
// =============================================================================

// MediaFetcher implementations
var _ importers.MediaFetcher = (*immersionkit.Client)(nil)

// ExampleSearcher implementations
var _ services.ExampleSearcher = (*immersionkit.Client)(nil)

// =============================================================================
// Notifications
// =============================================================================

var _ importers.Notifier = (*hooks.Webhook)(nil)
var _ importers.Notifier = (*hooks.LogNotifier)(nil)
var _ importers.Notifier = hooks.Multi(nil)
var _ hooks.Notifier = (*hooks.Webhook)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

// BatchImporter implementations
var _ tasks.BatchImporter = (*services.ImportService)(nil)
