package entrypoint

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrlokans/notebridge/internal/config"
	"github.com/mrlokans/notebridge/internal/database"
	"github.com/mrlokans/notebridge/internal/hooks"
	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/importers"
	"github.com/mrlokans/notebridge/internal/profiles"
	"github.com/mrlokans/notebridge/internal/services"
	"github.com/mrlokans/notebridge/internal/tasks"
)

// App holds the long-lived components shared by the server and the CLI.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Destination *database.Collection
	Profiles    *profiles.Manager
	Catalog     *immersionkit.Client
	Importer    *importers.Importer
	Search      *services.SearchService
	Imports     *services.ImportService
}

// NewApp opens the active profile's collection and wires every service
// around it. Close releases the collections.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dest, err := database.OpenCollection(cfg.ProfileDir(), cfg.EnableDebugLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection of profile %q: %w", cfg.Profile, err)
	}

	catalog := immersionkit.NewClient(cfg.APIURL, cfg.RemoteTimeout())

	notifier := hooks.Multi{hooks.NewLogNotifier(logger.With("component", "hooks"))}
	if webhook := hooks.NewWebhook(hooks.SplitURLs(cfg.Hooks.URL), cfg.Hooks.Timeout, cfg.Hooks.Concurrency, logger); webhook.Enabled() {
		logger.Info("Webhook notifications enabled", "urls", webhook.URLs())
		notifier = append(notifier, webhook)
	}

	importer := importers.NewImporter(ImportOptions(cfg), catalog, notifier, logger.With("component", "importer"))
	manager := profiles.NewManager(cfg.ProfilesDir, cfg.Profile)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Destination: dest,
		Profiles:    manager,
		Catalog:     catalog,
		Importer:    importer,
		Search:      services.NewSearchService(SearchSettings(cfg), catalog, cfg.Fields),
		Imports:     services.NewImportService(importer, dest, manager, cfg.Fields),
	}, nil
}

// NewTaskClient creates the background import queue next to the collection.
// The caller starts and stops it.
func (a *App) NewTaskClient() (*tasks.Client, error) {
	client, err := tasks.NewClient(a.Destination.Database().Path(), TaskConfig(a.Config), a.Logger)
	if err != nil {
		return nil, err
	}
	client.Register(tasks.NewImportBatchQueue(a.Imports, a.Logger))
	return client, nil
}

func (a *App) Close() error {
	return errors.Join(a.Profiles.CloseAll(), a.Destination.Close())
}

// ImportOptions maps configuration onto importer options.
func ImportOptions(cfg *config.Config) importers.Options {
	return importers.Options{
		Workers:        cfg.Import.Workers,
		SkipDuplicates: cfg.SkipDuplicates,
		CopyTags:       cfg.CopyTags,
		CopyCardData:   cfg.CopyCardData,
		ExportedTag:    cfg.ExportedTag,
		CallHook:       cfg.CallAddCardsHook,
	}
}

func SearchSettings(cfg *config.Config) services.SearchSettings {
	return services.SearchSettings{
		AllowEmpty:        cfg.AllowEmptySearch,
		MaxResults:        cfg.MaxDisplayedNotes,
		SentenceField:     cfg.SentenceFieldName,
		SentenceMinLength: cfg.SentenceMinLength,
		SentenceMaxLength: cfg.SentenceMaxLength,
		HiddenFields:      cfg.HiddenFields,
	}
}

func TaskConfig(cfg *config.Config) tasks.Config {
	return tasks.Config{
		Workers:         cfg.Tasks.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
	}
}
