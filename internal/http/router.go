package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Collection, cfg.Profiles, cfg.Version)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Source profile endpoints
	if cfg.Profiles != nil && cfg.Search != nil {
		profilesController := NewProfilesController(cfg.Profiles, cfg.Search, logger)
		api.GET("/profiles", profilesController.ListProfiles)
		api.GET("/profiles/:name/decks", profilesController.ListDecks)
		api.GET("/profiles/:name/notes", profilesController.SearchNotes)
		api.GET("/profiles/:name/notes/:id", profilesController.GetNote)
	}

	// Remote catalog endpoints
	if cfg.Search != nil {
		remoteController := NewRemoteController(cfg.Search, logger)
		api.GET("/remote/search", remoteController.Search)
	}

	// Active collection endpoints
	if cfg.Collection != nil {
		collectionController := NewCollectionController(cfg.Collection, logger)
		api.GET("/collection/decks", collectionController.ListDecks)
		api.GET("/collection/schemas", collectionController.ListSchemas)

		batchesController := NewBatchesController(cfg.Collection, logger)
		api.GET("/batches", batchesController.ListBatches)
		api.GET("/batches/:id", batchesController.GetBatch)
		api.POST("/batches/:id/undo", batchesController.UndoBatch)
	}

	// Import endpoints
	if cfg.Imports != nil {
		importsController := NewImportsController(cfg.Imports, cfg.TaskClient, logger)
		api.POST("/import/local", importsController.ImportLocal)
		api.POST("/import/remote", importsController.ImportRemote)

		if cfg.TaskClient != nil {
			api.POST("/import/local/async", importsController.EnqueueLocal)
			api.POST("/import/remote/async", importsController.EnqueueRemote)
		}
	}

	// Task status endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient, logger)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
