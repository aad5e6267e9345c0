package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/notebridge/internal/database"
)

const defaultBatchLimit = 20

// BatchesController lists committed import batches and undoes them.
type BatchesController struct {
	col    *database.Collection
	logger *slog.Logger
}

func NewBatchesController(col *database.Collection, logger *slog.Logger) *BatchesController {
	return &BatchesController{col: col, logger: logger}
}

// ListBatches handles GET /api/batches?limit=
func (bc *BatchesController) ListBatches(c *gin.Context) {
	limit, ok := parseQueryInt(c, "limit", defaultBatchLimit)
	if !ok {
		return
	}

	batches, err := bc.col.Notes().Batches(c.Request.Context(), limit)
	if err != nil {
		respondInternalError(c, bc.logger, err, "list batches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

// GetBatch handles GET /api/batches/:id
func (bc *BatchesController) GetBatch(c *gin.Context) {
	batch, err := bc.col.Notes().Batch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, bc.logger, err, "get batch")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// UndoBatch handles POST /api/batches/:id/undo
// Removes every note and card the batch inserted.
func (bc *BatchesController) UndoBatch(c *gin.Context) {
	id := c.Param("id")
	removed, err := bc.col.UndoBatch(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, bc.logger, err, "undo batch")
		return
	}

	bc.logger.Info("Import batch undone", "batch_id", id, "notes_removed", removed)
	c.JSON(http.StatusOK, gin.H{
		"batch_id":      id,
		"notes_removed": removed,
	})
}
