package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/notebridge/internal/database"
)

// CollectionController exposes the decks and note types of the active collection.
type CollectionController struct {
	col    *database.Collection
	logger *slog.Logger
}

func NewCollectionController(col *database.Collection, logger *slog.Logger) *CollectionController {
	return &CollectionController{col: col, logger: logger}
}

// ListDecks handles GET /api/collection/decks
func (cc *CollectionController) ListDecks(c *gin.Context) {
	ctx := c.Request.Context()

	decks, err := cc.col.Decks(ctx)
	if err != nil {
		respondInternalError(c, cc.logger, err, "list decks")
		return
	}
	current, err := cc.col.CurrentDeckID(ctx)
	if err != nil {
		respondInternalError(c, cc.logger, err, "current deck")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"decks":           decks,
		"current_deck_id": current,
	})
}

// ListSchemas handles GET /api/collection/schemas
func (cc *CollectionController) ListSchemas(c *gin.Context) {
	schemas, err := cc.col.Schemas(c.Request.Context())
	if err != nil {
		respondInternalError(c, cc.logger, err, "list schemas")
		return
	}
	c.JSON(http.StatusOK, gin.H{"schemas": schemas})
}
