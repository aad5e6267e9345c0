package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/services"
)

// RemoteController searches the remote sentence catalog.
type RemoteController struct {
	search *services.SearchService
	logger *slog.Logger
}

func NewRemoteController(search *services.SearchService, logger *slog.Logger) *RemoteController {
	return &RemoteController{search: search, logger: logger}
}

// Search handles GET /api/remote/search
// Query parameters: q, category, sort, jlpt, wanikani, limit, offset, exact_match.
func (rc *RemoteController) Search(c *gin.Context) {
	args := immersionkit.SearchArgs{
		Query:      c.Query("q"),
		Category:   c.Query("category"),
		Sort:       c.Query("sort"),
		ExactMatch: c.Query("exact_match") == "true",
	}

	var ok bool
	if args.JLPT, ok = parseQueryInt(c, "jlpt", 0); !ok {
		return
	}
	if args.WaniKani, ok = parseQueryInt(c, "wanikani", 0); !ok {
		return
	}
	if args.Limit, ok = parseQueryInt(c, "limit", 0); !ok {
		return
	}
	if args.Offset, ok = parseQueryInt(c, "offset", 0); !ok {
		return
	}

	result, err := rc.search.RemoteSearch(c.Request.Context(), args)
	if err != nil {
		respondServiceError(c, rc.logger, err, "remote search")
		return
	}
	c.JSON(http.StatusOK, result)
}
