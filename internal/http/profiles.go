package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/notebridge/internal/profiles"
	"github.com/mrlokans/notebridge/internal/services"
)

// ProfilesController exposes the collections of other local profiles.
type ProfilesController struct {
	profiles *profiles.Manager
	search   *services.SearchService
	logger   *slog.Logger
}

func NewProfilesController(manager *profiles.Manager, search *services.SearchService, logger *slog.Logger) *ProfilesController {
	return &ProfilesController{profiles: manager, search: search, logger: logger}
}

// ListProfiles handles GET /api/profiles
func (pc *ProfilesController) ListProfiles(c *gin.Context) {
	names, err := pc.profiles.Profiles()
	if err != nil {
		respondInternalError(c, pc.logger, err, "list profiles")
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"profiles": names})
}

// ListDecks handles GET /api/profiles/:name/decks
func (pc *ProfilesController) ListDecks(c *gin.Context) {
	col, ok := pc.open(c)
	if !ok {
		return
	}

	decks, err := col.Decks(c.Request.Context())
	if err != nil {
		respondInternalError(c, pc.logger, err, "list source decks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"decks": decks})
}

// SearchNotes handles GET /api/profiles/:name/notes?deck=&q=&sort=
// An absent deck searches the whole collection.
func (pc *ProfilesController) SearchNotes(c *gin.Context) {
	order := profiles.SortOrder(c.Query("sort"))
	switch order {
	case profiles.SortNone, profiles.SortSentenceLength, profiles.SortNoteID:
	default:
		respondBadRequest(c, "sort must be one of: length, id")
		return
	}

	col, ok := pc.open(c)
	if !ok {
		return
	}

	result, err := pc.search.LocalSearch(c.Request.Context(), col, services.LocalSearchRequest{
		Deck:  c.Query("deck"),
		Query: c.Query("q"),
		Sort:  order,
	})
	if err != nil {
		respondServiceError(c, pc.logger, err, "local search")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetNote handles GET /api/profiles/:name/notes/:id
func (pc *ProfilesController) GetNote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	col, ok := pc.open(c)
	if !ok {
		return
	}

	note, err := col.GetNote(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, pc.logger, err, "get source note")
		return
	}
	c.JSON(http.StatusOK, note)
}

func (pc *ProfilesController) open(c *gin.Context) (*profiles.Collection, bool) {
	col, err := pc.profiles.Open(c.Param("name"))
	if err != nil {
		respondServiceError(c, pc.logger, err, "open profile")
		return nil, false
	}
	return col, true
}
