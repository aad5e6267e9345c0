package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/notebridge/internal/database/notes"
	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/importers"
	"github.com/mrlokans/notebridge/internal/profiles"
	"github.com/mrlokans/notebridge/internal/services"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, logger *slog.Logger, err error, context string) {
	logger.Error("Internal error", "context", context, "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// errorStatus classifies an error returned by the services.
type errorStatus struct {
	status int
	code   string
}

var knownErrors = []struct {
	err error
	errorStatus
}{
	{importers.ErrSchemaRequired, errorStatus{http.StatusBadRequest, "schema_required"}},
	{importers.ErrEmptyBatch, errorStatus{http.StatusBadRequest, "empty_batch"}},
	{importers.ErrMixedBatch, errorStatus{http.StatusBadRequest, "mixed_batch"}},
	{importers.ErrSourceRequired, errorStatus{http.StatusBadRequest, "source_required"}},
	{services.ErrEmptyQuery, errorStatus{http.StatusBadRequest, "empty_query"}},
	{services.ErrNoNotesSelected, errorStatus{http.StatusBadRequest, "no_notes_selected"}},
	{profiles.ErrCurrentProfile, errorStatus{http.StatusBadRequest, "current_profile"}},
	{profiles.ErrInvalidProfileName, errorStatus{http.StatusBadRequest, "invalid_profile_name"}},
	{immersionkit.ErrInvalidArguments, errorStatus{http.StatusBadRequest, "invalid_arguments"}},
	{importers.ErrUnknownSchema, errorStatus{http.StatusNotFound, "unknown_schema"}},
	{importers.ErrUnknownDeck, errorStatus{http.StatusNotFound, "unknown_deck"}},
	{services.ErrUnknownDeck, errorStatus{http.StatusNotFound, "unknown_source_deck"}},
	{profiles.ErrCollectionNotFound, errorStatus{http.StatusNotFound, "profile_not_found"}},
	{profiles.ErrNoteNotFound, errorStatus{http.StatusNotFound, "note_not_found"}},
	{notes.ErrBatchNotFound, errorStatus{http.StatusNotFound, "batch_not_found"}},
	{notes.ErrBatchUndone, errorStatus{http.StatusConflict, "batch_undone"}},
	{immersionkit.ErrRateLimited, errorStatus{http.StatusBadGateway, "remote_rate_limited"}},
}

// respondServiceError maps precondition faults to 4xx responses and
// everything else to 500.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, context string) {
	for _, known := range knownErrors {
		if errors.Is(err, known.err) {
			c.JSON(known.status, ErrorResponse{Error: err.Error(), Code: known.code})
			return
		}
	}

	var serverErr *immersionkit.ServerError
	if errors.As(err, &serverErr) {
		logger.Warn("Remote catalog failed", "context", context, "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "remote_error"})
		return
	}

	respondInternalError(c, logger, err, context)
}

// --- Success Response Helpers ---

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates a positive integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return id, true
}

// parseQueryInt reads an optional integer query parameter.
// Returns def when the parameter is absent, or responds with a 400 error.
func parseQueryInt(c *gin.Context, paramName string, def int) (int, bool) {
	raw := c.Query(paramName)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return v, true
}
