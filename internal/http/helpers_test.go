package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/notebridge/internal/database/notes"
	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/importers"
	"github.com/mrlokans/notebridge/internal/profiles"
	"github.com/mrlokans/notebridge/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseIDParam_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "123"}}

	id, ok := parseIDParam(c, "id")

	assert.True(t, ok)
	assert.Equal(t, int64(123), id)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIDParam_Invalid(t *testing.T) {
	for _, value := range []string{"abc", "-1", "0"} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: value}}

		id, ok := parseIDParam(c, "id")

		assert.False(t, ok, value)
		assert.Zero(t, id)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid id")
	}
}

func TestParseQueryInt(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?limit=25&bad=x", nil)

	v, ok := parseQueryInt(c, "limit", 10)
	assert.True(t, ok)
	assert.Equal(t, 25, v)

	v, ok = parseQueryInt(c, "offset", 7)
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = parseQueryInt(c, "bad", 0)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"schema required", importers.ErrSchemaRequired, http.StatusBadRequest, "schema_required"},
		{"wrapped empty query", fmt.Errorf("search: %w", services.ErrEmptyQuery), http.StatusBadRequest, "empty_query"},
		{"current profile", profiles.ErrCurrentProfile, http.StatusBadRequest, "current_profile"},
		{"profile outside base", fmt.Errorf("%w: \"..\"", profiles.ErrInvalidProfileName), http.StatusBadRequest, "invalid_profile_name"},
		{"invalid search args", fmt.Errorf("%w: bad jlpt", immersionkit.ErrInvalidArguments), http.StatusBadRequest, "invalid_arguments"},
		{"unknown deck", importers.ErrUnknownDeck, http.StatusNotFound, "unknown_deck"},
		{"missing profile", fmt.Errorf("%w: /x", profiles.ErrCollectionNotFound), http.StatusNotFound, "profile_not_found"},
		{"missing batch", notes.ErrBatchNotFound, http.StatusNotFound, "batch_not_found"},
		{"batch undone", notes.ErrBatchUndone, http.StatusConflict, "batch_undone"},
		{"catalog down", fmt.Errorf("max retries exceeded: %w", &immersionkit.ServerError{StatusCode: 503}), http.StatusBadGateway, "remote_error"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondServiceError(c, logger, tt.err, "test")

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), `"code":"`+tt.code+`"`)
			} else {
				assert.Contains(t, w.Body.String(), "internal server error")
				assert.NotContains(t, w.Body.String(), "disk on fire")
				assert.Contains(t, logs.String(), "disk on fire")
			}
		})
	}
}
