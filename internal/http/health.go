package http

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/notebridge/internal/database"
	"github.com/mrlokans/notebridge/internal/profiles"
)

// HealthResponse describes whether the active collection can take imports.
type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`

	Notes          int64      `json:"notes"`
	LastImportAt   *time.Time `json:"last_import_at,omitempty"`
	SourceProfiles []string   `json:"source_profiles"`
	SelectedSource string     `json:"selected_source,omitempty"`
}

func (r *HealthResponse) fail(check string, err error) {
	r.Checks[check] = "error: " + err.Error()
	r.Status = "unhealthy"
}

type HealthController struct {
	collection *database.Collection
	profiles   *profiles.Manager
	version    string
}

func NewHealthController(collection *database.Collection, manager *profiles.Manager, version string) *HealthController {
	return &HealthController{
		collection: collection,
		profiles:   manager,
		version:    version,
	}
}

// Status answers 503 when the destination collection or its media folder is
// unusable. Source profile problems are reported without failing the check.
func (h *HealthController) Status(c *gin.Context) {
	ctx := c.Request.Context()
	resp := HealthResponse{
		Status:         "healthy",
		Time:           time.Now().Format(time.RFC3339),
		Version:        h.version,
		Checks:         make(map[string]string),
		SourceProfiles: []string{},
	}

	h.checkCollection(ctx, &resp)
	h.checkProfiles(&resp)

	statusCode := http.StatusOK
	if resp.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.IndentedJSON(statusCode, resp)
}

func (h *HealthController) checkCollection(ctx context.Context, resp *HealthResponse) {
	if h.collection == nil {
		resp.Checks["collection"] = "not configured"
		return
	}

	count, err := h.collection.Notes().Count(ctx)
	if err != nil {
		resp.fail("collection", err)
		return
	}
	resp.Notes = count
	resp.Checks["collection"] = "ok"

	if batches, err := h.collection.Notes().Batches(ctx, 1); err == nil && len(batches) > 0 {
		resp.LastImportAt = &batches[0].CreatedAt
	}

	if info, err := os.Stat(h.collection.Media().Dir()); err != nil {
		resp.fail("media", err)
	} else if !info.IsDir() {
		resp.Checks["media"] = "error: not a directory"
		resp.Status = "unhealthy"
	} else {
		resp.Checks["media"] = "ok"
	}
}

func (h *HealthController) checkProfiles(resp *HealthResponse) {
	if h.profiles == nil {
		resp.Checks["profiles"] = "not configured"
		return
	}

	names, err := h.profiles.Profiles()
	if err != nil {
		resp.Checks["profiles"] = "error: " + err.Error()
		return
	}
	if names != nil {
		resp.SourceProfiles = names
	}
	resp.Checks["profiles"] = "ok"

	if col, err := h.profiles.Current(); err == nil {
		resp.SelectedSource = col.Name()
	}
}
