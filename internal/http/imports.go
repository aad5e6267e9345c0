package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/notebridge/internal/importers"
	"github.com/mrlokans/notebridge/internal/services"
	"github.com/mrlokans/notebridge/internal/tasks"
)

// OutcomeView is one candidate's outcome as returned by the API.
type OutcomeView struct {
	Kind   importers.OutcomeKind `json:"kind"`
	NoteID int64                 `json:"note_id,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// ImportResponse summarises a finished import batch.
type ImportResponse struct {
	BatchID    string        `json:"batch_id,omitempty"`
	Successes  int           `json:"successes"`
	Duplicates int           `json:"duplicates"`
	Errors     int           `json:"errors"`
	Outcomes   []OutcomeView `json:"outcomes"`
}

func newImportResponse(r *importers.Result) ImportResponse {
	resp := ImportResponse{
		BatchID:    r.BatchID,
		Successes:  r.Successes,
		Duplicates: r.Duplicates,
		Errors:     r.Errors,
		Outcomes:   make([]OutcomeView, len(r.Outcomes)),
	}
	for i, o := range r.Outcomes {
		resp.Outcomes[i] = OutcomeView{Kind: o.Kind, NoteID: o.NoteID}
		if o.Err != nil {
			resp.Outcomes[i].Error = o.Err.Error()
		}
	}
	return resp
}

// ImportsController runs import batches, either inline or on the task queue.
type ImportsController struct {
	imports *services.ImportService
	tasks   *tasks.Client
	logger  *slog.Logger
}

func NewImportsController(imports *services.ImportService, taskClient *tasks.Client, logger *slog.Logger) *ImportsController {
	return &ImportsController{imports: imports, tasks: taskClient, logger: logger}
}

// ImportLocal handles POST /api/import/local
func (ic *ImportsController) ImportLocal(c *gin.Context) {
	var req services.LocalImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := ic.imports.ImportLocal(c.Request.Context(), req, nil)
	ic.respond(c, result, err, "local import")
}

// ImportRemote handles POST /api/import/remote
func (ic *ImportsController) ImportRemote(c *gin.Context) {
	var req services.RemoteImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := ic.imports.ImportRemote(c.Request.Context(), req, nil)
	ic.respond(c, result, err, "remote import")
}

// EnqueueLocal handles POST /api/import/local/async
func (ic *ImportsController) EnqueueLocal(c *gin.Context) {
	var req services.LocalImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.NoteIDs) == 0 {
		respondServiceError(c, ic.logger, services.ErrNoNotesSelected, "enqueue local import")
		return
	}
	ic.enqueue(c, tasks.ImportBatchTask{Local: &req})
}

// EnqueueRemote handles POST /api/import/remote/async
func (ic *ImportsController) EnqueueRemote(c *gin.Context) {
	var req services.RemoteImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Examples) == 0 {
		respondServiceError(c, ic.logger, services.ErrNoNotesSelected, "enqueue remote import")
		return
	}
	ic.enqueue(c, tasks.ImportBatchTask{Remote: &req})
}

func (ic *ImportsController) enqueue(c *gin.Context, task tasks.ImportBatchTask) {
	id, err := ic.tasks.Enqueue(task)
	if err != nil {
		respondInternalError(c, ic.logger, err, "enqueue import")
		return
	}
	respondAccepted(c, "import enqueued", gin.H{
		"task_id": id,
		"queue":   tasks.ImportBatchQueue,
	})
}

func (ic *ImportsController) respond(c *gin.Context, result *importers.Result, err error, context string) {
	if err != nil {
		respondServiceError(c, ic.logger, err, context)
		return
	}
	c.JSON(http.StatusOK, newImportResponse(result))
}
