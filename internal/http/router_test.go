package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/notebridge/internal/database"
	"github.com/mrlokans/notebridge/internal/database/decks"
	"github.com/mrlokans/notebridge/internal/entities"
	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/importers"
	"github.com/mrlokans/notebridge/internal/profiles"
	"github.com/mrlokans/notebridge/internal/services"
	"github.com/mrlokans/notebridge/internal/tasks"
)

type testApp struct {
	router *gin.Engine
	dest   *database.Collection
	ids    []int64
}

const catalogResponse = `{"examples":[
	{"id":"ex-1","sentence":"元気です","sentence_with_furigana":"元気[げんき]です","translation":"I'm fine","image":"","sound":"","category":"anime","title":"Lucky Star","tags":[]},
	{"id":"ex-2","sentence":"元気","sentence_with_furigana":"元気[げんき]","translation":"fine","image":"","sound":"","category":"anime","title":"K-On","tags":[]}
]}`

// seedSourceProfile writes an "other" profile next to the active "main" one.
func seedSourceProfile(t *testing.T, base string) []int64 {
	t.Helper()
	ctx := context.Background()

	src, err := database.OpenCollection(filepath.Join(base, "other"), false)
	require.NoError(t, err)
	defer src.Close()

	basic, ok, err := src.SchemaByName(ctx, "Basic")
	require.NoError(t, err)
	require.True(t, ok)
	japanese, err := decks.NewRepository(src.Database().DB).GetOrCreate(ctx, "Japanese")
	require.NoError(t, err)

	ids, err := src.InsertBatch(ctx, &entities.ImportBatch{Source: entities.ImportSourceLocal}, []entities.PendingNote{
		{SchemaID: basic.ID, DeckID: japanese.ID, Fields: []string{"犬", "dog"}, Cards: []entities.Card{{}}},
		{SchemaID: basic.ID, DeckID: japanese.ID, Fields: []string{"大きい犬", "big dog"}, Cards: []entities.Card{{}}},
		{SchemaID: basic.ID, DeckID: japanese.ID, Fields: []string{"猫", "cat"}, Cards: []entities.Card{{}}},
	})
	require.NoError(t, err)
	return ids
}

func newTestApp(t *testing.T, withTasks bool) *testApp {
	t.Helper()
	base := t.TempDir()

	dest, err := database.OpenCollection(filepath.Join(base, "main"), false)
	require.NoError(t, err)
	t.Cleanup(func() { dest.Close() })
	ids := seedSourceProfile(t, base)

	manager := profiles.NewManager(base, "main")
	t.Cleanup(func() { manager.CloseAll() })

	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(catalogResponse))
	}))
	t.Cleanup(catalog.Close)
	client := immersionkit.NewClient(catalog.URL, time.Second)

	mapping := entities.DefaultRemoteFieldMapping()
	importer := importers.NewImporter(importers.DefaultOptions(), client, nil, nil)
	search := services.NewSearchService(services.SearchSettings{MaxResults: 50, SentenceField: "Front"}, client, mapping)
	imports := services.NewImportService(importer, dest, manager, mapping)

	cfg := RouterConfig{
		Collection: dest,
		Profiles:   manager,
		Search:     search,
		Imports:    imports,
		Version:    "test",
	}

	if withTasks {
		taskCfg := tasks.DefaultConfig()
		taskClient, err := tasks.NewClient(filepath.Join(base, "main", "collection.db"), taskCfg, nil)
		require.NoError(t, err)
		taskClient.Register(tasks.NewImportBatchQueue(imports, nil))

		ctx, cancel := context.WithCancel(context.Background())
		go taskClient.Start(ctx)
		t.Cleanup(func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			taskClient.Stop(stopCtx)
			cancel()
			taskClient.Close()
		})
		cfg.TaskClient = taskClient
	}

	return &testApp{router: NewRouter(cfg), dest: dest, ids: ids}
}

func (a *testApp) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRouter_Profiles(t *testing.T) {
	app := newTestApp(t, false)

	w := app.do(t, "GET", "/api/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"other"}, decode[map[string][]string](t, w)["profiles"])

	w = app.do(t, "GET", "/api/profiles/other/decks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Japanese"`)

	w = app.do(t, "GET", "/api/profiles/ghost/decks", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, "GET", "/api/profiles/main/decks", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, "GET", "/api/profiles/x..y/decks", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_profile_name")

	w = app.do(t, "GET", "/api/profiles/other/notes/"+strconv.FormatInt(app.ids[2], 10), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "猫")

	w = app.do(t, "GET", "/api/profiles/other/notes/999999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_LocalSearch(t *testing.T) {
	app := newTestApp(t, false)

	w := app.do(t, "GET", "/api/profiles/other/notes?deck=Japanese&q=dog&sort=length", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[services.LocalSearchResult](t, w)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Notes, 2)
	assert.Equal(t, app.ids[0], res.Notes[0].ID)

	w = app.do(t, "GET", "/api/profiles/other/notes", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "empty_query")

	w = app.do(t, "GET", "/api/profiles/other/notes?q=dog&sort=random", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, "GET", "/api/profiles/other/notes?q=dog&deck=Spanish", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ImportAndUndo(t *testing.T) {
	app := newTestApp(t, false)

	w := app.do(t, "POST", "/api/import/local", services.LocalImportRequest{
		Profile: "other",
		NoteIDs: app.ids,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[ImportResponse](t, w)
	assert.Equal(t, 3, res.Successes)
	require.NotEmpty(t, res.BatchID)
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, importers.OutcomeSuccess, res.Outcomes[0].Kind)
	assert.NotZero(t, res.Outcomes[0].NoteID)

	// Importing again only yields duplicates.
	w = app.do(t, "POST", "/api/import/local", services.LocalImportRequest{Profile: "other", NoteIDs: app.ids})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[ImportResponse](t, w).Duplicates)

	w = app.do(t, "GET", "/api/batches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	batches := decode[map[string][]entities.ImportBatch](t, w)["batches"]
	require.Len(t, batches, 1)
	assert.Equal(t, res.BatchID, batches[0].ID)
	assert.Equal(t, "other", batches[0].Profile)

	w = app.do(t, "GET", "/api/batches/"+res.BatchID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, "POST", "/api/batches/"+res.BatchID+"/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"notes_removed":3`)

	count, err := app.dest.Notes().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	w = app.do(t, "POST", "/api/batches/"+res.BatchID+"/undo", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, "GET", "/api/batches/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ImportErrors(t *testing.T) {
	app := newTestApp(t, false)

	w := app.do(t, "POST", "/api/import/local", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, "POST", "/api/import/local", services.LocalImportRequest{Profile: "other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no_notes_selected")

	w = app.do(t, "POST", "/api/import/local", services.LocalImportRequest{Profile: "other", NoteIDs: app.ids, DeckID: 4242})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_deck")

	w = app.do(t, "POST", "/api/import/remote", services.RemoteImportRequest{
		Examples: []immersionkit.Example{{ID: "ex-1", Sentence: "元気"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "schema_required")

	// Async routes only exist with a task queue.
	w = app.do(t, "POST", "/api/import/local/async", services.LocalImportRequest{Profile: "other", NoteIDs: app.ids})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RemoteSearchAndImport(t *testing.T) {
	app := newTestApp(t, false)
	ctx := context.Background()
	genki := url.QueryEscape("元気")

	w := app.do(t, "GET", "/api/remote/search?q="+genki+"&jlpt=9", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_arguments")

	w = app.do(t, "GET", "/api/remote/search?q="+genki+"&category=anime&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	found := decode[services.RemoteSearchResult](t, w)
	require.Len(t, found.Examples, 2)
	require.Len(t, found.Notes, 2)
	assert.Equal(t, []string{"Lucky_Star"}, found.Notes[0].Tags)

	schema, err := app.dest.CreateSchema(ctx, entities.SchemaDescriptor{
		Name:      "Sentence",
		Fields:    []string{"SentKanji", "SentFurigana", "SentEng", "SentAudio", "Image", "Notes"},
		Templates: []string{"Recognition"},
	})
	require.NoError(t, err)

	w = app.do(t, "POST", "/api/import/remote", services.RemoteImportRequest{
		Examples: found.Examples,
		SchemaID: schema.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[ImportResponse](t, w).Successes)

	w = app.do(t, "GET", "/api/collection/schemas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Sentence"`)

	w = app.do(t, "GET", "/api/collection/decks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current_deck_id":1`)
}

func TestRouter_AsyncImport(t *testing.T) {
	app := newTestApp(t, true)

	w := app.do(t, "POST", "/api/import/local/async", services.LocalImportRequest{Profile: "other", NoteIDs: app.ids[:1]})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var accepted struct {
		Data struct {
			TaskID string `json:"task_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.Data.TaskID)

	assert.Eventually(t, func() bool {
		w := app.do(t, "GET", "/api/tasks/"+accepted.Data.TaskID, nil)
		return w.Code == http.StatusOK && bytes.Contains(w.Body.Bytes(), []byte(`"status":"success"`))
	}, 5*time.Second, 25*time.Millisecond)

	count, err := app.dest.Notes().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	w = app.do(t, "POST", "/api/import/remote/async", services.RemoteImportRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t, false)

	w := app.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, "GET", "/ping", nil)
	assert.Contains(t, w.Body.String(), "pong")
}
