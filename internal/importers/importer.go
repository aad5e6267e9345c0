package importers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/mrlokans/notebridge/internal/entities"
)

var (
	// ErrSchemaRequired is returned for a remote batch without an explicit schema.
	ErrSchemaRequired = errors.New("a destination note type must be selected to import remote notes")

	ErrUnknownSchema  = errors.New("destination note type does not exist")
	ErrUnknownDeck    = errors.New("destination deck does not exist")
	ErrEmptyBatch     = errors.New("no notes to import")
	ErrMixedBatch     = errors.New("a batch cannot mix local and remote notes")
	ErrSourceRequired = errors.New("local notes require an open source collection")
)

const leechTag = "leech"

// State is a step of the import state machine.
type State string

const (
	StateIdle            State = "idle"
	StateDispatching     State = "dispatching"
	StateAwaitingWorkers State = "awaiting_workers"
	StateCommitting      State = "committing"
	StateDone            State = "done"
	StateFaulted         State = "faulted"
)

type OutcomeKind string

const (
	OutcomeSuccess         OutcomeKind = "success"
	OutcomeDuplicate       OutcomeKind = "duplicate"
	OutcomeConnectionError OutcomeKind = "error"
)

// Outcome is what happened to a single candidate.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	NoteID int64       `json:"note_id,omitempty"`
	Err    error       `json:"-"`
}

// Result tallies a batch. Outcomes follow the order of the submitted
// candidates; Successes+Duplicates+Errors always equals their number.
type Result struct {
	BatchID    string                  `json:"batch_id,omitempty"`
	Successes  int                     `json:"successes"`
	Duplicates int                     `json:"duplicates"`
	Errors     int                     `json:"errors"`
	Outcomes   []Outcome               `json:"outcomes"`
	Inserted   []entities.InsertedNote `json:"inserted"`
}

// ProgressFunc receives the number of finished candidates. Calls are serialized.
type ProgressFunc func(done, total int)

// Options tune how notes are constructed.
type Options struct {
	Workers        int
	SkipDuplicates bool
	CopyTags       bool
	CopyCardData   bool
	// ExportedTag is added to every exported source note. Empty disables it.
	ExportedTag string
	CallHook    bool
}

func DefaultOptions() Options {
	return Options{
		Workers:        5,
		SkipDuplicates: true,
		CopyTags:       true,
		CopyCardData:   true,
		ExportedTag:    "exported",
		CallHook:       true,
	}
}

// Request is one user-initiated batch.
type Request struct {
	Destination Destination
	// Source is required when the candidates are local notes.
	Source     SourceCollection
	Candidates []entities.Candidate
	// SchemaID is a destination schema ID or entities.AutoSchemaID.
	SchemaID int64
	// DeckID of 0 selects the destination's current deck.
	DeckID int64

	Progress ProgressFunc
	// OnState observes state transitions.
	OnState func(State)
}

// Importer runs import batches. One Importer is shared by every caller so
// that batches into the same destination are serialized.
type Importer struct {
	opts     Options
	fetcher  MediaFetcher
	notifier Notifier
	logger   *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewImporter(opts Options, fetcher MediaFetcher, notifier Notifier, logger *slog.Logger) *Importer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Importer{
		opts:     opts,
		fetcher:  fetcher,
		notifier: notifier,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Options returns the importer's construction options.
func (imp *Importer) Options() Options {
	return imp.opts
}

func (imp *Importer) destinationLock(key string) *sync.Mutex {
	imp.locksMu.Lock()
	defer imp.locksMu.Unlock()

	mu, ok := imp.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		imp.locks[key] = mu
	}
	return mu
}

// batch holds everything resolved during Dispatching.
type batch struct {
	req        Request
	source     entities.ImportSource
	deckID     int64
	dayOffset  int
	reconciler *Reconciler
	detector   *DuplicateDetector
	media      *MediaSynchronizer
}

// draft is a destination note under construction. Its field buffer is owned
// by one worker and never aliases the source note.
type draft struct {
	schema entities.SchemaDescriptor
	fields []string
	tags   []string
	cards  []entities.Card
	media  []entities.MediaAsset

	sourceNoteID int64
	exampleID    string
}

type taskResult struct {
	index   int
	outcome Outcome
	draft   *draft
}

// Import runs one batch to completion. Only precondition failures and a
// failed commit are returned as errors; per-note problems are reported in
// the Result.
func (imp *Importer) Import(ctx context.Context, req Request) (*Result, error) {
	setState := func(s State) {
		imp.logger.Debug("Import state changed", "state", s)
		if req.OnState != nil {
			req.OnState(s)
		}
	}
	setState(StateIdle)
	setState(StateDispatching)

	if req.Destination == nil {
		setState(StateFaulted)
		return nil, errors.New("destination collection is required")
	}

	lock := imp.destinationLock(req.Destination.Key())
	lock.Lock()
	defer lock.Unlock()

	b, err := imp.dispatch(ctx, req)
	if err != nil {
		setState(StateFaulted)
		return nil, err
	}

	setState(StateAwaitingWorkers)
	results := imp.construct(ctx, b)

	setState(StateCommitting)
	result, err := imp.commit(ctx, b, results)
	if err != nil {
		setState(StateDone)
		return result, err
	}

	setState(StateDone)
	imp.notify(ctx, result.Inserted)
	return result, nil
}

func (imp *Importer) dispatch(ctx context.Context, req Request) (*batch, error) {
	if len(req.Candidates) == 0 {
		return nil, ErrEmptyBatch
	}

	var local, remote int
	for _, c := range req.Candidates {
		switch c.(type) {
		case *entities.LocalNote:
			local++
		case *entities.RemoteNote:
			remote++
		default:
			return nil, fmt.Errorf("unsupported candidate type %T", c)
		}
	}
	if local > 0 && remote > 0 {
		return nil, ErrMixedBatch
	}

	b := &batch{req: req, source: entities.ImportSourceLocal}
	dest := req.Destination

	if remote > 0 {
		b.source = entities.ImportSourceRemote
		if req.SchemaID == entities.AutoSchemaID {
			return nil, ErrSchemaRequired
		}
	} else if req.Source == nil {
		return nil, ErrSourceRequired
	}

	if req.SchemaID != entities.AutoSchemaID {
		_, ok, err := dest.SchemaByID(ctx, req.SchemaID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up note type: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownSchema, req.SchemaID)
		}
	}

	b.deckID = req.DeckID
	if b.deckID == 0 {
		current, err := dest.CurrentDeckID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read current deck: %w", err)
		}
		b.deckID = current
	}
	if _, ok, err := dest.DeckByID(ctx, b.deckID); err != nil {
		return nil, fmt.Errorf("failed to look up deck: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDeck, b.deckID)
	}

	if b.source == entities.ImportSourceLocal && imp.opts.CopyCardData {
		srcCreated, err := req.Source.CreatedAt(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read source creation time: %w", err)
		}
		dstCreated, err := dest.CreatedAt(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read destination creation time: %w", err)
		}
		b.dayOffset = DayOffset(srcCreated, dstCreated)
	}

	b.reconciler = NewReconciler(dest)
	b.detector = NewDuplicateDetector(dest)
	b.media = NewMediaSynchronizer(dest, imp.fetcher, imp.logger)
	return b, nil
}

// construct fans the candidates out to the worker pool and waits for all of
// them. Results come back indexed by candidate position.
func (imp *Importer) construct(ctx context.Context, b *batch) []taskResult {
	total := len(b.req.Candidates)

	var (
		progressMu sync.Mutex
		done       int
	)
	report := func() {
		if b.req.Progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		b.req.Progress(done, total)
	}

	p := pool.NewWithResults[taskResult]().WithMaxGoroutines(imp.opts.Workers)
	for i, c := range b.req.Candidates {
		p.Go(func() taskResult {
			defer report()
			outcome, d := imp.buildNote(ctx, b, c)
			return taskResult{index: i, outcome: outcome, draft: d}
		})
	}

	ordered := make([]taskResult, total)
	for _, r := range p.Wait() {
		ordered[r.index] = r
	}
	return ordered
}

// buildNote runs the per-candidate pipeline. It always yields exactly one outcome.
func (imp *Importer) buildNote(ctx context.Context, b *batch, c entities.Candidate) (Outcome, *draft) {
	if err := ctx.Err(); err != nil {
		return failed(err), nil
	}

	schema, err := b.reconciler.Resolve(ctx, b.req.SchemaID, c)
	if err != nil {
		return failed(err), nil
	}

	d := &draft{
		schema: schema,
		fields: make([]string, len(schema.Fields)),
	}
	for i, name := range schema.Fields {
		if v, ok := c.Field(name); ok {
			d.fields[i] = v
		}
	}
	if imp.opts.CopyTags {
		for _, tag := range c.TagList() {
			if !strings.EqualFold(tag, leechTag) {
				d.tags = append(d.tags, tag)
			}
		}
	}

	local, isLocal := c.(*entities.LocalNote)
	if isLocal {
		d.sourceNoteID = local.ID
		if imp.opts.ExportedTag != "" {
			if err := b.req.Source.AddTag(ctx, local.ID, imp.opts.ExportedTag); err != nil {
				imp.logger.Warn("Failed to tag exported source note", "note_id", local.ID, "error", err)
			}
		}
	} else if remote, ok := c.(*entities.RemoteNote); ok {
		d.exampleID = remote.ExampleID
	}

	if imp.opts.SkipDuplicates {
		dup, err := b.detector.IsDuplicate(ctx, d.fields, schema)
		if err != nil {
			return failed(err), nil
		}
		if dup {
			return Outcome{Kind: OutcomeDuplicate}, nil
		}
	}

	var mediaDir string
	if isLocal {
		mediaDir = b.req.Source.MediaDir()
	}
	if err := b.media.Sync(ctx, d, c, mediaDir); err != nil {
		return failed(err), nil
	}

	d.cards = newCards(schema, b.deckID)
	if isLocal && imp.opts.CopyCardData {
		TransplantAll(d.cards, local.Cards, b.dayOffset)
	}

	return Outcome{Kind: OutcomeSuccess}, d
}

func failed(err error) Outcome {
	return Outcome{Kind: OutcomeConnectionError, Err: err}
}

// commit inserts every successful draft as one batch. When the context is
// already cancelled nothing is written and the drafts count as errors.
func (imp *Importer) commit(ctx context.Context, b *batch, results []taskResult) (*Result, error) {
	result := &Result{Outcomes: make([]Outcome, len(results))}

	var (
		pending []entities.PendingNote
		drafts  []*draft
		slots   []int
	)
	for i, r := range results {
		result.Outcomes[i] = r.outcome
		if r.outcome.Kind == OutcomeSuccess {
			pending = append(pending, entities.PendingNote{
				SchemaID: r.draft.schema.ID,
				DeckID:   b.deckID,
				Fields:   r.draft.fields,
				Tags:     r.draft.tags,
				Cards:    r.draft.cards,
			})
			drafts = append(drafts, r.draft)
			slots = append(slots, i)
		}
	}

	var commitErr error
	if len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			commitErr = err
		}
	}

	if len(pending) > 0 && commitErr == nil {
		record := &entities.ImportBatch{
			Source:   b.source,
			DeckID:   b.deckID,
			SchemaID: drafts[0].schema.ID,
		}
		if b.req.Source != nil {
			record.Profile = b.req.Source.Name()
		}
		record.Successes, record.Duplicates, record.Errors = tally(result.Outcomes)

		ids, err := b.req.Destination.InsertBatch(ctx, record, pending)
		if err != nil {
			commitErr = fmt.Errorf("failed to commit import batch: %w", err)
		} else {
			result.BatchID = record.ID
			for j, id := range ids {
				result.Outcomes[slots[j]].NoteID = id
				result.Inserted = append(result.Inserted, inserted(id, record.ID, b.deckID, drafts[j]))
			}
		}
	}

	if commitErr != nil {
		for _, slot := range slots {
			result.Outcomes[slot] = failed(commitErr)
		}
	}

	result.Successes, result.Duplicates, result.Errors = tally(result.Outcomes)
	for i, o := range result.Outcomes {
		if o.Kind == OutcomeConnectionError {
			imp.logger.Warn("Note import failed", "candidate", i, "error", o.Err)
		}
	}
	imp.logger.Info("Import batch finished",
		"batch_id", result.BatchID,
		"source", b.source,
		"successes", result.Successes,
		"duplicates", result.Duplicates,
		"errors", result.Errors,
	)

	if commitErr != nil && !errors.Is(commitErr, context.Canceled) && !errors.Is(commitErr, context.DeadlineExceeded) {
		return result, commitErr
	}
	return result, nil
}

func tally(outcomes []Outcome) (successes, duplicates, errs int) {
	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeSuccess:
			successes++
		case OutcomeDuplicate:
			duplicates++
		default:
			errs++
		}
	}
	return successes, duplicates, errs
}

func inserted(id int64, batchID string, deckID int64, d *draft) entities.InsertedNote {
	fields := make([]entities.FieldValue, len(d.fields))
	for i, v := range d.fields {
		fields[i] = entities.FieldValue{Name: d.schema.Fields[i], Value: v}
	}
	return entities.InsertedNote{
		ID:           id,
		BatchID:      batchID,
		SchemaID:     d.schema.ID,
		DeckID:       deckID,
		Fields:       fields,
		Tags:         d.tags,
		Media:        d.media,
		SourceNoteID: d.sourceNoteID,
		ExampleID:    d.exampleID,
	}
}

func (imp *Importer) notify(ctx context.Context, notes []entities.InsertedNote) {
	if !imp.opts.CallHook || imp.notifier == nil {
		return
	}
	for _, n := range notes {
		imp.notifier.NoteAdded(ctx, n)
	}
}
