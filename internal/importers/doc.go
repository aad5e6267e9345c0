// Package importers copies notes from another collection, or from the remote
// sentence catalog, into the active collection.
//
// # Architecture
//
// An import batch flows through a fixed sequence of states:
//
//	Idle → Dispatching → AwaitingWorkers → Committing → Done
//	            ↓
//	         Faulted
//
// Dispatching validates the request. Precondition failures (no schema for a
// remote batch, unknown deck, empty batch) fault the whole batch before any
// work starts and are the only errors Import returns for bad input.
//
// AwaitingWorkers builds one destination note per candidate on a bounded
// pool. Every worker runs the same steps:
//
//	Reconciler.Resolve      → destination schema (reuse or clone)
//	populate fields by name → owned field buffer
//	DuplicateDetector       → stop early on a first-field collision
//	MediaSynchronizer       → copy or download media, rewrite references
//	TransplantAll           → carry scheduling state over (local notes)
//
// and yields exactly one Outcome. Duplicates and failures are counted, never
// raised.
//
// Committing inserts every successful draft in one transaction tagged with a
// fresh batch ID, which is what makes the batch undoable as a unit.
//
// # Known limitation
//
// Duplicate checks read the destination while sibling workers are still
// running and nothing is written until the commit. Two near-identical
// candidates in the same batch can therefore both pass the check.
//
// # Example Usage
//
//	imp := importers.NewImporter(importers.DefaultOptions(), client, notifier, logger)
//	result, err := imp.Import(ctx, importers.Request{
//		Destination: collection,
//		Source:      other,
//		Candidates:  notes,
//		SchemaID:    entities.AutoSchemaID,
//	})
package importers
