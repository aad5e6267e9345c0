// Package database is the destination collection: the store notes are
// imported into.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup, migrations, collection seeding
//	├── collection.go    # Collection: the store used by the importer
//	├── notetypes/       # Note type (schema) lookups and creation
//	├── decks/           # Deck lookups and creation
//	└── notes/           # Note and card inserts, duplicate lookups, batch undo
//
// # Usage
//
//	db, err := database.NewDatabase("./profiles/main/collection.db", false)
//	col, err := database.NewCollection(db, "./profiles/main/collection.media")
//
//	schemas, err := col.Schemas(ctx)
//	ids, err := col.InsertBatch(ctx, batch, pending)
//
// Every note and card inserted by InsertBatch carries the batch ID; UndoBatch
// removes them again in one transaction.
package database
