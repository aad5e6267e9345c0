// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Collection Interfaces
//
//   - SourceCollection: another profile's collection notes are copied from (internal/importers/interfaces.go)
//   - Destination: the active collection notes are imported into (internal/importers/interfaces.go)
//   - NoteFinder: read side of a source collection used by search (internal/services/interfaces.go)
//   - ProfileOpener: opens source profiles by name (internal/services/interfaces.go)
//
// ## External Service Interfaces
//
//   - MediaFetcher: downloads remote media (internal/importers/interfaces.go)
//   - ExampleSearcher: queries the remote sentence catalog (internal/services/interfaces.go)
//
// ## Notification Interfaces
//
//   - Notifier: told about every note an import committed (internal/importers/interfaces.go)
//
// ## Background Task Interfaces
//
//   - BatchImporter: runs an import batch from the task queue (internal/tasks/import_batch.go)
//
// # Adding a New Notifier
//
// To push added notes somewhere new (e.g. a message queue):
//
//  1. Implement Notifier in internal/hooks/
//
//     type QueueNotifier struct {
//         publisher Publisher
//     }
//
//     func (n *QueueNotifier) NoteAdded(ctx context.Context, note entities.InsertedNote) {
//         // Publish; never fail the import
//     }
//
//     var _ importers.Notifier = (*QueueNotifier)(nil)
//
//  2. Append it to the hooks.Multi built in internal/entrypoint/app.go
//
// # Adding a New Remote Catalog
//
//  1. Implement a client with Search and Download
//
//     func (c *OtherCatalog) Search(ctx context.Context, args immersionkit.SearchArgs) ([]immersionkit.Example, error)
//     func (c *OtherCatalog) Download(ctx context.Context, url string) ([]byte, error)
//
//  2. Pass it to services.NewSearchService and importers.NewImporter in entrypoint
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
