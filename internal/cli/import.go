package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mrlokans/notebridge/internal/entrypoint"
	"github.com/mrlokans/notebridge/internal/importers"
	"github.com/mrlokans/notebridge/internal/services"
)

// importTarget selects where imported notes go.
type importTarget struct {
	schemaID int64
	deckID   int64
}

func (t *importTarget) bind(cmd *cobra.Command, schemaHelp string) {
	cmd.Flags().Int64Var(&t.schemaID, "schema", 0, schemaHelp)
	cmd.Flags().Int64Var(&t.deckID, "target-deck", 0, "destination deck id (default: the current deck)")
}

func newProgress(w io.Writer, total int, description string) importers.ProgressFunc {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
	return func(done, total int) {
		_ = bar.Set(done)
		if done == total {
			_ = bar.Finish()
		}
	}
}

func importCmd(opts *rootOptions) *cobra.Command {
	var (
		local  localSearchFlags
		target importTarget
		ids    []int64
	)

	cmd := &cobra.Command{
		Use:   "import [query]",
		Short: "Import notes from another profile",
		Long: `Imports the notes given by --ids from the source profile. Without --ids,
every note the query matches (up to max_displayed_notes) is imported.`,
		Example: `  notebridge import --from "User 2" --ids 1690000000001,1690000000002
  notebridge import --from "User 2" --deck Vocab "tag:n5"`,
		RunE: withApp(opts, func(app *entrypoint.App, cmd *cobra.Command, args []string) error {
			if local.from == "" {
				return fmt.Errorf("a source profile is required (--from)")
			}

			if len(ids) == 0 {
				found, err := runLocalSearch(app, cmd, &local, strings.Join(args, " "))
				if err != nil {
					return err
				}
				for _, n := range found.Notes {
					ids = append(ids, n.ID)
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No notes matched")
					return nil
				}
			}

			req := services.LocalImportRequest{
				Profile:  local.from,
				NoteIDs:  ids,
				SchemaID: target.schemaID,
				DeckID:   target.deckID,
			}
			result, err := app.Imports.ImportLocal(cmd.Context(), req, newProgress(cmd.ErrOrStderr(), len(ids), "Importing notes"))
			if result != nil {
				printResult(cmd.OutOrStdout(), result)
			}
			if err == nil && cmd.Context().Err() != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled, nothing was added")
			}
			return err
		}),
	}

	local.bind(cmd.Flags())
	target.bind(cmd, "destination note type id (default: match or clone the source note type)")
	cmd.Flags().Int64SliceVar(&ids, "ids", nil, "source note ids to import")
	return cmd
}

func remoteImportCmd(opts *rootOptions) *cobra.Command {
	var (
		remote remoteSearchFlags
		target importTarget
		picks  []int
	)

	cmd := &cobra.Command{
		Use:   "remote-import <query>",
		Short: "Search the catalog and import the chosen examples",
		Example: `  notebridge remote-import 元気 --schema 1690000000000 --pick 1,3
  notebridge remote-import 猫 --category anime --limit 5 --schema 1690000000000`,
		Args: cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(app *entrypoint.App, cmd *cobra.Command, args []string) error {
			if target.schemaID == 0 {
				return importers.ErrSchemaRequired
			}

			found, err := app.Search.RemoteSearch(cmd.Context(), remote.args(strings.Join(args, " ")))
			if err != nil {
				return err
			}
			examples, err := pickExamples(found.Examples, picks)
			if err != nil {
				return err
			}
			if len(examples) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No examples matched")
				return nil
			}

			req := services.RemoteImportRequest{
				Examples: examples,
				SchemaID: target.schemaID,
				DeckID:   target.deckID,
			}
			result, err := app.Imports.ImportRemote(cmd.Context(), req, newProgress(cmd.ErrOrStderr(), len(examples), "Downloading examples"))
			if result != nil {
				printResult(cmd.OutOrStdout(), result)
			}
			return err
		}),
	}

	remote.bind(cmd.Flags())
	target.bind(cmd, "destination note type id (required)")
	cmd.Flags().IntSliceVar(&picks, "pick", nil, "1-based positions of the examples to import (default: all shown)")
	return cmd
}

// pickExamples selects examples by their 1-based position in the listing.
func pickExamples[T any](items []T, picks []int) ([]T, error) {
	if len(picks) == 0 {
		return items, nil
	}
	out := make([]T, 0, len(picks))
	for _, p := range picks {
		if p < 1 || p > len(items) {
			return nil, fmt.Errorf("pick %d is out of range 1-%d", p, len(items))
		}
		out = append(out, items[p-1])
	}
	return out, nil
}
