package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/notebridge/internal/entrypoint"
)

func batchesCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List recent import batches",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(app *entrypoint.App, cmd *cobra.Command, args []string) error {
			batches, err := app.Destination.Notes().Batches(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			defer tw.Flush()
			fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tADDED\tDUPLICATES\tERRORS\tUNDONE")
			for _, b := range batches {
				undone := ""
				if b.UndoneAt != nil {
					undone = b.UndoneAt.Local().Format(time.DateTime)
				}
				source := string(b.Source)
				if b.Profile != "" {
					source += ":" + b.Profile
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					b.ID, b.CreatedAt.Local().Format(time.DateTime), source, b.Successes, b.Duplicates, b.Errors, undone)
			}
			return nil
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of batches to show")
	return cmd
}

func undoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <batch-id>",
		Short: "Remove every note added by an import batch",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(app *entrypoint.App, cmd *cobra.Command, args []string) error {
			removed, err := app.Destination.UndoBatch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d notes from batch %s\n", removed, args[0])
			return nil
		}),
	}
}
