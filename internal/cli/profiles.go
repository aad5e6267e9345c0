package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/notebridge/internal/entrypoint"
)

func profilesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List profiles that notes can be imported from",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(app *entrypoint.App, cmd *cobra.Command, args []string) error {
			names, err := app.Profiles.Profiles()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintf(out, "No other profiles found in %s\n", app.Profiles.BaseDir())
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		}),
	}
}

func decksCmd(opts *rootOptions) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "decks",
		Short: "List decks of a source profile or of the active collection",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(app *entrypoint.App, cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tw := newTable(cmd.OutOrStdout())
			defer tw.Flush()

			if from != "" {
				src, err := app.Profiles.Open(from)
				if err != nil {
					return err
				}
				decks, err := src.Decks(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "ID\tNAME")
				for _, d := range decks {
					fmt.Fprintf(tw, "%d\t%s\n", d.ID, d.Name)
				}
				return nil
			}

			decks, err := app.Destination.Decks(ctx)
			if err != nil {
				return err
			}
			current, err := app.Destination.CurrentDeckID(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "ID\tNAME\tCURRENT")
			for _, d := range decks {
				mark := ""
				if d.ID == current {
					mark = "*"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", d.ID, d.Name, mark)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "source profile (default: the active collection)")
	return cmd
}
