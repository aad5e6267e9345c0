package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mrlokans/notebridge/internal/entrypoint"
	"github.com/mrlokans/notebridge/internal/immersionkit"
	"github.com/mrlokans/notebridge/internal/profiles"
	"github.com/mrlokans/notebridge/internal/services"
)

const previewWidth = 80

type localSearchFlags struct {
	from string
	deck string
	sort string
}

func (f *localSearchFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.from, "from", "", "source profile to search")
	fs.StringVar(&f.deck, "deck", "", "deck name (default: whole collection)")
	fs.StringVar(&f.sort, "sort", "", "result order: length or id")
}

func (f *localSearchFlags) request(query string) (services.LocalSearchRequest, error) {
	order := profiles.SortOrder(f.sort)
	switch order {
	case profiles.SortNone, profiles.SortSentenceLength, profiles.SortNoteID:
	default:
		return services.LocalSearchRequest{}, fmt.Errorf("unknown sort order %q", f.sort)
	}
	return services.LocalSearchRequest{Deck: f.deck, Query: query, Sort: order}, nil
}

// runLocalSearch opens the source profile and searches it.
func runLocalSearch(app *entrypoint.App, cmd *cobra.Command, f *localSearchFlags, query string) (*services.LocalSearchResult, error) {
	if f.from == "" {
		return nil, fmt.Errorf("a source profile is required (--from)")
	}
	req, err := f.request(query)
	if err != nil {
		return nil, err
	}
	src, err := app.Profiles.Open(f.from)
	if err != nil {
		return nil, err
	}
	return app.Search.LocalSearch(cmd.Context(), src, req)
}

func searchCmd(opts *rootOptions) *cobra.Command {
	var (
		local  localSearchFlags
		remote remoteSearchFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search notes in another profile",
		Long: `Searches a source profile with the collection's search syntax.
When search_the_web is enabled the remote catalog is searched instead.`,
		RunE: withApp(opts, func(app *entrypoint.App, cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if opts.cfg.SearchTheWeb {
				return runRemoteSearch(app, cmd, &remote, query, asJSON)
			}

			result, err := runLocalSearch(app, cmd, &local, query)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tTYPE\tPREVIEW")
			for _, n := range result.Notes {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", n.ID, n.SchemaName, truncate(n.Preview, previewWidth))
			}
			tw.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d notes\n", len(result.Notes), result.Total)
			return nil
		}),
	}

	local.bind(cmd.Flags())
	remote.bind(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

type remoteSearchFlags struct {
	category string
	sort     string
	jlpt     int
	wanikani int
	limit    int
	offset   int
	exact    bool
}

func (f *remoteSearchFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.category, "category", "", "catalog category: anime, drama, games or literature")
	fs.StringVar(&f.sort, "remote-sort", "", "catalog order: shortness or longness")
	fs.IntVar(&f.jlpt, "jlpt", 0, "JLPT level 1-5")
	fs.IntVar(&f.wanikani, "wanikani", 0, "WaniKani level 1-60")
	fs.IntVar(&f.limit, "limit", 0, "maximum examples to request")
	fs.IntVar(&f.offset, "offset", 0, "examples to skip")
	fs.BoolVar(&f.exact, "exact", false, "match the query exactly")
}

func (f *remoteSearchFlags) args(query string) immersionkit.SearchArgs {
	return immersionkit.SearchArgs{
		Query:      query,
		Category:   f.category,
		Sort:       f.sort,
		JLPT:       f.jlpt,
		WaniKani:   f.wanikani,
		Limit:      f.limit,
		Offset:     f.offset,
		ExactMatch: f.exact,
	}
}

func runRemoteSearch(app *entrypoint.App, cmd *cobra.Command, f *remoteSearchFlags, query string, asJSON bool) error {
	result, err := app.Search.RemoteSearch(cmd.Context(), f.args(query))
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "#\tSOURCE\tSENTENCE\tTRANSLATION")
	for i, ex := range result.Examples {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, truncate(ex.Title, 24), ex.Sentence, truncate(ex.Translation, previewWidth/2))
	}
	tw.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d examples\n", len(result.Examples), result.Total)
	return nil
}

func remoteSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		remote remoteSearchFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "remote-search <query>",
		Short: "Search the example sentence catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(app *entrypoint.App, cmd *cobra.Command, args []string) error {
			return runRemoteSearch(app, cmd, &remote, strings.Join(args, " "), asJSON)
		}),
	}

	remote.bind(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
