package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cerrors "github.com/Aman-CERP/cuse/internal/errors"
	"github.com/Aman-CERP/cuse/internal/output"
	"github.com/Aman-CERP/cuse/pkg/cuse"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	index  string
	where  []string // field=value, repeatable
	query  string
	limit  int
	all    bool
	ids    bool
	format string // "text", "json"
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search --index NAME [--where field=value]... [--query RAW]",
		Short: "Search an index",
		Long: `Search the named index.

Each --where adds a field filter; a repeated field replaces the earlier
value. --query adds a raw query fragment placed before the filters.
All clauses must match.

Results are returned in relevance order. With --ids only the matched ids
are printed; otherwise records are loaded from the record database.`,
		Example: `  cuse search --index people --where city=London
  cuse search --index people --where "name=Ada Lovelace" --limit 5
  cuse search --index people --query 'city:Paris' --ids
  cuse search --index people --where city=London --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("limit") {
				opts.limit = root.cfg.Search.DefaultLimit
			}
			return runSearch(cmd.Context(), cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.index, "index", "", "Index name (required)")
	cmd.Flags().StringArrayVarP(&opts.where, "where", "w", nil, "Field filter field=value (repeatable)")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Raw query fragment")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default: search.default_limit)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Use the index default limit instead of --limit")
	cmd.Flags().BoolVar(&opts.ids, "ids", false, "Print matched ids only")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("index")
	cmd.MarkFlagsMutuallyExclusive("limit", "all")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, root *rootOptions, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", opts.format)
	}
	if opts.limit > root.cfg.Search.MaxLimit {
		return cerrors.Newf(cerrors.ErrCodeSearchLimitExceeded,
			"search limit %d exceeds configured maximum of %d", opts.limit, root.cfg.Search.MaxLimit).
			WithSuggestion("raise search.max_limit in the configuration, up to 1000")
	}

	filters, err := parseWhere(opts.where)
	if err != nil {
		return err
	}

	a, err := openApp(root.cfg, root.logger, opts.index)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if opts.ids {
		builder, err := cuse.SearchIds[string](a.engine)
		if err != nil {
			return err
		}
		ids, err := finalize(applyFilters(builder, opts, filters), opts).Now(ctx)
		if err != nil {
			return err
		}
		return printIDs(cmd, ids, opts.format)
	}

	records, err := finalize(applyFilters(cuse.Search[Record](a.engine), opts, filters), opts).Now(ctx)
	if err != nil {
		return err
	}
	return printRecords(cmd, records, opts.format)
}

// whereFilter is one parsed --where flag.
type whereFilter struct {
	field string
	value string
}

// parseWhere parses --where flags, keeping their order.
func parseWhere(where []string) ([]whereFilter, error) {
	filters := make([]whereFilter, 0, len(where))
	for _, w := range where {
		field, value, ok := strings.Cut(w, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --where %q: expected field=value", w)
		}
		filters = append(filters, whereFilter{field: field, value: value})
	}
	return filters, nil
}

func applyFilters[T any](b *cuse.SearchBuilder[T], opts searchOptions, filters []whereFilter) *cuse.SearchBuilder[T] {
	b = b.InIndexNamed(opts.index)
	if opts.query != "" {
		b = b.WhereQuery(cuse.Query(opts.query))
	}
	for _, f := range filters {
		b = b.Where(f.field, cuse.Is(f.value))
	}
	return b
}

func finalize[T any](b *cuse.SearchBuilder[T], opts searchOptions) cuse.Prepared[T] {
	if opts.all {
		return b.ReturnAll()
	}
	return b.FetchMaximum(opts.limit)
}

func printIDs(cmd *cobra.Command, ids []string, format string) error {
	if format == "json" {
		return writeJSON(cmd, ids)
	}

	out := output.New(cmd.OutOrStdout())
	if len(ids) == 0 {
		out.Warning("No matches")
		return nil
	}
	for _, id := range ids {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func printRecords(cmd *cobra.Command, records []Record, format string) error {
	if format == "json" {
		return writeJSON(cmd, records)
	}

	out := output.New(cmd.OutOrStdout())
	if len(records) == 0 {
		out.Warning("No matches")
		return nil
	}

	for i, r := range records {
		out.Header(fmt.Sprintf("%d. %s", i+1, r.ID))
		out.Fields(r.Fields)
	}
	out.Newline()
	out.Statusf("🔍", "%d result(s)", len(records))
	return nil
}

// writeJSON writes v as indented JSON. A nil slice is written as [].
func writeJSON(cmd *cobra.Command, v any) error {
	switch s := v.(type) {
	case []string:
		if s == nil {
			v = []string{}
		}
	case []Record:
		if s == nil {
			v = []Record{}
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
