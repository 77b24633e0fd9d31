package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cuse/internal/output"
)

func newGetCmd(root *rootOptions) *cobra.Command {
	var (
		index  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "get --index NAME ID...",
		Short: "Print records by id",
		Long: `Load records by id from the record database, in the order given.
Unknown ids are reported and skipped. Up to loader.workers records are
fetched at once.`,
		Example: `  cuse get --index people p1 p2`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, ids []string) error {
			a, err := openApp(root.cfg, root.logger, index)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			records, err := a.get(cmd.Context(), ids)
			if err != nil {
				return err
			}

			if format == "json" {
				return writeJSON(cmd, records)
			}

			out := output.New(cmd.OutOrStdout())
			found := make(map[string]bool, len(records))
			for _, r := range records {
				found[r.ID] = true
				out.Header(r.ID)
				out.Fields(r.Fields)
			}
			for _, id := range ids {
				if !found[id] {
					out.Warningf("%s not found in %s", id, index)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&index, "index", "", "Index name (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}
