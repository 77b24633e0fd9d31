package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cuse/internal/output"
)

// indexInfo is one row of the indexes listing.
type indexInfo struct {
	Name      string `json:"name"`
	Documents int    `json:"documents"`
}

func newIndexesCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "List indexes and their document counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(root.cfg, root.logger, "")
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			names, err := a.index.Indexes(ctx)
			if err != nil {
				return err
			}

			infos := make([]indexInfo, 0, len(names))
			for _, name := range names {
				n, err := a.index.Count(ctx, name)
				if err != nil {
					return fmt.Errorf("failed to count %s: %w", name, err)
				}
				infos = append(infos, indexInfo{Name: name, Documents: n})
			}

			if jsonOutput {
				return writeJSON(cmd, infos)
			}

			out := output.New(cmd.OutOrStdout())
			if len(infos) == 0 {
				out.Warning("No indexes yet. Register a record with 'cuse put'.")
				return nil
			}
			out.Header(fmt.Sprintf("Indexes (%s backend, %s)", root.cfg.Index.Backend, root.cfg.Index.DataDir))
			counts := make(map[string]string, len(infos))
			for _, info := range infos {
				counts[info.Name] = fmt.Sprintf("%d document(s)", info.Documents)
			}
			out.Fields(counts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
