package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cuse/internal/output"
)

func newDeleteCmd(root *rootOptions) *cobra.Command {
	var index string

	cmd := &cobra.Command{
		Use:     "delete --index NAME ID...",
		Short:   "Remove records from an index",
		Example: `  cuse delete --index people p1 p2`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, ids []string) error {
			a, err := openApp(root.cfg, root.logger, index)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			removed, err := a.remove(cmd.Context(), ids)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if removed < len(ids) {
				out.Warningf("%d of %d id(s) were not stored", len(ids)-removed, len(ids))
			}
			out.Successf("Deleted %d record(s) from %s", removed, index)
			return nil
		},
	}

	cmd.Flags().StringVar(&index, "index", "", "Index name (required)")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}
