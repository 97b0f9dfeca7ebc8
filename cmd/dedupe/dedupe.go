// Package dedupe removes duplicate transactions of a user
package dedupe

import (
	"fjacquet/bank-ingest/cmd/common"
	"fjacquet/bank-ingest/cmd/root"

	"github.com/spf13/cobra"
)

var dryRun bool

// Cmd represents the dedupe command
var Cmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Delete duplicate transactions across all imports of a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := root.RequireUser()
		if err != nil {
			return err
		}
		c, err := root.GetContainer(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if dryRun {
			dups, err := c.GetDeduplicator().FindDuplicates(cmd.Context(), userID)
			if err != nil {
				return err
			}
			for _, d := range dups {
				common.Warning(out, "%s %s %s %q duplicates %s",
					d.Transaction.ID, d.Transaction.BookingDateString(), d.Transaction.Amount.StringFixed(2),
					d.Transaction.Description, d.KeptID)
			}
			common.Success(out, "%d duplicates found", len(dups))
			return nil
		}

		removed, err := c.GetDeduplicator().Deduplicate(cmd.Context(), userID)
		if err != nil {
			return err
		}
		common.Success(out, "%d duplicates removed", removed)
		return nil
	},
}

func init() {
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list duplicates without deleting them")
}
