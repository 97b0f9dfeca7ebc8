// Package categorize handles transaction categorization commands
package categorize

import (
	"fjacquet/bank-ingest/cmd/common"
	"fjacquet/bank-ingest/cmd/root"

	"github.com/spf13/cobra"
)

var preview bool

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Apply the categorization rules to uncategorized transactions",
	Long: `Evaluate the user's rules and the shared default rules, in priority order,
against every uncategorized transaction of the user. The first matching rule
assigns its category.`,
	Args: cobra.NoArgs,
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

		if preview {
			plan, err := c.GetEngine().Plan(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if plan.Dropped > 0 {
				common.Warning(out, "%d rules cannot match and were ignored", plan.Dropped)
			}
			common.Success(out, "%d of %d uncategorized transactions would be categorized",
				len(plan.Assignments), plan.Examined)
			return nil
		}

		updated, err := c.GetEngine().ApplyRules(cmd.Context(), userID)
		if err != nil {
			return err
		}
		common.Success(out, "%d transactions categorized", updated)
		return nil
	},
}

func init() {
	Cmd.Flags().BoolVar(&preview, "preview", false, "report what would be categorized without writing")
}
