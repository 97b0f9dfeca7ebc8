// Package seed creates the default categories and rules for a user
package seed

import (
	"fjacquet/bank-ingest/cmd/common"
	"fjacquet/bank-ingest/cmd/root"
	"fjacquet/bank-ingest/internal/categorizer"

	"github.com/spf13/cobra"
)

var catalogFile string

// Cmd represents the seed command
var Cmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default categories and rules for a user",
	Long: `Create every category and rule of the default catalog that the user does
not have yet. Running it again changes nothing. Use --user default to seed
the shared tier that every user falls back to.`,
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

		seeder := c.GetSeeder()
		if catalogFile != "" {
			catalog, err := categorizer.LoadCatalogFile(catalogFile)
			if err != nil {
				return err
			}
			seeder = categorizer.NewSeeder(c.GetStore(), catalog, c.GetLogger())
		}

		res, err := seeder.SeedDefaults(cmd.Context(), userID)
		if err != nil {
			return err
		}
		common.Success(cmd.OutOrStdout(), "%d categories and %d rules created", res.CategoriesCreated, res.RulesCreated)
		return nil
	},
}

func init() {
	Cmd.Flags().StringVar(&catalogFile, "catalog", "", "YAML catalog to seed instead of the built-in one")
}
