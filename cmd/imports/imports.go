// Package imports lists the imports of a user
package imports

import (
	"fmt"

	"fjacquet/bank-ingest/cmd/common"
	"fjacquet/bank-ingest/cmd/root"
	"fjacquet/bank-ingest/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var showID string

// Cmd represents the imports command
var Cmd = &cobra.Command{
	Use:   "imports",
	Short: "List imports with their status",
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
		if showID != "" {
			return showImport(cmd, c.GetStore(), userID, showID)
		}

		list, err := c.GetStore().ListImports(cmd.Context(), userID)
		if err != nil {
			return err
		}
		common.PrintImports(cmd.OutOrStdout(), list)

		count, err := c.GetStore().CountTransactions(cmd.Context(), userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d transactions stored\n", count)
		return nil
	},
}

// showImport prints one import of userID and the transactions it created.
func showImport(cmd *cobra.Command, st *store.Store, userID, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid import id %q: %w", rawID, err)
	}
	imp, err := st.GetImport(cmd.Context(), id)
	if err != nil {
		return err
	}
	if imp.UserID != userID {
		return fmt.Errorf("import %s: %w", id, store.ErrNotFound)
	}
	txs, err := st.ListTransactionsByImport(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	common.PrintImport(out, imp)
	common.PrintTransactions(out, txs)
	return nil
}

func init() {
	Cmd.Flags().StringVar(&showID, "show", "", "print the transactions created by one import")
}
