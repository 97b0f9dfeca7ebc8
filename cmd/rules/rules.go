// Package rules lists and toggles categorization rules
package rules

import (
	"fmt"

	"fjacquet/bank-ingest/cmd/common"
	"fjacquet/bank-ingest/cmd/root"
	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var categoryName string

// Cmd represents the rules command
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "List the enabled rules in evaluation order",
	Long: `List the rules evaluated for a user, own rules and shared default rules
merged, in the order the rule engine tries them. Use --category to show only
the rules assigning one category.`,
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
		st := c.GetStore()

		var only *uuid.UUID
		if categoryName != "" {
			cat, err := st.GetCategoryByName(cmd.Context(), userID, categoryName)
			if err != nil {
				return fmt.Errorf("failed to find category %q: %w", categoryName, err)
			}
			only = &cat.ID
		}

		categories, err := st.ListVisibleCategories(cmd.Context(), userID)
		if err != nil {
			return err
		}
		names := make(map[uuid.UUID]string, len(categories))
		for _, cat := range categories {
			names[cat.ID] = cat.Name
		}

		list, err := st.ListEnabledRules(cmd.Context(), userID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		shown := 0
		for _, r := range list {
			if only != nil && (r.CategoryID == nil || *r.CategoryID != *only) {
				continue
			}
			printRule(cmd, r, names)
			shown++
		}
		common.Success(out, "%d rules", shown)
		return nil
	},
}

func printRule(cmd *cobra.Command, r models.Rule, names map[uuid.UUID]string) {
	category := "-"
	if r.CategoryID != nil {
		if name, ok := names[*r.CategoryID]; ok {
			category = name
		}
	}
	tier := "own"
	if r.UserID == models.DefaultTenantID {
		tier = "default"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s  %-8s %-12s %q -> %s (%s)\n",
		r.Priority, r.ID, tier, r.MatchType, r.MatchValue, category, r.Name)
}

var enableCmd = &cobra.Command{
	Use:   "enable RULE_ID",
	Short: "Enable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable RULE_ID",
	Short: "Disable a rule so the engine skips it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], false)
	},
}

func setEnabled(cmd *cobra.Command, rawID string, enabled bool) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid rule id %q: %w", rawID, err)
	}
	c, err := root.GetContainer(cmd.Context())
	if err != nil {
		return err
	}
	if err := c.GetStore().SetRuleEnabled(cmd.Context(), id, enabled); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	common.Success(cmd.OutOrStdout(), "rule %s %s", id, state)
	return nil
}

func init() {
	Cmd.Flags().StringVar(&categoryName, "category", "", "only list rules assigning this category")
	Cmd.AddCommand(enableCmd, disableCmd)
}
