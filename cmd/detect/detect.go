// Package detect prints the source profile detected for a file
package detect

import (
	"fmt"
	"os"

	"fjacquet/bank-ingest/cmd/root"
	"fjacquet/bank-ingest/internal/detector"
	"fjacquet/bank-ingest/internal/fileutils"
	"fjacquet/bank-ingest/internal/textutils"

	"github.com/spf13/cobra"
)

// Cmd represents the detect command
var Cmd = &cobra.Command{
	Use:   "detect FILE",
	Short: "Print the statement format detected for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decoder, err := textutils.NewDecoder(root.AppConfig.Import.FallbackEncoding)
		if err != nil {
			return err
		}
		if !fileutils.FileExists(args[0]) {
			return fmt.Errorf("file not found: %s", args[0])
		}
		raw, err := os.ReadFile(args[0]) // #nosec G304 -- path comes from the command line
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		profile, err := detector.New(decoder, root.Log).Detect(raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", profile, profile.AdapterKind())
		return nil
	},
}
