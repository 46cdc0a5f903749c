package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/village-api/internal/service"
)

func init() {
	rootCmd.AddCommand(passbookCmd)
	passbookCmd.AddCommand(passbookExportCmd)

	passbookExportCmd.Flags().StringP("format", "f", service.FormatCSV, "csv, pdf or xlsx")
	passbookExportCmd.Flags().StringP("out", "o", "", "Output file (defaults to the generated name in the current directory)")
	passbookExportCmd.Flags().Bool("keep", false, "Also store a copy in EXPORT_DIR")
}

var passbookCmd = &cobra.Command{
	Use:   "passbook",
	Short: "Villager bank statements",
}

var passbookExportCmd = &cobra.Command{
	Use:   "export CLASS_ID STUDENT_ID",
	Short: "Write a villager's passbook to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		keep, _ := cmd.Flags().GetBool("keep")

		return withApp(cmd, func(ctx context.Context, a *app) error {
			book, err := a.exports.Passbook(ctx, args[0], args[1], format, keep)
			if err != nil {
				return err
			}
			if out == "" {
				out = book.Filename
			}
			if err := os.WriteFile(out, book.Body, 0o644); err != nil {
				return fmt.Errorf("write passbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(book.Body))
			if book.SavedPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "kept %s\n", book.SavedPath)
			}
			return nil
		})
	},
}
