package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(classesCmd)
}

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List classes in the snapshot store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			classes, err := a.village.ListClasses(ctx)
			if err != nil {
				return err
			}
			if len(classes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No classes stored yet.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CLASS\tUPDATED")
			for _, class := range classes {
				fmt.Fprintf(w, "%s\t%s\n", class.ClassID, class.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		})
	},
}
