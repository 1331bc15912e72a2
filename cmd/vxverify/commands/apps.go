package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAppsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List applications registered with the VX service",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			apps, err := a.client.Apps(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), apps)
			}

			if len(apps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No applications found.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tNAME\tVX CONNECTION STRING")
			for _, it := range apps {
				conn := it.VXConnectionString
				if conn == "" {
					conn = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", it.Slug, it.Name, conn)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list as JSON")
	return cmd
}
