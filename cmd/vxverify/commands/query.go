package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	var (
		query     string
		variables string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Send a raw GraphQL query to the VX service",
		Example: `  vxverify query --query '{ apps { nodes { name vxConnectionString } } }'
  vxverify query --query 'query($s: String!) { appBySlug(slug: $s) { id } }' --variables '{"s":"bustabit"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var vars map[string]any
			if variables != "" {
				if err := json.Unmarshal([]byte(variables), &vars); err != nil {
					return fmt.Errorf("parsing --variables: %w", err)
				}
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			data, err := a.client.Query(cmd.Context(), query, vars)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]json.RawMessage{"data": data})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "GraphQL document")
	cmd.Flags().StringVar(&variables, "variables", "", "JSON object of query variables")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}
