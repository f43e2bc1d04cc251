package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/docsql/cli/internal/ui"
	"github.com/satishbabariya/docsql/runtime/driver"
)

// NewPingCommand creates the ping command
func NewPingCommand(g *globals) *cobra.Command {
	var require string
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the connection and print the server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.cfg.DatabaseURL == "" {
				return fmt.Errorf("no database configured: set database_url, DATABASE_URL or --url")
			}
			ctx := cmd.Context()

			spinner, _ := ui.PrintSpinner("Connecting to " + g.cfg.Provider)
			conn, err := driver.Open(ctx, g.cfg.Primary())
			if spinner != nil {
				_ = spinner.Stop()
			}
			if err != nil {
				return err
			}
			defer conn.Close()

			if require != "" {
				v, err := conn.RequireVersion(ctx, require)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s satisfies %s\n", conn.Dialect().Name(), v, require)
				return nil
			}

			v, err := conn.ServerVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", conn.Dialect().Name(), v)
			return nil
		},
	}
	cmd.Flags().StringVar(&require, "require", "", "fail unless the server version matches, e.g. \">= 8.0\"")
	return cmd
}
