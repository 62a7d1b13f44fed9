package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rostersync/internal/ipc"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run the unresolved-record audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Audit(force)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if resp.Total == 0 {
					fmt.Fprintln(stdout, "All roster records are linked")
					return nil
				}
				fmt.Fprintf(stdout, "%d unresolved record(s)\n", resp.Total)
				for _, handle := range resp.Sample {
					fmt.Fprintf(stdout, "  - %s\n", handle)
				}
				if !resp.Emitted {
					fmt.Fprintln(stdout, "Report unchanged since the last run; notification suppressed")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Emit the report even if it is unchanged")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON")
	return cmd
}
