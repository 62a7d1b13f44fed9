package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rostersync/internal/ipc"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Match unresolved records against the full member directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Sweep()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sweep complete: %d linked, %d ambiguous, %d unmatched\n",
					resp.Linked, resp.Ambiguous, resp.Unmatched)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the sweep result as JSON")
	return cmd
}
