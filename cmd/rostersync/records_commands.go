package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rostersync/internal/ipc"
	"rostersync/internal/roster"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and manage roster records",
	}

	recordsCmd.AddCommand(newRecordsListCommand(ctx))
	recordsCmd.AddCommand(newRecordsPutCommand(ctx))

	return recordsCmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	var unresolvedOnly bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List roster records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *roster.Store) error {
				var records []ipc.Record
				if client != nil {
					resp, err := client.Records(unresolvedOnly)
					if err != nil {
						return err
					}
					records = resp.Records
				} else {
					list := store.List
					if unresolvedOnly {
						list = store.ListUnresolved
					}
					stored, err := list(cmd.Context())
					if err != nil {
						return err
					}
					records = make([]ipc.Record, 0, len(stored))
					for _, rec := range stored {
						records = append(records, ipc.FromRecord(rec))
					}
				}

				if asJSON {
					return writeJSON(cmd, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No roster records")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Handle", "Display Name", "Tier", "Position", "Squad", "Captain", "Entity"},
					buildRecordRows(records),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&unresolvedOnly, "unresolved", "u", false, "Only show records without a linked directory entity")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit records as JSON")
	return cmd
}

func newRecordsPutCommand(ctx *commandContext) *cobra.Command {
	var (
		displayName      string
		tier             string
		position         string
		positionOverride string
		squad            string
		captain          bool
	)

	cmd := &cobra.Command{
		Use:   "put <handle>",
		Short: "Create or update a roster record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle := strings.TrimSpace(args[0])
			if handle == "" {
				return errors.New("handle is required")
			}

			record := ipc.Record{
				Handle:           handle,
				DisplayName:      strings.TrimSpace(displayName),
				Tier:             strings.TrimSpace(tier),
				Position:         strings.TrimSpace(position),
				PositionOverride: strings.TrimSpace(positionOverride),
				Squad:            strings.TrimSpace(squad),
				Captain:          captain,
			}

			return ctx.withStore(func(client *ipc.Client, store *roster.Store) error {
				var stored ipc.Record
				if client != nil {
					resp, err := client.PutRecord(record)
					if err != nil {
						return err
					}
					stored = resp.Record
				} else {
					rec, err := store.Put(cmd.Context(), record.ToRecord())
					if err != nil {
						return err
					}
					stored = ipc.FromRecord(rec)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Stored record %d (%s)\n", stored.ID, stored.Handle)
				if client == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running; the change applies once it starts")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&displayName, "display-name", "", "Display name used for entity matching")
	cmd.Flags().StringVar(&tier, "tier", "", "Competitive tier")
	cmd.Flags().StringVar(&position, "position", "", "Playing position")
	cmd.Flags().StringVar(&positionOverride, "position-override", "", "Manual position override")
	cmd.Flags().StringVar(&squad, "squad", "", "Squad assignment")
	cmd.Flags().BoolVar(&captain, "captain", false, "Mark the record as squad captain")
	return cmd
}

func buildRecordRows(records []ipc.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		position := rec.Position
		if strings.TrimSpace(rec.PositionOverride) != "" {
			position = rec.PositionOverride + "*"
		}
		entity := rec.EntityID
		if strings.TrimSpace(entity) == "" {
			entity = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Handle,
			rec.DisplayName,
			rec.Tier,
			position,
			rec.Squad,
			yesNo(rec.Captain),
			entity,
		})
	}
	return rows
}
