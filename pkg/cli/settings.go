package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"incidents-dashboard/pkg/models"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newSettingsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the connected spreadsheet",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the current settings",
			Args:  cobra.NoArgs,
			RunE: a.withService(func(ctx context.Context, cmd *cobra.Command, svc *service, _ []string) error {
				printSettings(cmd.OutOrStdout(), svc.CurrentSettings(ctx))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "set-sheet-id ID",
			Short: "Connect a spreadsheet",
			Args:  cobra.ExactArgs(1),
			RunE: a.withService(func(_ context.Context, cmd *cobra.Command, svc *service, args []string) error {
				return mutationError(cmd.OutOrStdout(), svc.SetSheetID(args[0]))
			}),
		},
		&cobra.Command{
			Use:   "remove-sheet-id",
			Short: "Disconnect the spreadsheet",
			Args:  cobra.NoArgs,
			RunE: a.withService(func(_ context.Context, cmd *cobra.Command, svc *service, _ []string) error {
				return mutationError(cmd.OutOrStdout(), svc.RemoveSheetID())
			}),
		},
		&cobra.Command{
			Use:   "set-sheet-name NAME",
			Short: "Select the sheet holding the incidents",
			Args:  cobra.ExactArgs(1),
			RunE: a.withService(func(ctx context.Context, cmd *cobra.Command, svc *service, args []string) error {
				return mutationError(cmd.OutOrStdout(), svc.SetSheetName(ctx, args[0]))
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Go back to the default sheet name",
			Args:  cobra.NoArgs,
			RunE: a.withService(func(ctx context.Context, cmd *cobra.Command, svc *service, _ []string) error {
				cur, res := svc.ResetSheetName(ctx)
				if err := mutationError(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), cur)
				return nil
			}),
		},
	)
	return cmd
}

type serviceFunc func(ctx context.Context, cmd *cobra.Command, svc *service, args []string) error

func (a *app) withService(fn serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := a.newService(ctx)
		if err != nil {
			return err
		}
		defer svc.close()
		return fn(ctx, cmd, svc, args)
	}
}

func mutationError(w io.Writer, res models.MutationResult) error {
	if !res.Success {
		return errors.New(res.Error)
	}
	fmt.Fprintln(w, "ok")
	return nil
}

func printSettings(w io.Writer, s models.SettingsResult) {
	lastUpdated := ""
	if s.LastUpdated != nil {
		lastUpdated = s.LastUpdated.Format("2006-01-02 15:04:05 MST")
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(true)
	table.SetHeader([]string{"Setting", "Value"})
	table.Append([]string{"Sheet ID", s.SheetID})
	table.Append([]string{"Sheet name", s.SheetName})
	table.Append([]string{"Spreadsheet", s.SpreadsheetName})
	table.Append([]string{"Last updated", lastUpdated})
	table.Render()
}
