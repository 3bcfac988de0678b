package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"incidents-dashboard/pkg/calculator"
	"incidents-dashboard/pkg/models"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newReportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print dashboard reports in the terminal",
	}

	var from, to, cableSystem, segment string
	availability := &cobra.Command{
		Use:   "availability",
		Short: "Monthly network availability per cable system and segment",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, cmd *cobra.Command, svc *service, _ []string) error {
			months, err := monthRange(from, to)
			if err != nil {
				return err
			}
			res := svc.NetworkAvailability(ctx)
			if res.Error != "" {
				return errors.New(res.Error)
			}
			renderAvailability(cmd.OutOrStdout(), res.AvailabilityReport, months, cableSystem, segment)
			return nil
		}),
	}
	availability.Flags().StringVar(&from, "from", "", "mois de début (MMYYYY)")
	availability.Flags().StringVar(&to, "to", "", "mois de fin (MMYYYY)")
	availability.Flags().StringVar(&cableSystem, "cable-system", "", "filtre sur un système de câble")
	availability.Flags().StringVar(&segment, "segment", "", "filtre sur un segment")
	_ = availability.MarkFlagRequired("from")
	_ = availability.MarkFlagRequired("to")

	outages := &cobra.Command{
		Use:   "outages",
		Short: "Outage count per RFO and cable system",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(ctx context.Context, cmd *cobra.Command, svc *service, _ []string) error {
			res := svc.OutageSummary(ctx)
			if res.Error != "" {
				return errors.New(res.Error)
			}
			renderOutages(cmd.OutOrStdout(), res.OutageSummary)
			return nil
		}),
	}

	cmd.AddCommand(availability, outages)
	return cmd
}

func monthRange(from, to string) ([]time.Time, error) {
	start, err := calculator.ParseMonth(from)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	end, err := calculator.ParseMonth(to)
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("to < from")
	}
	return calculator.MonthsBetweenInclusive(start, end), nil
}

// renderAvailability écrit une ligne par câble, segment et mois. Les mois sans
// donnée calculée sont marqués "---".
func renderAvailability(w io.Writer, r models.AvailabilityReport, months []time.Time, cableSystem, segment string) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"Cable System", "Segment", "Month", "Availability (%)"})

	for _, cs := range r.CableSystems {
		if cableSystem != "" && cs != cableSystem {
			continue
		}
		for _, seg := range r.Segments {
			if segment != "" && seg != segment {
				continue
			}
			for _, m := range months {
				cell := "---"
				if v, ok := r.Value(cs, seg, m.Year(), int(m.Month())-1); ok {
					cell = fmt.Sprintf("%.2f", v)
				}
				table.Append([]string{cs, seg, calculator.FormatMonth(m), cell})
			}
		}
	}
	table.Render()
}

func renderOutages(w io.Writer, s models.OutageSummary) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	header := append([]string{"RFO"}, s.CableSystems...)
	table.SetHeader(append(header, "Total"))

	totals := make([]int, len(s.CableSystems))
	for _, rfo := range s.RFOTypes {
		row := []string{rfo}
		sum := 0
		for i, cs := range s.CableSystems {
			n := s.Count(rfo, cs)
			totals[i] += n
			sum += n
			row = append(row, fmt.Sprint(n))
		}
		table.Append(append(row, fmt.Sprint(sum)))
	}
	footer := []string{"Total"}
	grand := 0
	for _, n := range totals {
		grand += n
		footer = append(footer, fmt.Sprint(n))
	}
	table.SetFooter(append(footer, fmt.Sprint(grand)))
	table.Render()
}
