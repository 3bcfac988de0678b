package dashboard

import (
	"context"
	"encoding/json"

	"incidents-dashboard/pkg/export"
	"incidents-dashboard/pkg/models"
	"incidents-dashboard/pkg/table"
)

// Noms des rapports exportables.
const (
	ReportMajorIncidents      = "major-incidents"
	ReportOutageSummary       = "outage-summary"
	ReportNetworkAvailability = "network-availability"
)

func exportFailed(msg string) models.ExportResult {
	return models.ExportResult{Success: false, Error: msg}
}

func (s *Service) exportResult(op string, file export.File, err error) models.ExportResult {
	if err != nil {
		msg, _ := s.fail(op, err)
		return exportFailed(msg)
	}
	s.logger.Info("report exported", "report", op, "file", file.Filename, "bytes", len(file.Data))
	return file.Result()
}

func (s *Service) ExportMajorIncidents(ctx context.Context, format string, opts export.MajorIncidentsOptions) models.ExportResult {
	f, err := export.ParseFormat(format)
	if err != nil {
		return exportFailed(err.Error())
	}
	res := s.MajorIncidents(ctx, table.Page{Number: 1, Size: exportPageSize}, opts.SearchFilter)
	if res.Error != "" {
		return exportFailed(res.Error)
	}
	file, err := s.exporter.MajorIncidents(f, res.Columns, res.Rows, opts)
	return s.exportResult("major_incidents", file, err)
}

func (s *Service) ExportOutageSummary(ctx context.Context, format string, opts export.OutageSummaryOptions) models.ExportResult {
	f, err := export.ParseFormat(format)
	if err != nil {
		return exportFailed(err.Error())
	}
	res := s.OutageSummary(ctx)
	if res.Error != "" {
		return exportFailed(res.Error)
	}
	file, err := s.exporter.OutageSummary(f, res.OutageSummary, opts)
	return s.exportResult("outage_summary", file, err)
}

func (s *Service) ExportAvailability(ctx context.Context, format string, opts export.AvailabilityOptions) models.ExportResult {
	f, err := export.ParseFormat(format)
	if err != nil {
		return exportFailed(err.Error())
	}
	res := s.NetworkAvailability(ctx)
	if res.Error != "" {
		return exportFailed(res.Error)
	}
	file, err := s.exporter.Availability(f, res.AvailabilityReport, opts)
	return s.exportResult("network_availability", file, err)
}

// Export décode les options du rapport par-dessus ses valeurs par défaut puis le rend.
// params peut être vide.
func (s *Service) Export(ctx context.Context, report, format string, params json.RawMessage) models.ExportResult {
	decode := func(v any) bool {
		return len(params) == 0 || json.Unmarshal(params, v) == nil
	}
	switch report {
	case ReportMajorIncidents:
		opts := export.DefaultMajorIncidentsOptions()
		if !decode(&opts) {
			return exportFailed("Invalid export options.")
		}
		return s.ExportMajorIncidents(ctx, format, opts)
	case ReportOutageSummary:
		opts := export.DefaultOutageSummaryOptions()
		if !decode(&opts) {
			return exportFailed("Invalid export options.")
		}
		return s.ExportOutageSummary(ctx, format, opts)
	case ReportNetworkAvailability:
		opts := export.DefaultAvailabilityOptions()
		if !decode(&opts) {
			return exportFailed("Invalid export options.")
		}
		return s.ExportAvailability(ctx, format, opts)
	}
	return exportFailed("Invalid report type.")
}
