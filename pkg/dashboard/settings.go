package dashboard

import (
	"context"
	"errors"
	"fmt"

	"incidents-dashboard/pkg/models"
)

// CurrentSettings renvoie les réglages et, si le classeur est joignable, son titre
// et sa date de dernière modification.
func (s *Service) CurrentSettings(ctx context.Context) models.SettingsResult {
	res := models.SettingsResult{
		SheetID:   s.settings.CurrentSheetID(),
		SheetName: s.settings.SheetName(),
	}
	if res.SheetID == "" {
		return res
	}
	wb, err := s.backend.Open(ctx, res.SheetID)
	if err != nil {
		s.logger.Warn("spreadsheet unavailable", "sheet_id", res.SheetID, "error", err)
		return res
	}
	res.SpreadsheetName = wb.Title()
	if t, err := wb.LastUpdated(ctx); err == nil {
		res.LastUpdated = &t
	}
	return res
}

func mutationResult(err error) models.MutationResult {
	if err != nil {
		return models.Failed(err)
	}
	return models.MutationResult{Success: true}
}

// forget vide les entrées de cache liées à l'onglet courant, avant un changement
// de classeur ou d'onglet.
func (s *Service) forget() {
	name := s.settings.SheetName()
	s.reader.Invalidate(name)
	s.resolver.Invalidate(name)
}

func (s *Service) SetSheetID(id string) models.MutationResult {
	s.forget()
	if err := s.settings.SetSheetID(id); err != nil {
		return models.Failed(err)
	}
	s.logger.Info("sheet id updated")
	return models.MutationResult{Success: true}
}

func (s *Service) RemoveSheetID() models.MutationResult {
	s.forget()
	return mutationResult(s.settings.RemoveSheetID())
}

// SetSheetName vérifie que l'onglet existe quand un classeur est configuré.
func (s *Service) SetSheetName(ctx context.Context, name string) models.MutationResult {
	if err := s.verifySheet(ctx, name); err != nil {
		return models.Failed(err)
	}
	s.forget()
	if err := s.settings.SetSheetName(name); err != nil {
		return models.Failed(err)
	}
	s.logger.Info("sheet name updated", "sheet", name)
	return models.MutationResult{Success: true}
}

func (s *Service) verifySheet(ctx context.Context, name string) error {
	if name == "" {
		return models.Invalid("Invalid Sheet Name: The sheet name cannot be empty.")
	}
	wb, err := s.workbook(ctx)
	if errors.Is(err, models.ErrSheetIDNotSet) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("Error verifying sheet name: %w", err)
	}
	names, err := wb.TableNames(ctx)
	if err != nil {
		return fmt.Errorf("Error verifying sheet name: %w", err)
	}
	for _, n := range names {
		if n == name {
			return nil
		}
	}
	return models.NotFoundf("Sheet %q does not exist in the connected spreadsheet. "+
		"Please check the spelling and try again, or open the spreadsheet to verify available sheet names.", name)
}

// ResetSheetName revient à l'onglet par défaut et renvoie les réglages à jour.
func (s *Service) ResetSheetName(ctx context.Context) (models.SettingsResult, models.MutationResult) {
	s.forget()
	if _, err := s.settings.ResetSheetName(); err != nil {
		return s.CurrentSettings(ctx), models.Failed(err)
	}
	return s.CurrentSettings(ctx), models.MutationResult{Success: true}
}
