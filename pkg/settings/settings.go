package settings

import (
	"strings"

	"incidents-dashboard/pkg/models"
)

const (
	KeySheetID   = "SHEET_ID"
	KeySheetName = "SHEET_NAME"

	minSheetIDLength = 20
)

// Settings expose les réglages métier (classeur, onglet) au-dessus d'un Store.
type Settings struct {
	store Store
}

func New(store Store) *Settings {
	return &Settings{store: store}
}

// SheetID renvoie l'identifiant du classeur, ErrSheetIDNotSet s'il n'est pas configuré.
func (s *Settings) SheetID() (string, error) {
	id, ok, err := s.store.Get(KeySheetID)
	if err != nil {
		return "", err
	}
	if !ok || id == "" {
		return "", models.ErrSheetIDNotSet
	}
	return id, nil
}

// CurrentSheetID renvoie "" plutôt qu'une erreur quand rien n'est configuré.
func (s *Settings) CurrentSheetID() string {
	id, ok, err := s.store.Get(KeySheetID)
	if err != nil || !ok {
		return ""
	}
	return id
}

func (s *Settings) SetSheetID(id string) error {
	id = strings.TrimSpace(id)
	if len(id) < minSheetIDLength {
		return models.Invalid("Invalid Sheet ID.")
	}
	return s.store.Set(KeySheetID, id)
}

func (s *Settings) RemoveSheetID() error {
	return s.store.Delete(KeySheetID)
}

// SheetName renvoie l'onglet configuré, ou l'onglet historique par défaut.
func (s *Settings) SheetName() string {
	name, ok, err := s.store.Get(KeySheetName)
	if err != nil || !ok || name == "" {
		return models.DefaultSheetName
	}
	return name
}

func (s *Settings) SetSheetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return models.Invalid("Invalid Sheet Name: The sheet name cannot be empty.")
	}
	return s.store.Set(KeySheetName, name)
}

// ResetSheetName supprime le réglage et renvoie le nom par défaut.
func (s *Settings) ResetSheetName() (string, error) {
	if err := s.store.Delete(KeySheetName); err != nil {
		return "", err
	}
	return models.DefaultSheetName, nil
}
