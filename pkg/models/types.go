package models

import (
	"strings"
)

// DefaultSheetName est l'onglet utilisé tant qu'aucun nom n'a été configuré.
const DefaultSheetName = "MAJOR INCIDENTS_UPDATED"

/*
LOAD → table brute telle que lue depuis le classeur (valeurs affichées).
*/

// Table représente un onglet : la ligne d'en-tête puis les lignes de données.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable découpe les valeurs brutes (ligne 0 = en-tête).
func NewTable(values [][]string) Table {
	if len(values) == 0 {
		return Table{}
	}
	return Table{Header: values[0], Rows: values[1:]}
}

// Values reconstruit la forme brute [][]string (en-tête inclus), utilisée pour le cache.
func (t Table) Values() [][]string {
	if t.Header == nil {
		return [][]string{}
	}
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header)
	return append(out, t.Rows...)
}

// Empty est vrai quand l'onglet n'a même pas d'en-tête.
func (t Table) Empty() bool {
	return len(t.Header) == 0 && len(t.Rows) == 0
}

// Cell renvoie la cellule (r, c) d'une ligne de données, "" si la ligne est courte.
func (t Table) Cell(r, c int) string {
	if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][c]
}

// FitRow complète ou tronque une ligne au nombre de colonnes donné.
func FitRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

/*
SCHEMA → rôles de colonnes et listes déroulantes.
*/

// Role est le rôle sémantique d'une colonne, déduit du libellé d'en-tête.
type Role int

const (
	RoleTicketID Role = iota
	RoleCableSystem
	RoleAffectedSegment
	RoleRFO
	RoleStartDate
	RoleEndDate
)

// Roles liste tous les rôles dans l'ordre de résolution.
var Roles = []Role{RoleTicketID, RoleCableSystem, RoleAffectedSegment, RoleRFO, RoleStartDate, RoleEndDate}

func (r Role) String() string {
	switch r {
	case RoleTicketID:
		return "Ticket ID"
	case RoleCableSystem:
		return "Cable System"
	case RoleAffectedSegment:
		return "Affected Segment"
	case RoleRFO:
		return "RFO"
	case RoleStartDate:
		return "Start Date"
	case RoleEndDate:
		return "End Date"
	}
	return "unknown"
}

// Domains contient les valeurs autorisées des colonnes contraintes, dans l'ordre source.
type Domains struct {
	CableSystem     []string `json:"cableSystem"`
	AffectedSegment []string `json:"affectedSegment"`
}

// For renvoie le domaine associé à un rôle (nil pour les rôles non contraints).
func (d Domains) For(r Role) []string {
	switch r {
	case RoleCableSystem:
		return d.CableSystem
	case RoleAffectedSegment:
		return d.AffectedSegment
	}
	return nil
}

// Contains teste l'appartenance exacte d'une valeur à un domaine.
func Contains(domain []string, v string) bool {
	for _, d := range domain {
		if d == v {
			return true
		}
	}
	return false
}

/*
COMPUTE → résultats dérivés, recalculés à chaque appel.
*/

// AvailabilityReport : pourcentage de disponibilité par câble × segment × année × mois (0-11).
type AvailabilityReport struct {
	CableSystems []string                                  `json:"cableSystems"`
	Segments     []string                                  `json:"segments"`
	Years        []int                                     `json:"years"`
	Percent      map[string]map[string]map[int][12]float64 `json:"data"`
}

// Value renvoie le pourcentage d'une cellule, ok=false si la clé n'existe pas.
func (r AvailabilityReport) Value(cs, seg string, year, month int) (float64, bool) {
	if month < 0 || month > 11 {
		return 0, false
	}
	months, ok := r.Percent[cs][seg][year]
	if !ok {
		return 0, false
	}
	return months[month], true
}

// OutageSummary : nombre de lignes par RFO et par système de câble.
type OutageSummary struct {
	CableSystems []string                  `json:"cableSystems"`
	RFOTypes     []string                  `json:"rfoTypes"`
	Counts       map[string]map[string]int `json:"counts"`
}

// Count renvoie le compteur (rfo, câble), 0 si absent.
func (s OutageSummary) Count(rfo, cs string) int {
	return s.Counts[rfo][cs]
}

// NormalizeLabel met un libellé d'en-tête sous forme comparable.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
