// Package calculator agrège les incidents du classeur : disponibilité mensuelle par
// câble et segment (fusion des intervalles d'interruption) et synthèse des RFO.
package calculator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"incidents-dashboard/pkg/models"
	"incidents-dashboard/pkg/schema"
)

const secondsPerDay = 24 * 60 * 60

// Formats d'affichage de dates acceptés dans les colonnes Start/End Date.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// Event est une interruption brute [Start, End) d'un couple câble/segment.
type Event struct {
	CableSystem string
	Segment     string
	Start       time.Time
	End         time.Time
}

// Slice est la part d'un Event contenue dans un mois calendaire (Month de 0 à 11).
type Slice struct {
	CableSystem string
	Segment     string
	Year        int
	Month       int
	Start       time.Time
	End         time.Time
}

type interval struct {
	start, end time.Time
}

type cellKey struct {
	cs, seg     string
	year, month int
}

// ParseDate lit une date affichée par le classeur, dans le fuseau donné.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExtractEvents garde les lignes avec câble et segment renseignés et un couple de
// dates valide tel que start < end.
func ExtractEvents(t models.Table, cols schema.Columns, loc *time.Location) []Event {
	csCol, _ := cols.Index(models.RoleCableSystem)
	segCol, _ := cols.Index(models.RoleAffectedSegment)
	startCol, _ := cols.Index(models.RoleStartDate)
	endCol, _ := cols.Index(models.RoleEndDate)

	var events []Event
	for r := range t.Rows {
		cs := strings.TrimSpace(t.Cell(r, csCol))
		seg := strings.TrimSpace(t.Cell(r, segCol))
		if cs == "" || seg == "" {
			continue
		}
		start, ok := ParseDate(t.Cell(r, startCol), loc)
		if !ok {
			continue
		}
		end, ok := ParseDate(t.Cell(r, endCol), loc)
		if !ok || !end.After(start) {
			continue
		}
		events = append(events, Event{CableSystem: cs, Segment: seg, Start: start, End: end})
	}
	return events
}

// SliceByMonth découpe l'événement aux bornes de mois [1er du mois, 1er du mois suivant)
// du fuseau loc. Seules les parts non vides sont renvoyées.
func SliceByMonth(ev Event, loc *time.Location) []Slice {
	start, end := ev.Start.In(loc), ev.End.In(loc)
	var out []Slice
	for _, monthStart := range MonthsBetweenInclusive(start, end) {
		monthEnd := monthStart.AddDate(0, 1, 0)
		from, to := start, end
		if from.Before(monthStart) {
			from = monthStart
		}
		if to.After(monthEnd) {
			to = monthEnd
		}
		if !to.After(from) {
			continue
		}
		out = append(out, Slice{
			CableSystem: ev.CableSystem,
			Segment:     ev.Segment,
			Year:        monthStart.Year(),
			Month:       int(monthStart.Month()) - 1,
			Start:       from,
			End:         to,
		})
	}
	return out
}

// mergeIntervals trie par début et fusionne les intervalles qui se chevauchent ou se touchent.
func mergeIntervals(in []interval) []interval {
	if len(in) == 0 {
		return nil
	}
	sorted := append([]interval(nil), in...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start.Before(sorted[j].start) })

	merged := []interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.start.After(last.end) {
			if iv.end.After(last.end) {
				last.end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// downtimeSeconds somme les durées fusionnées, en secondes entières tronquées.
func downtimeSeconds(in []interval) int64 {
	var total int64
	for _, iv := range mergeIntervals(in) {
		total += int64(iv.end.Sub(iv.start) / time.Second)
	}
	return total
}

// percentAvailable borne le résultat à [0, 100].
func percentAvailable(totalSeconds, downtime int64) float64 {
	if totalSeconds == 0 {
		return 100
	}
	p := float64(totalSeconds-downtime) / float64(totalSeconds) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ComputeAvailability calcule le pourcentage de disponibilité pour chaque câble et
// segment des domaines, chaque année observée et chaque mois. Les axes câble/segment
// sont exactement les domaines. L'axe des années ne contient que les années d'au moins
// une tranche mensuelle : un incident finissant le 1er janvier à 00:00 n'ajoute pas
// l'année suivante (pas de ligne à 100 %). Si une colonne manque, le rapport est vide
// et l'erreur est une *models.MissingColumnsError.
func ComputeAvailability(t models.Table, domains models.Domains, loc *time.Location) (models.AvailabilityReport, error) {
	if loc == nil {
		loc = time.UTC
	}
	report := models.AvailabilityReport{
		CableSystems: []string{},
		Segments:     []string{},
		Years:        []int{},
		Percent:      map[string]map[string]map[int][12]float64{},
	}
	cols := schema.ResolveColumns(t.Header)
	if err := cols.Require(models.RoleCableSystem, models.RoleAffectedSegment,
		models.RoleStartDate, models.RoleEndDate); err != nil {
		return report, err
	}

	cells := map[cellKey][]interval{}
	years := map[int]struct{}{}
	for _, ev := range ExtractEvents(t, cols, loc) {
		for _, s := range SliceByMonth(ev, loc) {
			k := cellKey{cs: s.CableSystem, seg: s.Segment, year: s.Year, month: s.Month}
			cells[k] = append(cells[k], interval{start: s.Start, end: s.End})
			years[s.Year] = struct{}{}
		}
	}
	for y := range years {
		report.Years = append(report.Years, y)
	}
	sort.Ints(report.Years)

	report.CableSystems = append(report.CableSystems, domains.CableSystem...)
	report.Segments = append(report.Segments, domains.AffectedSegment...)
	for _, cs := range report.CableSystems {
		bySeg := make(map[string]map[int][12]float64, len(report.Segments))
		for _, seg := range report.Segments {
			byYear := make(map[int][12]float64, len(report.Years))
			for _, y := range report.Years {
				var months [12]float64
				for m := 0; m < 12; m++ {
					total := int64(DaysInMonth(y, m)) * secondsPerDay
					down := downtimeSeconds(cells[cellKey{cs: cs, seg: seg, year: y, month: m}])
					months[m] = percentAvailable(total, down)
				}
				byYear[y] = months
			}
			bySeg[seg] = byYear
		}
		report.Percent[cs] = bySeg
	}
	return report, nil
}

// OutageSummary compte les lignes par RFO et par câble. L'axe RFO suit l'ordre de
// première apparition, l'axe câble est le domaine fourni.
func OutageSummary(t models.Table, cableSystems []string) (models.OutageSummary, error) {
	summary := models.OutageSummary{
		CableSystems: append([]string{}, cableSystems...),
		RFOTypes:     []string{},
		Counts:       map[string]map[string]int{},
	}
	cols := schema.ResolveColumns(t.Header)
	if err := cols.Require(models.RoleCableSystem, models.RoleRFO); err != nil {
		return summary, err
	}
	csCol, _ := cols.Index(models.RoleCableSystem)
	rfoCol, _ := cols.Index(models.RoleRFO)

	for r := range t.Rows {
		cs := strings.TrimSpace(t.Cell(r, csCol))
		rfo := strings.TrimSpace(t.Cell(r, rfoCol))
		if cs == "" || rfo == "" {
			continue
		}
		if _, ok := summary.Counts[rfo]; !ok {
			summary.RFOTypes = append(summary.RFOTypes, rfo)
			summary.Counts[rfo] = map[string]int{}
		}
		summary.Counts[rfo][cs]++
	}
	return summary, nil
}

// String sert aux journaux et aux messages de test.
func (s Slice) String() string {
	return fmt.Sprintf("%s/%s %s [%s, %s)", s.CableSystem, s.Segment,
		FormatMonth(s.Start), s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
}
