package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"incidents-dashboard/pkg/appconfig"
	"incidents-dashboard/pkg/database"
	"incidents-dashboard/pkg/models"
	"incidents-dashboard/pkg/schema"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type importOptions struct {
	workbookID string
	title      string
	sheet      string
	domains    bool
}

func newImportCommand(a *app) *cobra.Command {
	opts := importOptions{}
	cmd := &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Load a CSV export of the incident sheet into the MySQL store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.workbookID, "workbook", "", "identifiant du classeur (valeur de SHEET_ID)")
	cmd.Flags().StringVar(&opts.title, "title", "Incidents", "titre du classeur")
	cmd.Flags().StringVar(&opts.sheet, "sheet", models.DefaultSheetName, "nom de l'onglet")
	cmd.Flags().BoolVar(&opts.domains, "domains", true, "déduire les listes déroulantes Cable System / Affected Segment")
	_ = cmd.MarkFlagRequired("workbook")
	return cmd
}

func (a *app) runImport(ctx context.Context, path string, opts importOptions) error {
	if a.cfg.Backend != appconfig.BackendMySQL {
		return fmt.Errorf("import requires the mysql backend (got %q)", a.cfg.Backend)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	values, err := readCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	db, dsnUsed, err := database.Open(a.cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	a.logger.Debug("connected", "dsn", dsnUsed)
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(values) - 1))
	if err := database.ImportTable(ctx, db, opts.workbookID, opts.title, opts.sheet, values, func() {
		_ = bar.Add(1)
	}); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	_ = bar.Finish()

	if opts.domains {
		for col, allowed := range deriveDomains(values) {
			if err := database.SetValidation(ctx, db, opts.workbookID, opts.sheet, col, allowed); err != nil {
				return fmt.Errorf("set validation: %w", err)
			}
		}
	}
	a.logger.Info("import done", "workbook", opts.workbookID, "sheet", opts.sheet, "rows", len(values)-1)
	return nil
}

// readCSV accepte des lignes de longueurs différentes. Ligne 0 = en-tête.
func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	values, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	return values, nil
}

// deriveDomains construit les listes déroulantes des colonnes contraintes à partir
// des valeurs distinctes, dans l'ordre de première apparition.
func deriveDomains(values [][]string) map[int][]string {
	cols := schema.ResolveColumns(values[0])
	out := map[int][]string{}
	for _, role := range []models.Role{models.RoleCableSystem, models.RoleAffectedSegment} {
		col, ok := cols.Index(role)
		if !ok {
			continue
		}
		seen := map[string]bool{}
		allowed := []string{}
		for _, row := range values[1:] {
			if col >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[col])
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			allowed = append(allowed, v)
		}
		out[col] = allowed
	}
	return out
}
