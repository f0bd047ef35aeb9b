package research

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/funding"
	"ccm/internal/intervention"
)

const xlsxSheet = "Sheet1"

// distColumns names the five sheet columns that define one distribution.
type distColumns struct {
	kind, low, high, lclip, rclip string
}

func (d distColumns) names() []string {
	return []string{d.kind, d.low, d.high, d.lclip, d.rclip}
}

var (
	fteColumns = distColumns{"years distribution", "years FTE - low", "years FTE - high", "years FTE lclip", "years FTE rclip"}

	conclusionsColumns = distColumns{"concl updating distribution",
		"conclusions that require updating - low", "conclusions that require updating - high",
		"conclusions lclip", "conclusions rclip"}

	targetUpdatingColumns = distColumns{"target_updating distribution",
		"target_updating - low", "target_updating - high", "target_updating lclip", "target_updating rclip"}

	moneyColumns = distColumns{"influenceable distribution",
		"$M influenceable per year low", "$M influenceable per year high", "influenceable lclip", "influenceable rclip"}

	shareColumns = distColumns{"percent money influenceable - distribution",
		"percent money influenceable - low", "percent money influenceable - high",
		"percent influenceable lclip", "percent influenceable rclip"}

	yearsColumns = distColumns{"years counterfactual credit - distribution",
		"years counterfactual credit - low", "years counterfactual credit - high",
		"counterfactual lclip", "counterfactual rclip"}
)

var identityColumns = []string{
	"Short name", "Project/Question", "Description", "Cause", "Sub-cause",
	"Target Intervention", "Current Intervention",
}

// SheetColumns is the header row of a projects sheet.
func SheetColumns() []string {
	out := append([]string(nil), identityColumns...)
	for _, d := range []distColumns{fteColumns, conclusionsColumns, targetUpdatingColumns, moneyColumns, shareColumns, yearsColumns} {
		out = append(out, d.names()...)
	}
	return out
}

// SheetDistribution is a normal or lognormal 90% interval with optional
// clips, as written in a projects sheet.
type SheetDistribution struct {
	Kind  string
	Low   float64
	High  float64
	LClip *float64
	RClip *float64
}

func (s SheetDistribution) cells() []string {
	clip := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'g', -1, 64)
	}
	return []string{
		s.Kind,
		strconv.FormatFloat(s.Low, 'g', -1, 64),
		strconv.FormatFloat(s.High, 'g', -1, 64),
		clip(s.LClip),
		clip(s.RClip),
	}
}

func (s SheetDistribution) distribution() (dist.Distribution, error) {
	var opts []dist.Option
	if s.LClip != nil {
		opts = append(opts, dist.LClip(*s.LClip))
	}
	if s.RClip != nil {
		opts = append(opts, dist.RClip(*s.RClip))
	}
	switch s.Kind {
	case "normal":
		return dist.Norm(s.Low, s.High, opts...)
	case "lognormal":
		return dist.Lognorm(s.Low, s.High, opts...)
	}
	return dist.Distribution{}, apperr.Validation("unknown distribution type %q", s.Kind)
}

// SheetRow is one project of a projects sheet.
type SheetRow struct {
	ShortName           string
	Name                string
	Description         string
	Cause               string
	SubCause            string
	TargetIntervention  string
	CurrentIntervention string

	FTEYears                   SheetDistribution
	ConclusionsRequireUpdating SheetDistribution
	TargetUpdating             SheetDistribution
	MoneyInAreaMillions        SheetDistribution
	PercentMoneyInfluenceable  SheetDistribution
	YearsCredit                SheetDistribution
}

// Record returns the row's cells in SheetColumns order.
func (r SheetRow) Record() []string {
	out := []string{r.ShortName, r.Name, r.Description, r.Cause, r.SubCause, r.TargetIntervention, r.CurrentIntervention}
	for _, d := range []SheetDistribution{r.FTEYears, r.ConclusionsRequireUpdating, r.TargetUpdating,
		r.MoneyInAreaMillions, r.PercentMoneyInfluenceable, r.YearsCredit} {
		out = append(out, d.cells()...)
	}
	return out
}

// Project resolves the row's interventions and builds a project funded by
// its current intervention.
func (r SheetRow) Project(catalog *intervention.Catalog) (*Project, error) {
	target, err := catalog.Get(r.TargetIntervention)
	if err != nil {
		return nil, err
	}
	current, err := catalog.Get(r.CurrentIntervention)
	if err != nil {
		return nil, err
	}
	p := &Project{
		ShortName:          r.ShortName,
		Name:               r.Name,
		Description:        r.Description,
		Cause:              r.Cause,
		SubCause:           r.SubCause,
		TargetIntervention: target,
		Profile: funding.SinglePool("Funded by Client",
			funding.NewSpecifiedPool(current, "Counterfactual - "+r.CurrentIntervention)),
	}
	fields := []struct {
		name string
		in   SheetDistribution
		out  *dist.Distribution
	}{
		{"fte_years", r.FTEYears, &p.FTEYears},
		{"conclusions_require_updating", r.ConclusionsRequireUpdating, &p.ConclusionsRequireUpdating},
		{"target_updating", r.TargetUpdating, &p.TargetUpdating},
		{"money_in_area_millions", r.MoneyInAreaMillions, &p.MoneyInAreaMillions},
		{"percent_money_influenceable", r.PercentMoneyInfluenceable, &p.PercentMoneyInfluenceable},
		{"years_credit", r.YearsCredit, &p.YearsCredit},
	}
	for _, f := range fields {
		d, err := f.in.distribution()
		if err != nil {
			return nil, apperr.Wrap(err, f.name)
		}
		*f.out = d
	}
	return p, p.Validate()
}

// LoadProjects reads a projects sheet. CSV files and the first sheet of
// XLSX workbooks are supported.
func LoadProjects(path string, catalog *intervention.Catalog) ([]*Project, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	parsed, err := ParseSheet(rows)
	if err != nil {
		return nil, apperr.Wrapf(err, "projects sheet %s", path)
	}
	out := make([]*Project, 0, len(parsed))
	for i, r := range parsed {
		p, err := r.Project(catalog)
		if err != nil {
			return nil, apperr.Wrapf(err, "projects sheet %s row %d (%s)", path, i+2, r.ShortName)
		}
		out = append(out, p)
	}
	log.Info().Str("path", path).Int("projects", len(out)).Msg("Loaded research projects")
	return out, nil
}

func readSheet(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, apperr.Wrap(err, "failed to open projects CSV")
		}
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			return nil, apperr.WithCode(apperr.CodeInvalidInput, apperr.Wrap(err, "failed to read projects CSV"))
		}
		return rows, nil
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, apperr.Wrap(err, "failed to open projects workbook")
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, apperr.Wrap(err, "failed to read projects workbook")
		}
		return rows, nil
	}
	return nil, apperr.InvalidInput("unsupported projects file type: " + path)
}

// ParseSheet turns a header row plus data rows into SheetRows. Columns are
// matched by header name, so their order does not matter.
func ParseSheet(rows [][]string) ([]SheetRow, error) {
	if len(rows) < 1 {
		return nil, apperr.InvalidInput("projects sheet is empty")
	}
	index := map[string]int{}
	for i, h := range rows[0] {
		index[strings.TrimSpace(h)] = i
	}
	for _, c := range SheetColumns() {
		if _, ok := index[c]; !ok {
			return nil, apperr.InvalidInput("projects sheet is missing column " + strconv.Quote(c))
		}
	}

	var out []SheetRow
	for n, row := range rows[1:] {
		cell := func(col string) string {
			i := index[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if cell("Short name") == "" {
			continue
		}
		var err error
		distribution := func(cols distColumns) SheetDistribution {
			d := SheetDistribution{Kind: cell(cols.kind)}
			if err == nil {
				d.Low, err = parseFloat(cell(cols.low), cols.low)
			}
			if err == nil {
				d.High, err = parseFloat(cell(cols.high), cols.high)
			}
			if err == nil {
				d.LClip, err = parseClip(cell(cols.lclip), cols.lclip)
			}
			if err == nil {
				d.RClip, err = parseClip(cell(cols.rclip), cols.rclip)
			}
			return d
		}
		r := SheetRow{
			ShortName:                  cell("Short name"),
			Name:                       cell("Project/Question"),
			Description:                cell("Description"),
			Cause:                      cell("Cause"),
			SubCause:                   cell("Sub-cause"),
			TargetIntervention:         cell("Target Intervention"),
			CurrentIntervention:        cell("Current Intervention"),
			FTEYears:                   distribution(fteColumns),
			ConclusionsRequireUpdating: distribution(conclusionsColumns),
			TargetUpdating:             distribution(targetUpdatingColumns),
			MoneyInAreaMillions:        distribution(moneyColumns),
			PercentMoneyInfluenceable:  distribution(shareColumns),
			YearsCredit:                distribution(yearsColumns),
		}
		if err != nil {
			return nil, apperr.Wrapf(err, "row %d", n+2)
		}
		out = append(out, r)
	}
	return out, nil
}

func parseFloat(s, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, apperr.InvalidInput("column " + strconv.Quote(column) + ": " + strconv.Quote(s) + " is not a number")
	}
	return v, nil
}

func parseClip(s, column string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parseFloat(s, column)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// WriteSheet writes rows with a header to a CSV or XLSX file, chosen by
// extension.
func WriteSheet(path string, rows []SheetRow) error {
	records := [][]string{SheetColumns()}
	for _, r := range rows {
		records = append(records, r.Record())
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return apperr.Wrap(err, "failed to create projects CSV")
		}
		defer f.Close()
		w := csv.NewWriter(f)
		if err := w.WriteAll(records); err != nil {
			return apperr.Wrap(err, "failed to write projects CSV")
		}
		return nil
	case ".xlsx":
		f := excelize.NewFile()
		defer f.Close()
		for r, record := range records {
			for c, v := range record {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return apperr.Wrap(err, "invalid cell")
				}
				if err := f.SetCellValue(xlsxSheet, cell, v); err != nil {
					return apperr.Wrap(err, "failed to write projects workbook")
				}
			}
		}
		if err := f.SaveAs(path); err != nil {
			return apperr.Wrap(err, "failed to save projects workbook")
		}
		return nil
	}
	return apperr.InvalidInput("unsupported projects file type: " + path)
}
