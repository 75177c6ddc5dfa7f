package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"roadportal/internal/errs"
	"roadportal/internal/ports"
)

const (
	ReportSheet       = "Reports"
	headerRow         = 4
	reportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type column struct {
	label string
	width float64
	value func(ports.DamageReport) any
}

var reportColumns = []column{
	{"Report ID", 16, func(r ports.DamageReport) any { return r.ReportID }},
	{"Reported At", 20, func(r ports.DamageReport) any { return r.ReportedAt.Format("2006-01-02 15:04") }},
	{"Location", 32, func(r ports.DamageReport) any { return r.Location }},
	{"Barangay", 20, func(r ports.DamageReport) any { return r.Barangay }},
	{"Damage Type", 16, func(r ports.DamageReport) any { return string(r.DamageType) }},
	{"Severity", 12, func(r ports.DamageReport) any { return string(r.Severity) }},
	{"Status", 14, func(r ports.DamageReport) any { return string(r.Status) }},
	{"Publication", 14, func(r ports.DamageReport) any { return string(r.PublicationStatus) }},
	{"Assigned To", 20, func(r ports.DamageReport) any { return derefString(r.AssignedTo) }},
	{"Images", 10, func(r ports.DamageReport) any { return len(r.Images) }},
	{"Description", 48, func(r ports.DamageReport) any { return r.Description }},
	{"LGU Notes", 32, func(r ports.DamageReport) any { return r.LGUNotes }},
}

// ContentType is the MIME type of the workbook WriteReports produces.
func ContentType() string {
	return reportContentType
}

// FileName builds the download name for an export generated at the given time.
func FileName(at time.Time) string {
	return fmt.Sprintf("damage_reports_%s.xlsx", at.Format("20060102_150405"))
}

// WriteReports renders rows as a single-sheet workbook: a title block, a
// styled header on row 4 and one row per report.
func WriteReports(w io.Writer, title string, generatedAt time.Time, rows []ports.DamageReport) error {
	if w == nil {
		return errors.New("writer is required")
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	index, err := f.NewSheet(ReportSheet)
	if err != nil {
		return errs.Wrap(err, "create report sheet")
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errs.Wrap(err, "remove default sheet")
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if strings.TrimSpace(title) == "" {
		title = "Damage Reports"
	}
	if err := setCell(f, 1, 1, title, styles.title); err != nil {
		return err
	}
	if err := setCell(f, 1, 2, fmt.Sprintf("Generated %s, %d report(s)", generatedAt.Format("2006-01-02 15:04 MST"), len(rows)), 0); err != nil {
		return err
	}

	for i, col := range reportColumns {
		if err := setCell(f, i+1, headerRow, col.label, styles.header); err != nil {
			return err
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return errs.Wrap(err, "resolve column name")
		}
		if err := f.SetColWidth(ReportSheet, name, name, col.width); err != nil {
			return errs.Wrap(err, "set column width")
		}
	}

	for r, row := range rows {
		for i, col := range reportColumns {
			if err := setCell(f, i+1, headerRow+1+r, col.value(row), styles.data); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(ReportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return errs.Wrap(err, "freeze header row")
	}

	if err := f.Write(w); err != nil {
		return errs.Wrap(err, "write workbook")
	}
	return nil
}

type sheetStyles struct {
	title  int
	header int
	data   int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return sheetStyles{}, errs.Wrap(err, "create title style")
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return sheetStyles{}, errs.Wrap(err, "create header style")
	}

	data, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border: []excelize.Border{
			{Type: "left", Color: "CCCCCC", Style: 1},
			{Type: "right", Color: "CCCCCC", Style: 1},
			{Type: "top", Color: "CCCCCC", Style: 1},
			{Type: "bottom", Color: "CCCCCC", Style: 1},
		},
	})
	if err != nil {
		return sheetStyles{}, errs.Wrap(err, "create data style")
	}

	return sheetStyles{title: title, header: header, data: data}, nil
}

func setCell(f *excelize.File, col int, row int, value any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return errs.Wrap(err, "resolve cell name")
	}
	if err := f.SetCellValue(ReportSheet, cell, value); err != nil {
		return errs.Wrapf(err, "set cell %s", cell)
	}
	if style == 0 {
		return nil
	}
	if err := f.SetCellStyle(ReportSheet, cell, cell, style); err != nil {
		return errs.Wrapf(err, "style cell %s", cell)
	}
	return nil
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
