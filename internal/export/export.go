// Package export renders submissions as xlsx workbooks: the filtered list
// export and the per document approval sheet.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// AllMonths labels an export without a month filter
const AllMonths = "Semua Bulan"

// Headers are the fixed columns of the list export
var Headers = []string{
	"No", "ID Dokumen", "Nama", "Unit", "Kategori", "Tanggal Pengajuan",
	"Deskripsi", "Biaya", "Jumlah", "Jumlah Biaya", "Total Biaya", "Status",
}

var columnWidths = []float64{5, 22, 25, 20, 24, 18, 36, 15, 9, 16, 16, 34}

// Filter describes which submissions a list export covers
type Filter struct {
	DocType entity.DocType
	Unit    string
	// Month is 1-12, or 0 for the whole year
	Month int
	Year  int
}

// MonthLabel returns the Indonesian month name, or AllMonths for 0
func MonthLabel(month int) string {
	if month < 1 || month > 12 {
		return AllMonths
	}
	return monthNames[month-1]
}

// Filename returns {Type}_{UnitOrBlank}_{MonthLabel}_{Year}.xlsx
func Filename(f Filter) string {
	unit := strings.NewReplacer("/", "-", "\\", "-").Replace(f.Unit)
	return fmt.Sprintf("%s_%s_%s_%d.xlsx", f.DocType.Label(), unit, MonthLabel(f.Month), f.Year)
}

// Range returns the submittedAt window [from, to) the filter selects
func (f Filter) Range(loc *time.Location) (time.Time, time.Time) {
	if f.Month < 1 || f.Month > 12 {
		from := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(1, 0, 0)
	}
	from := time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

// Exporter builds workbooks
type Exporter struct {
	loc    *time.Location
	logger *zap.Logger
}

// NewExporter creates an exporter that prints dates in loc
func NewExporter(loc *time.Location, logger *zap.Logger) *Exporter {
	if loc == nil {
		loc = time.Local
	}
	return &Exporter{loc: loc, logger: logger}
}

// Location is the time zone dates are printed in
func (e *Exporter) Location() *time.Location {
	return e.loc
}

// Spreadsheet writes one row per line item. Submission level columns are
// merged across the rows of the same submission.
func (e *Exporter) Spreadsheet(subs []*entity.Submission, f Filter) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := f.DocType.Label()
	if err := wb.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	moneyStyle, err := wb.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}

	for i, h := range Headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		e.setCell(wb, sheet, col+"1", h)
		if err := wb.SetColWidth(sheet, col, col, columnWidths[i]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := wb.SetCellStyle(sheet, "A1", "L1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	row := 2
	for n, sub := range subs {
		items := sub.LineItems
		if len(items) == 0 {
			items = []entity.LineItem{{}}
		}
		first := row

		for _, item := range items {
			e.setCell(wb, sheet, cell("G", row), item.Description)
			e.setCell(wb, sheet, cell("H", row), item.Biaya)
			e.setCell(wb, sheet, cell("I", row), item.Jumlah)
			e.setCell(wb, sheet, cell("J", row), item.JumlahBiaya)
			row++
		}
		last := row - 1

		e.setCell(wb, sheet, cell("A", first), n+1)
		e.setCell(wb, sheet, cell("B", first), sub.DisplayID)
		e.setCell(wb, sheet, cell("C", first), sub.User.Nama)
		e.setCell(wb, sheet, cell("D", first), sub.User.Unit)
		e.setCell(wb, sheet, cell("E", first), sub.Category)
		e.setCell(wb, sheet, cell("F", first), sub.SubmittedAt.In(e.loc).Format("02-01-2006"))
		e.setCell(wb, sheet, cell("K", first), sub.TotalBiaya)
		e.setCell(wb, sheet, cell("L", first), statusText(sub))

		if last > first {
			for _, col := range []string{"A", "B", "C", "D", "E", "F", "K", "L"} {
				if err := wb.MergeCell(sheet, cell(col, first), cell(col, last)); err != nil {
					return nil, fmt.Errorf("failed to merge %s: %w", col, err)
				}
			}
		}
	}

	if row > 2 {
		if err := wb.SetCellStyle(sheet, "H2", cell("K", row-1), moneyStyle); err != nil {
			return nil, fmt.Errorf("failed to style amounts: %w", err)
		}
	}

	e.logger.Info("Spreadsheet export built",
		zap.String("doc_type", string(f.DocType)),
		zap.Int("submissions", len(subs)),
		zap.Int("rows", row-2))

	return writeBytes(wb)
}

// statusText is the last history label, which says who acted, falling back to the bare status
func statusText(sub *entity.Submission) string {
	if last, ok := sub.LastEntry(); ok && last.Status != "" {
		return last.Status
	}
	return string(sub.Status)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// setCell sets a cell value, logging rather than failing on a bad reference
func (e *Exporter) setCell(f *excelize.File, sheet, ref string, value interface{}) {
	if err := f.SetCellValue(sheet, ref, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", ref),
			zap.Error(err))
	}
}

func writeBytes(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
