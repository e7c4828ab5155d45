package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

// SheetName is the worksheet WriteXLSX fills.
const SheetName = "Data"

// WriteXLSX writes d as a single-sheet workbook. Numbers stay numeric and
// missing cells are left blank.
func WriteXLSX(w io.Writer, d *dataset.Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]any, d.NumCols())
	for i, n := range d.Names() {
		header[i] = n
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]any, d.NumCols())
	for r := 0; r < d.NumRows(); r++ {
		for c := range row {
			cell := d.Cell(r, c)
			if v, ok := cell.Float(); ok {
				row[c] = v
			} else if s, ok := cell.Text(); ok {
				row[c] = s
			} else {
				row[c] = nil
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, axis, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
