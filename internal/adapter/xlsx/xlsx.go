// Package xlsx renders a standard table as an Excel workbook for people who
// keep their flock sheets in a spreadsheet.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/smartfarm/flock-performance-service/internal/standard"
)

// SheetName is the name of the single sheet in an exported workbook.
const SheetName = "Standard"

// Header is the first row of the exported sheet. Every range column is split
// into its min and max.
var Header = []any{
	"Week",
	"Mortality cum. %",
	"Body weight min (g)", "Body weight max (g)",
	"Water min (ml)", "Water max (ml)",
	"Feed intake min (g)", "Feed intake max (g)",
	"Cum. feed min (g)", "Cum. feed max (g)",
	"Uniformity %",
	"Hen-day min %", "Hen-day max %",
	"Egg weight min (g)", "Egg weight max (g)",
	"FCR min", "FCR max",
}

// Export writes table as an xlsx workbook to w.
func Export(table *standard.Table, w io.Writer) error {
	f, err := build(table)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile writes table as an xlsx workbook at path.
func WriteFile(table *standard.Table, path string) error {
	f, err := build(table)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func build(table *standard.Table) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, ws := range table.Records() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := rowValues(ws)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write week %d: %w", ws.Week, err)
		}
	}
	return f, nil
}

func rowValues(ws standard.WeeklyStandard) []any {
	row := []any{
		ws.Week,
		ws.MortalityCumulativePercent,
		ws.BodyWeightGrams.Min, ws.BodyWeightGrams.Max,
		ws.WaterConsumptionMl.Min, ws.WaterConsumptionMl.Max,
		ws.FeedIntakeGrams.Min, ws.FeedIntakeGrams.Max,
		ws.CumulativeFeedIntakeGrams.Min, ws.CumulativeFeedIntakeGrams.Max,
		ws.UniformityPercent,
	}
	row = append(row, optional(ws.EggProductionPercent)...)
	row = append(row, optional(ws.EggWeightGrams)...)
	return append(row, optional(ws.FeedConversionRatio)...)
}

// optional leaves both cells blank for an absent band.
func optional(r *standard.Range) []any {
	if r == nil {
		return []any{"", ""}
	}
	return []any{r.Min, r.Max}
}
