package standard

import (
	"fmt"
	"strings"
)

const (
	// minFields is the number of semicolon-separated fields a data row must carry.
	minFields = 12

	colWeek                 = 0
	colMortality            = 1
	colBodyWeight           = 2
	colWater                = 3
	colFeedIntake           = 4
	colCumulativeFeedIntake = 5
	colUniformity           = 6
	colEggProduction        = 7
	colEggWeight            = 11


	// fcrSpread widens the derived FCR point estimate into a band.
	fcrSpread = 0.10
)

// DefaultEggWeightGrams stands in for egg weight when the guide leaves it blank.
const DefaultEggWeightGrams = 60.0

// WeeklyStandard holds the published targets for one week of flock age.
type WeeklyStandard struct {
	Week                       int     `json:"week"`
	MortalityCumulativePercent float64 `json:"mortality_cumulative_percent"`
	BodyWeightGrams            Range   `json:"body_weight_g"`
	WaterConsumptionMl         Range   `json:"water_consumption_ml"`
	FeedIntakeGrams            Range   `json:"feed_intake_g"`
	CumulativeFeedIntakeGrams  Range   `json:"cumulative_feed_intake_g"`
	UniformityPercent          float64 `json:"uniformity_percent"`

	// Absent (nil) before onset of lay or when the guide leaves the cell blank.
	EggProductionPercent *Range `json:"egg_production_percent,omitempty"`
	EggWeightGrams       *Range `json:"egg_weight_g,omitempty"`

	// Derived, never parsed. See deriveFCR.
	FeedConversionRatio *Range `json:"feed_conversion_ratio,omitempty"`
}

// clone returns a deep copy so callers can never reach the table's storage.
func (w WeeklyStandard) clone() WeeklyStandard {
	w.EggProductionPercent = cloneRange(w.EggProductionPercent)
	w.EggWeightGrams = cloneRange(w.EggWeightGrams)
	w.FeedConversionRatio = cloneRange(w.FeedConversionRatio)
	return w
}

func cloneRange(r *Range) *Range {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// SkipReason explains why a data row was left out of a table.
type SkipReason string

const (
	SkipTooFewFields  SkipReason = "too_few_fields"
	SkipInvalidWeek   SkipReason = "invalid_week"
	SkipDuplicateWeek SkipReason = "duplicate_week"
)

// SkippedRow records a non-blank data row that did not become a record.
type SkippedRow struct {
	Line   int        `json:"line"` // 1-based, header is line 1
	Reason SkipReason `json:"reason"`
	Text   string     `json:"text"`
}

// BadCell records a non-empty cell whose text could not be read as a number.
// The record still exists; the affected value reads as zero.
type BadCell struct {
	Line   int    `json:"line"`
	Column int    `json:"column"` // 0-based field index
	Week   int    `json:"week"`
	Text   string `json:"text"`
}

// Report collects parse diagnostics. Parsing itself never fails.
type Report struct {
	Records  int          `json:"records"`
	Skipped  []SkippedRow `json:"skipped,omitempty"`
	BadCells []BadCell    `json:"bad_cells,omitempty"`
}

// Clean reports whether every data row parsed without diagnostics.
func (r Report) Clean() bool {
	return len(r.Skipped) == 0 && len(r.BadCells) == 0
}

// ParseTable parses a semicolon-delimited standard table. The first line is a
// header and is always skipped; malformed rows are dropped and malformed cells
// read as zero, so the result is always a usable (possibly empty) table.
func ParseTable(text string) *Table {
	t, _ := ParseTableReport(text)
	return t
}

// ParseTableReport is ParseTable plus diagnostics about dropped rows and
// unreadable cells.
func ParseTableReport(text string) (*Table, Report) {
	var report Report
	lines := strings.Split(text, "\n")
	records := make([]WeeklyStandard, 0, len(lines))
	seen := make(map[int]struct{}, len(lines))

	for i := 1; i < len(lines); i++ {
		lineNo := i + 1
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		fields := strings.Split(line, ";")
		if len(fields) < minFields {
			report.Skipped = append(report.Skipped, SkippedRow{Line: lineNo, Reason: SkipTooFewFields, Text: line})
			continue
		}

		week, ok := parseLeadingInt(fields[colWeek])
		if !ok {
			report.Skipped = append(report.Skipped, SkippedRow{Line: lineNo, Reason: SkipInvalidWeek, Text: line})
			continue
		}
		if _, dup := seen[week]; dup {
			report.Skipped = append(report.Skipped, SkippedRow{Line: lineNo, Reason: SkipDuplicateWeek, Text: line})
			continue
		}
		seen[week] = struct{}{}

		rp := rowParser{fields: fields, line: lineNo, week: week}
		records = append(records, rp.parse())
		report.BadCells = append(report.BadCells, rp.bad...)
	}

	report.Records = len(records)
	return &Table{records: records}, report
}

// rowParser reads one data row and remembers which cells were unreadable.
type rowParser struct {
	fields []string
	line   int
	week   int
	bad    []BadCell
}

func (p *rowParser) parse() WeeklyStandard {
	ws := WeeklyStandard{
		Week:                       p.week,
		MortalityCumulativePercent: p.number(colMortality),
		BodyWeightGrams:            p.rng(colBodyWeight),
		WaterConsumptionMl:         p.rng(colWater),
		FeedIntakeGrams:            p.rng(colFeedIntake),
		CumulativeFeedIntakeGrams:  p.rng(colCumulativeFeedIntake),
		UniformityPercent:          p.number(colUniformity),
		EggProductionPercent:       p.optionalRange(colEggProduction),
		EggWeightGrams:             p.optionalRange(colEggWeight),
	}
	ws.FeedConversionRatio = deriveFCR(ws.FeedIntakeGrams, ws.EggProductionPercent, ws.EggWeightGrams)
	return ws
}

func (p *rowParser) number(col int) float64 {
	v, ok := parseDecimal(p.fields[col])
	if !ok {
		p.markBad(col)
	}
	return v
}

func (p *rowParser) rng(col int) Range {
	r, ok := parseRangeCell(p.fields[col])
	if !ok {
		p.markBad(col)
	}
	return r
}

// optionalRange treats only a truly empty cell as absent. A cell holding just
// spaces is present and reads as {0, 0}.
func (p *rowParser) optionalRange(col int) *Range {
	if p.fields[col] == "" {
		return nil
	}
	r := p.rng(col)
	return &r
}

func (p *rowParser) markBad(col int) {
	p.bad = append(p.bad, BadCell{Line: p.line, Column: col, Week: p.week, Text: p.fields[col]})
}

// deriveFCR estimates feed conversion ratio (g feed per g egg mass) from
// band midpoints:
//
//	eggMass = (eggProduction% / 100) × eggWeight   (eggWeight defaults to 60 g)
//	fcr     = feedIntake / eggMass                   (0 when eggMass is 0)
//
// and returns {fcr×0.9, fcr×1.1}. It returns nil when egg production is absent.
func deriveFCR(feedIntake Range, eggProduction, eggWeight *Range) *Range {
	if eggProduction == nil {
		return nil
	}

	weight := DefaultEggWeightGrams
	if eggWeight != nil {
		weight = eggWeight.Mid()
	}

	eggMass := eggProduction.Mid() / 100 * weight
	var fcr float64
	if eggMass > 0 {
		fcr = feedIntake.Mid() / eggMass
	}

	return &Range{Min: fcr * (1 - fcrSpread), Max: fcr * (1 + fcrSpread)}
}

// String renders the skip for operator output.
func (s SkippedRow) String() string {
	return fmt.Sprintf("line %d: %s: %q", s.Line, s.Reason, s.Text)
}

// String renders the cell for operator output.
func (c BadCell) String() string {
	return fmt.Sprintf("line %d (week %d) column %d: unreadable %q", c.Line, c.Week, c.Column, c.Text)
}
