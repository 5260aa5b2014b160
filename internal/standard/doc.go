// Package standard parses breed performance standards and answers weekly
// target lookups against them.
//
// # Data Source
//
// Breed companies publish management guides with one row per week of flock
// age. The embedded table is the Hy-Line Max Pro guide for weeks 18–30,
// transcribed as semicolon-delimited text with Indonesian column headers.
//
// # Table Conventions
//
// Number format:
//
//	A comma is the decimal separator: "0,25" = 0.25, "46,5" = 46.5.
//
// Ranges:
//
//	A published band is written "min–max" using an EN DASH (U+2013), not an
//	ASCII hyphen: "83–86" = 83 to 86 g/bird/day. A single value is a band
//	with min == max.
//
// Columns (fixed positions, header row ignored):
//
//	0  age in weeks
//	1  cumulative mortality %
//	2  body weight g
//	3  water consumption ml/bird/day
//	4  feed intake g/bird/day
//	5  cumulative feed intake g/bird
//	6  uniformity %
//	7  hen-day egg production % (blank before onset of lay)
//	8–10 cumulative egg counts and egg mass (not used)
//	11 average egg weight g (may be blank)
//
// Unparsable or empty numeric cells read as zero. Blank production and egg
// weight cells are absent rather than zero so callers can tell "no data"
// from a measured zero. See [ParseTableReport] for per-cell diagnostics.
//
// # Feed Conversion Ratio
//
// The guide does not publish FCR per week. It is derived from the midpoints
// of feed intake, hen-day production and egg weight (60 g when the guide
// leaves egg weight blank) and widened to a ±10% band. See [deriveFCR].
//
// # Lookup
//
// [Table.ForWeek] is an exact match on age in weeks. Missing weeks return
// false; nothing is interpolated.
package standard
