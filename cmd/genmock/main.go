// Command genmock writes a JSON array of daily flock records whose values sit
// at the midpoints of the breed standard, one record per day of each week in
// the requested range. The fixtures feed the pipeline and integration tests
// and can be replayed onto the source topic.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/daily_records.json \
//	  -flock FLOCK-A -entry 2024-01-01 -from 18 -to 30 -population 5000
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"github.com/smartfarm/flock-performance-service/internal/domain"
	"github.com/smartfarm/flock-performance-service/internal/standard"
)

type options struct {
	out        string
	standards  string
	flockID    string
	entry      string
	fromWeek   int
	toWeek     int
	population int
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("genmock", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.out, "out", "", "output path for the daily record JSON fixture")
	fs.StringVar(&opts.standards, "standards", "", "standard table file (default: embedded Hy-Line Max Pro)")
	fs.StringVar(&opts.flockID, "flock", "FLOCK-001", "flock ID stamped on every record")
	fs.StringVar(&opts.entry, "entry", "2024-01-01", "flock entry date (YYYY-MM-DD)")
	fs.IntVar(&opts.fromWeek, "from", 18, "first week of age to generate")
	fs.IntVar(&opts.toWeek, "to", 30, "last week of age to generate")
	fs.IntVar(&opts.population, "population", 1000, "birds in the flock")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.out == "" {
		fs.Usage()
		return errors.New("missing required flag: -out")
	}

	table, _, err := standard.LoadFile(opts.standards)
	if err != nil {
		return err
	}

	records, err := generate(table, opts)
	if err != nil {
		return err
	}

	if err := writeJSON(opts.out, records); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "wrote %d records for %s to %s\n", len(records), opts.flockID, opts.out)
	return nil
}

// generate builds seven records per week with a standard row. Weeks the
// table does not cover are left out.
func generate(table *standard.Table, opts options) ([]domain.DailyRecord, error) {
	if opts.population <= 0 {
		return nil, fmt.Errorf("population must be positive, got %d", opts.population)
	}
	if opts.fromWeek < 0 || opts.toWeek < opts.fromWeek {
		return nil, fmt.Errorf("invalid week range %d..%d", opts.fromWeek, opts.toWeek)
	}
	entry, err := time.Parse(domain.DateLayout, opts.entry)
	if err != nil {
		return nil, fmt.Errorf("parse -entry: %w", err)
	}

	weeks := table.ForWeekRange(opts.fromWeek, opts.toWeek)
	if len(weeks) == 0 {
		return nil, fmt.Errorf("standard has no rows for weeks %d..%d", opts.fromWeek, opts.toWeek)
	}

	records := make([]domain.DailyRecord, 0, len(weeks)*7)
	for _, ws := range weeks {
		for d := 0; d < 7; d++ {
			date := entry.AddDate(0, 0, ws.Week*7+d).Format(domain.DateLayout)
			records = append(records, midpointRecord(opts.flockID, opts.entry, date, opts.population, ws))
		}
	}
	return records, nil
}

func midpointRecord(flockID, entry, date string, population int, ws standard.WeeklyStandard) domain.DailyRecord {
	pop := float64(population)
	rec := domain.DailyRecord{
		ID:                 flockID + "-" + date,
		FlockID:            flockID,
		FlockEntryDate:     entry,
		RecordDate:         date,
		Population:         population,
		AverageBodyWeightG: ws.BodyWeightGrams.Mid(),
		FeedConsumptionKg:  round3(pop * ws.FeedIntakeGrams.Mid() / 1000),
	}

	if ws.EggProductionPercent != nil {
		rec.EggProduction = int(math.Round(pop * ws.EggProductionPercent.Mid() / 100))
		weight := standard.DefaultEggWeightGrams
		if ws.EggWeightGrams != nil {
			weight = ws.EggWeightGrams.Mid()
		}
		rec.EggWeightKg = round3(float64(rec.EggProduction) * weight / 1000)
	}
	return rec
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
