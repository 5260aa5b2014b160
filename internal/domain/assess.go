package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/smartfarm/flock-performance-service/internal/standard"
)

// assessmentNamespace scopes name-based assessment IDs to this service.
var assessmentNamespace = uuid.MustParse("6f1c7a52-3d0e-4b8e-9a57-1f0b5d6c2e91")

const day = 24 * time.Hour

// FlockAge returns the flock's age in whole days (rounded up) and in
// completed weeks between placement and the record date.
func FlockAge(entry, record time.Time) (days, week int) {
	diff := record.Sub(entry)
	if diff < 0 {
		diff = -diff
	}
	days = int((diff + day - 1) / day)
	return days, days / 7
}

// Assess compares a validated daily record with the standard for the flock's
// age. When the table has no row for that week the assessment carries
// StandardFound=false and no metrics.
func Assess(rec DailyRecord, table *standard.Table) (Assessment, error) {
	entry, recordDay, err := recordDates(rec)
	if err != nil {
		return Assessment{}, err
	}
	days, week := FlockAge(entry, recordDay)

	a := Assessment{
		ID:          assessmentID(rec.FlockID, rec.RecordDate),
		FlockID:     rec.FlockID,
		RecordID:    rec.ID,
		RecordDate:  rec.RecordDate,
		AgeDays:     days,
		AgeWeek:     week,
		Metrics:     []MetricAssessment{},
		ProcessedAt: clock.Now().UTC(),
	}

	ws, ok := table.ForWeek(week)
	if !ok {
		return a, nil
	}
	a.StandardFound = true
	a.Metrics = assessMetrics(rec, ws)
	return a, nil
}

// assessMetrics derives each actual value the record supports and classifies
// it against the matching band. Zero feed and body weight mean "not recorded".
func assessMetrics(rec DailyRecord, ws standard.WeeklyStandard) []MetricAssessment {
	metrics := make([]MetricAssessment, 0, 5)
	pop := float64(rec.Population)

	if ws.EggProductionPercent != nil && rec.Population > 0 {
		henDay := float64(rec.EggProduction) / pop * 100
		metrics = append(metrics, classify(MetricHenDay, henDay, *ws.EggProductionPercent))
	}

	if rec.FeedConsumptionKg > 0 && rec.Population > 0 {
		intake := rec.FeedConsumptionKg * 1000 / pop
		metrics = append(metrics, classify(MetricFeedIntake, intake, ws.FeedIntakeGrams))
	}

	if ws.EggWeightGrams != nil && rec.EggProduction > 0 && rec.EggWeightKg > 0 {
		eggWeight := rec.EggWeightKg * 1000 / float64(rec.EggProduction)
		metrics = append(metrics, classify(MetricEggWeight, eggWeight, *ws.EggWeightGrams))
	}

	if rec.AverageBodyWeightG > 0 {
		metrics = append(metrics, classify(MetricBodyWeight, rec.AverageBodyWeightG, ws.BodyWeightGrams))
	}

	if ws.FeedConversionRatio != nil && rec.FeedConsumptionKg > 0 && rec.EggWeightKg > 0 {
		fcr := rec.FeedConsumptionKg / rec.EggWeightKg
		metrics = append(metrics, classify(MetricFCR, fcr, *ws.FeedConversionRatio))
	}

	return metrics
}

func classify(name string, actual float64, band standard.Range) MetricAssessment {
	status := StatusWithin
	switch {
	case actual < band.Min:
		status = StatusBelow
	case actual > band.Max:
		status = StatusAbove
	}
	return MetricAssessment{Name: name, Actual: actual, Min: band.Min, Max: band.Max, Status: status}
}

// assessmentID derives a stable ID so replays of the same record upsert
// rather than duplicate.
func assessmentID(flockID, recordDate string) string {
	return uuid.NewSHA1(assessmentNamespace, []byte(flockID+"|"+recordDate)).String()
}

// SerializeAssessment marshals an assessment for the sink topic, keyed by
// flock so a flock's assessments stay ordered within one partition.
func SerializeAssessment(a Assessment) (OutputEvent, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return OutputEvent{
		Key:   []byte(a.FlockID),
		Value: data,
		Headers: map[string]string{
			"flock_id":     a.FlockID,
			"age_week":     strconv.Itoa(a.AgeWeek),
			"processed_at": a.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
