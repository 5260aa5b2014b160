package domain

import (
	"context"
	"time"
)

// DateLayout is the calendar date format used by the dashboard.
const DateLayout = "2006-01-02"

// DailyRecord is one day of production data for a flock.
type DailyRecord struct {
	ID                 string  `json:"id"`
	FlockID            string  `json:"flock_id" validate:"required"`
	FlockEntryDate     string  `json:"flock_entry_date" validate:"required,datetime=2006-01-02"`
	RecordDate         string  `json:"record_date" validate:"required,datetime=2006-01-02"`
	Population         int     `json:"population" validate:"gt=0"`
	Mortality          int     `json:"mortality" validate:"gte=0"`
	Cull               int     `json:"cull" validate:"gte=0"`
	EggProduction      int     `json:"egg_production" validate:"gte=0"`
	EggWeightKg        float64 `json:"egg_weight_kg" validate:"gte=0"`
	AverageBodyWeightG float64 `json:"average_body_weight_g" validate:"gte=0"`
	FeedConsumptionKg  float64 `json:"feed_consumption_kg" validate:"gte=0"`
	Notes              string  `json:"notes,omitempty"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Status classifies an actual value against a standard band.
type Status string

const (
	StatusBelow  Status = "below"
	StatusWithin Status = "within"
	StatusAbove  Status = "above"
)

// Metric names reported in assessments.
const (
	MetricHenDay     = "hen_day_percent"
	MetricFeedIntake = "feed_intake_g"
	MetricEggWeight  = "egg_weight_g"
	MetricBodyWeight = "body_weight_g"
	MetricFCR        = "fcr"
)

// MetricAssessment compares one actual value with its weekly band.
type MetricAssessment struct {
	Name   string  `json:"name"`
	Actual float64 `json:"actual"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Status Status  `json:"status"`
}

// Assessment is the result of comparing a daily record with the standard.
type Assessment struct {
	ID            string             `json:"id"`
	FlockID       string             `json:"flock_id"`
	RecordID      string             `json:"record_id,omitempty"`
	RecordDate    string             `json:"record_date"`
	AgeDays       int                `json:"age_days"`
	AgeWeek       int                `json:"age_week"`
	StandardFound bool               `json:"standard_found"`
	Metrics       []MetricAssessment `json:"metrics"`
	ProcessedAt   time.Time          `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
