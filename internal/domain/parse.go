package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecord marks a daily record that cannot be assessed. The pipeline
// skips such records instead of retrying them.
var ErrInvalidRecord = errors.New("invalid daily record")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors match the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseDailyRecord decodes and validates a RawEvent's value.
func ParseDailyRecord(raw RawEvent) (DailyRecord, error) {
	var rec DailyRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return DailyRecord{}, fmt.Errorf("parse daily record: %w: %w", ErrInvalidRecord, err)
	}
	if err := ValidateDailyRecord(rec); err != nil {
		return DailyRecord{}, err
	}
	return rec, nil
}

// ValidateDailyRecord checks required fields, date formats, non-negative
// quantities, and that the record is not dated before flock placement.
func ValidateDailyRecord(rec DailyRecord) error {
	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	entry, day, err := recordDates(rec)
	if err != nil {
		return err
	}
	if day.Before(entry) {
		return fmt.Errorf("%w: record_date %s precedes flock_entry_date %s",
			ErrInvalidRecord, rec.RecordDate, rec.FlockEntryDate)
	}
	return nil
}

func recordDates(rec DailyRecord) (entry, day time.Time, err error) {
	entry, err = time.Parse(DateLayout, rec.FlockEntryDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: flock_entry_date: %w", ErrInvalidRecord, err)
	}
	day, err = time.Parse(DateLayout, rec.RecordDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: record_date: %w", ErrInvalidRecord, err)
	}
	return entry, day, nil
}
