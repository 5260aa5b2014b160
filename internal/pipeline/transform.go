package pipeline

import (
	"context"

	"github.com/smartfarm/flock-performance-service/internal/domain"
	"github.com/smartfarm/flock-performance-service/internal/standard"
)

// AssessmentTransformer implements Transformer by validating each daily
// record and assessing it against a shared standard table.
type AssessmentTransformer struct {
	table *standard.Table
}

// NewTransformer creates an AssessmentTransformer over an immutable table.
func NewTransformer(table *standard.Table) *AssessmentTransformer {
	return &AssessmentTransformer{table: table}
}

func (t *AssessmentTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Assessment, error) {
	rec, err := domain.ParseDailyRecord(raw)
	if err != nil {
		return domain.Assessment{}, err
	}
	return domain.Assess(rec, t.table)
}
