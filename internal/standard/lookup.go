package standard

// Table is an immutable, ordered set of weekly standards keyed by week.
// It is safe for concurrent use by any number of readers.
type Table struct {
	records []WeeklyStandard
}

// Len returns the number of weekly records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of all records in source order.
func (t *Table) Records() []WeeklyStandard {
	if t == nil {
		return nil
	}
	out := make([]WeeklyStandard, len(t.records))
	for i, r := range t.records {
		out[i] = r.clone()
	}
	return out
}

// Weeks returns the week numbers present, in source order.
func (t *Table) Weeks() []int {
	if t == nil {
		return nil
	}
	weeks := make([]int, len(t.records))
	for i, r := range t.records {
		weeks[i] = r.Week
	}
	return weeks
}

// ForWeek returns the record whose week equals week exactly. The boolean is
// false when the table has no such week; no zero-filled record is returned.
func (t *Table) ForWeek(week int) (WeeklyStandard, bool) {
	if t == nil {
		return WeeklyStandard{}, false
	}
	for _, r := range t.records {
		if r.Week == week {
			return r.clone(), true
		}
	}
	return WeeklyStandard{}, false
}

// ForWeekRange returns the records with start <= week <= end in source order.
// An inverted range returns an empty slice.
func (t *Table) ForWeekRange(start, end int) []WeeklyStandard {
	out := []WeeklyStandard{}
	if t == nil {
		return out
	}
	for _, r := range t.records {
		if r.Week >= start && r.Week <= end {
			out = append(out, r.clone())
		}
	}
	return out
}
