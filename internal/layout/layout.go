// Package layout maps calendar weeks onto a fixed discrete column budget.
// The mapping is pure: same inputs always yield identical column
// boundaries, which is what makes regenerated charts diffable.
package layout

import (
	"fmt"
	"time"
)

// Mapper maps 1-based week numbers to column indexes in [0, budget-1].
// Weeks get equal-width buckets computed by integer division, with the
// remainder distributed to the earliest weeks.
type Mapper struct {
	baseline time.Time
	weeks    int
	budget   int
	// starts[i] is the first column of week i+1; starts[weeks] == budget.
	starts []int
}

// NewMapper builds a mapper for a window of weeks starting at baseline.
func NewMapper(baseline time.Time, weeks, budget int) (*Mapper, error) {
	if weeks < 1 {
		return nil, fmt.Errorf("window must span at least one week, got %d", weeks)
	}
	if budget < 1 {
		return nil, fmt.Errorf("column budget must be at least 1, got %d", budget)
	}

	base := budget / weeks
	rem := budget % weeks

	starts := make([]int, weeks+1)
	col := 0
	for i := 0; i < weeks; i++ {
		starts[i] = col
		col += base
		if i < rem {
			col++
		}
	}
	starts[weeks] = budget

	return &Mapper{baseline: baseline, weeks: weeks, budget: budget, starts: starts}, nil
}

// Weeks returns the window length in weeks.
func (m *Mapper) Weeks() int { return m.weeks }

// Budget returns the total column budget.
func (m *Mapper) Budget() int { return m.budget }

// ColumnStart returns the first column of week, clamped to [0, budget-1].
func (m *Mapper) ColumnStart(week int) int {
	return m.clamp(m.starts[m.clampWeek(week)-1])
}

// ColumnEnd returns the last column of week, clamped to [0, budget-1].
// A week narrower than one column still reports its start column, so no
// week ever collapses below the minimum width.
func (m *Mapper) ColumnEnd(week int) int {
	w := m.clampWeek(week)
	end := m.clamp(m.starts[w] - 1)
	if start := m.ColumnStart(week); end < start {
		end = start
	}
	return end
}

// Span returns the inclusive column range covering startWeek..endWeek.
// A degenerate range (startWeek == endWeek, or a window narrower than one
// column) still occupies at least one column.
func (m *Mapper) Span(startWeek, endWeek int) (int, int) {
	start := m.ColumnStart(startWeek)
	end := m.ColumnEnd(endWeek)
	if end < start {
		end = start
	}
	return start, end
}

// WeekStart returns the calendar date on which week begins.
func (m *Mapper) WeekStart(week int) time.Time {
	return m.baseline.AddDate(0, 0, (week-1)*7)
}

func (m *Mapper) clampWeek(week int) int {
	if week < 1 {
		return 1
	}
	if week > m.weeks {
		return m.weeks
	}
	return week
}

func (m *Mapper) clamp(col int) int {
	if col < 0 {
		return 0
	}
	if col > m.budget-1 {
		return m.budget - 1
	}
	return col
}
