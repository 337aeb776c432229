// Package report derives numeric summaries from store snapshots. Every
// function is pure and total over its inputs: no I/O, no caching, no
// mutation. Consumers recompute on read; the HTTP layer layers its own cache
// on top where it needs one.
package report

import (
	"sort"

	"fintrack/internal/core"
)

// DateWindow bounds an aggregation to [Start, End], both inclusive. A zero
// bound means "unbounded" on that side, and a nil window means no bound at
// all.
type DateWindow struct {
	Start core.Date
	End   core.Date
}

func (w *DateWindow) contains(d core.Date) bool {
	if w == nil {
		return true
	}
	return d.Within(w.Start, w.End)
}

// CategoryTotal sums the amounts of expenses matching categoryID inside the
// window. No matches yield zero, never an error.
func CategoryTotal(expenses []core.Expense, categoryID string, window *DateWindow) core.Money {
	var cents int64
	for _, e := range expenses {
		if e.CategoryID != categoryID {
			continue
		}
		if !window.contains(e.Date) {
			continue
		}
		cents += e.Amount.Cents
	}
	return core.Cents(cents)
}

// Trend compares the calendar month containing the reference date against
// the immediately preceding calendar month.
type Trend struct {
	CurrentMonthTotal  core.Money `json:"currentMonthTotal"`
	PreviousMonthTotal core.Money `json:"previousMonthTotal"`
	PercentChange      float64    `json:"percentChange"`
}

// MonthlyTrend totals the reference month and the month before it and
// reports the relative change. PercentChange is defined as zero when the
// previous month's total is zero; that is a display policy, not arithmetic.
// The month windows are year-aware: a January reference pairs with December
// of the prior year.
func MonthlyTrend(expenses []core.Expense, reference core.Date) Trend {
	previous := reference.PreviousMonth()

	var current, prior int64
	for _, e := range expenses {
		switch {
		case e.Date.SameMonth(reference):
			current += e.Amount.Cents
		case e.Date.SameMonth(previous):
			prior += e.Amount.Cents
		}
	}

	trend := Trend{
		CurrentMonthTotal:  core.Cents(current),
		PreviousMonthTotal: core.Cents(prior),
	}
	if prior != 0 {
		trend.PercentChange = (float64(current) - float64(prior)) / float64(prior) * 100
	}
	return trend
}

// CategoryRank pairs a category with its expense total.
type CategoryRank struct {
	Category core.Category `json:"category"`
	Total    core.Money    `json:"total"`
}

// TopCategories ranks categories by total spend inside the window,
// descending, ties broken by category insertion order, truncated to n.
// Categories with no matching expenses rank with a zero total.
func TopCategories(expenses []core.Expense, categories []core.Category, n int, window *DateWindow) []CategoryRank {
	ranks := make([]CategoryRank, 0, len(categories))
	for _, c := range categories {
		ranks = append(ranks, CategoryRank{
			Category: c,
			Total:    CategoryTotal(expenses, c.ID, window),
		})
	}

	// Stable sort keeps insertion order between equal totals.
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Total.Cents > ranks[j].Total.Cents
	})

	if n >= 0 && len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}

// GoalStatus classifies savings-goal progress for display.
type GoalStatus string

const (
	StatusCompleted GoalStatus = "completed"
	StatusOverdue   GoalStatus = "overdue"
	StatusOnTrack   GoalStatus = "on_track"
	StatusAtRisk    GoalStatus = "at_risk"
	StatusBehind    GoalStatus = "behind"
)

// ClassifyGoal maps a goal to its display status. The 75/50 progress
// thresholds are presentation policy carried over unchanged for
// compatibility.
func ClassifyGoal(goal core.SavingsGoal, today core.Date) GoalStatus {
	switch {
	case goal.IsCompleted():
		return StatusCompleted
	case goal.IsOverdue(today):
		return StatusOverdue
	}
	switch p := goal.ProgressPercent(); {
	case p >= 75:
		return StatusOnTrack
	case p >= 50:
		return StatusAtRisk
	default:
		return StatusBehind
	}
}

// MonthOverview is the compact month summary served by the reports endpoint.
type MonthOverview struct {
	Year       int            `json:"year"`
	Month      int            `json:"month"`
	Total      core.Money     `json:"total"`
	ByCategory []CategoryRank `json:"byCategory"`
	Trend      Trend          `json:"trend"`
}

// BuildMonthOverview aggregates one calendar month: total, per-category
// ranking and trend against the previous month.
func BuildMonthOverview(expenses []core.Expense, categories []core.Category, year, month int) MonthOverview {
	first := core.NewDate(year, month, 1)
	last := core.DateOf(first.AddDate(0, 1, -1))
	window := &DateWindow{Start: first, End: last}

	var total int64
	for _, e := range expenses {
		if window.contains(e.Date) {
			total += e.Amount.Cents
		}
	}

	return MonthOverview{
		Year:       year,
		Month:      month,
		Total:      core.Cents(total),
		ByCategory: TopCategories(expenses, categories, -1, window),
		Trend:      MonthlyTrend(expenses, first),
	}
}
