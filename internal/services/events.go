package services

import "fintrack/internal/core"

// GoalProgressPayload is the stored body of a goal_progress event. The
// broker only carries the event ID; the worker reads this back from storage.
type GoalProgressPayload struct {
	UserID          string  `json:"userId"`
	GoalID          string  `json:"goalId"`
	GoalName        string  `json:"goalName"`
	Milestone       int     `json:"milestone"`
	ProgressPercent float64 `json:"progressPercent"`
}

// BudgetAlertPayload is the stored body of a budget_alert event, queued
// after every expense mutation so the worker can evaluate the month.
type BudgetAlertPayload struct {
	UserID     string     `json:"userId"`
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	MonthTotal core.Money `json:"monthTotal"`
	Currency   string     `json:"currency"`
}

// milestones are the goal progress thresholds that trigger a notification,
// evaluated lowest to highest. Only the highest newly crossed one fires.
var milestones = []int{50, 75, 100}

// crossedMilestone returns the highest milestone passed between the two
// progress values, or 0 if none was newly crossed.
func crossedMilestone(before, after float64) int {
	crossed := 0
	for _, m := range milestones {
		if before < float64(m) && after >= float64(m) {
			crossed = m
		}
	}
	return crossed
}
