// Package aggregate derives summary metrics from the cached activity log.
// Every function is pure; recomputation on each cache change is the model.
package aggregate

import (
	"sort"

	"github.com/caffeinepub/calorie-burn-tracker/internal/domain"
)

// Summary is the derived view over the activity log and the daily goal.
// Progress and RemainingCalories are nil when no positive goal is set;
// RemainingCalories is also nil once the goal has been reached, so the
// "remaining" message has nothing to show.
type Summary struct {
	TotalCalories        int64    `json:"total_calories"`
	TotalDurationMinutes int64    `json:"total_duration_minutes"`
	Count                int      `json:"count"`
	Progress             *float64 `json:"progress,omitempty"`
	GoalReached          bool     `json:"goal_reached"`
	RemainingCalories    *int64   `json:"remaining_calories,omitempty"`
}

// Summarize computes the aggregates for one activity collection and an
// optional daily goal (nil = no goal set).
func Summarize(activities []domain.Activity, goal *int64) Summary {
	var s Summary
	s.Count = len(activities)
	for _, a := range activities {
		s.TotalCalories += a.CaloriesBurned
		s.TotalDurationMinutes += a.DurationMinutes
	}

	if goal == nil || *goal <= 0 {
		return s
	}

	pct := float64(s.TotalCalories) / float64(*goal) * 100
	if pct > 100 {
		pct = 100
	}
	s.Progress = &pct

	if s.TotalCalories >= *goal {
		s.GoalReached = true
	} else {
		remaining := *goal - s.TotalCalories
		s.RemainingCalories = &remaining
	}
	return s
}

// SortForDisplay returns a copy ordered by timestamp descending. The sort is
// stable so entries sharing a timestamp keep their fetch order.
func SortForDisplay(activities []domain.Activity) []domain.Activity {
	out := make([]domain.Activity, len(activities))
	copy(out, activities)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}
