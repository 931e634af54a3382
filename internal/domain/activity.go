// Package domain defines the data model shared by the sync core.
package domain

// Difficulty grades how strenuous an activity was.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// CalorieRates maps each difficulty to its burn rate in calories per minute.
// The rate in effect at submission time is frozen into the activity record;
// later changes to this table never rewrite history.
var CalorieRates = map[Difficulty]int64{
	DifficultyEasy:   5,
	DifficultyMedium: 8,
	DifficultyHard:   12,
}

// Valid reports whether d is a known difficulty level.
func (d Difficulty) Valid() bool {
	_, ok := CalorieRates[d]
	return ok
}

// EstimateCalories computes the client-side burn estimate for an activity.
func EstimateCalories(durationMinutes int64, difficulty Difficulty) int64 {
	return durationMinutes * CalorieRates[difficulty]
}

// Activity is one immutable entry in the user's calorie-burn log. The
// collection is append-only; the backend assigns Timestamp at creation.
type Activity struct {
	Name            string     `json:"name"`
	Difficulty      Difficulty `json:"difficulty"`
	DurationMinutes int64      `json:"duration_minutes"`
	CaloriesBurned  int64      `json:"calories_burned"`
	Timestamp       int64      `json:"timestamp"`
}
