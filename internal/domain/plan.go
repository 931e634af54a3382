package domain

import (
	"errors"
	"fmt"
	"math"
)

// FitnessGoal is the target a generated plan is tailored to.
type FitnessGoal string

const (
	GoalWeightLoss  FitnessGoal = "weightLoss"
	GoalMuscleGain  FitnessGoal = "muscleGain"
	GoalMaintenance FitnessGoal = "maintenance"
	GoalEndurance   FitnessGoal = "endurance"
)

// Valid reports whether g is a known fitness goal.
func (g FitnessGoal) Valid() bool {
	switch g {
	case GoalWeightLoss, GoalMuscleGain, GoalMaintenance, GoalEndurance:
		return true
	}
	return false
}

// UserStats carries the optional personal details attached to a diet plan
// request. All fields may be left unset.
type UserStats struct {
	Age           *int64   `json:"age,omitempty"`
	WeightKg      *float64 `json:"weight_kg,omitempty"`
	HeightCm      *float64 `json:"height_cm,omitempty"`
	ActivityLevel string   `json:"activity_level,omitempty"`
}

// ErrInvalidStats indicates a numeric stat field outside its valid range.
var ErrInvalidStats = errors.New("invalid user stats")

// Validate checks that every provided numeric field is finite and positive.
func (s *UserStats) Validate() error {
	if s == nil {
		return nil
	}
	if s.Age != nil && *s.Age <= 0 {
		return fmt.Errorf("%w: age must be positive", ErrInvalidStats)
	}
	if err := checkPositiveFinite("weight_kg", s.WeightKg); err != nil {
		return err
	}
	return checkPositiveFinite("height_cm", s.HeightCm)
}

func checkPositiveFinite(field string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return fmt.Errorf("%w: %s must be finite and positive", ErrInvalidStats, field)
	}
	return nil
}

// MacroSplit is the recommended daily macronutrient breakdown.
type MacroSplit struct {
	Calories     float64 `json:"calories"`
	ProteinGrams float64 `json:"protein_grams"`
	CarbsGrams   float64 `json:"carbs_grams"`
	FatsGrams    float64 `json:"fats_grams"`
}

// MealSuggestion is one meal idea within a diet plan.
type MealSuggestion struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fats        float64 `json:"fats"`
}

// DietPlan is the backend's generated nutrition plan.
type DietPlan struct {
	Goal              FitnessGoal      `json:"goal"`
	Guidelines        string           `json:"guidelines"`
	RecommendedMacros MacroSplit       `json:"recommended_macros"`
	MealSuggestions   []MealSuggestion `json:"meal_suggestions"`
}

// WeeklySchedule describes the cadence of a workout plan.
type WeeklySchedule struct {
	DaysPerWeek          int64    `json:"days_per_week"`
	TotalSessions        int64    `json:"total_sessions"`
	SessionLengthMinutes int64    `json:"session_length_minutes"`
	RestDays             []string `json:"rest_days"`
}

// Exercise is one entry in a workout plan. Set-based and duration-based
// exercises populate different optional fields.
type Exercise struct {
	Name              string     `json:"name"`
	Difficulty        Difficulty `json:"difficulty"`
	Sets              *int64     `json:"sets,omitempty"`
	Reps              *int64     `json:"reps,omitempty"`
	DurationMinutes   *int64     `json:"duration_minutes,omitempty"`
	CaloriesPerSet    *int64     `json:"calories_per_set,omitempty"`
	CaloriesPerMinute *int64     `json:"calories_per_minute,omitempty"`
}

// WorkoutPlan is the backend's generated training plan.
type WorkoutPlan struct {
	Goal                        FitnessGoal    `json:"goal"`
	PlanType                    string         `json:"plan_type"`
	WeeklySchedule              WeeklySchedule `json:"weekly_schedule"`
	ExerciseList                []Exercise     `json:"exercise_list"`
	EstimatedCaloriesPerSession int64          `json:"estimated_calories_per_session"`
}
