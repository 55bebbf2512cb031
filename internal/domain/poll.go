package domain

import "time"

// CategoryError records a category that could not be polled in a cycle.
type CategoryError struct {
	Category string
	URL      string
	Err      error
}

// PollResult holds the outcome of a single poll cycle.
type PollResult struct {
	CycleID           string
	NewRecords        []Listing
	PerCategoryCounts map[string]int
	Errors            []CategoryError
	Published         int
	Duration          time.Duration
}
