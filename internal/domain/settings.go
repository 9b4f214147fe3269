package domain

import "time"

// Settings holds per-user preferences. There is exactly one record per user.
type Settings struct {
	UserID string `json:"user_id"`

	// YearlyGoal is the number of books the user aims to finish this
	// calendar year. Zero means no goal set.
	YearlyGoal int `json:"yearly_goal"`

	UpdatedAt time.Time `json:"updated_at"`
}
