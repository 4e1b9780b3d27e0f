package entity

import "time"

// Filter narrows a history query. Zero values mean "no constraint".
type Filter struct {
	Symbol string    // Exact symbol match
	From   time.Time // Inclusive lower bound on Date
	To     time.Time // Exclusive upper bound on Date
	Min    *float64  // Inclusive lower bound on Percentage
	Max    *float64  // Inclusive upper bound on Percentage
	Limit  int       // Maximum rows; 0 means unlimited at the repository level
}
