package types

import "time"

// Location is a single GPS fix. Optional fields are nil when the device did
// not report them.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	Bearing   *float64  `json:"bearing,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Float returns a pointer to v, for filling optional Location fields.
func Float(v float64) *float64 { return &v }
