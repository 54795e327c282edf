package attendance

import (
	"time"
)

// Record is the canonical, server-persisted copy of a check-in event.
// Date and CheckInTime are derived once from Timestamp in the configured
// record timezone when the record is created and never recomputed.
type Record struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	EmployeeID   string    `bson:"employee_id" json:"employee_id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	EmployeeName string    `bson:"employee_name" json:"employee_name"`
	ImageURL     string    `bson:"image_url" json:"image_url"`
	Latitude     float64   `bson:"latitude" json:"latitude"`
	Longitude    float64   `bson:"longitude" json:"longitude"`
	Address      string    `bson:"address" json:"address"`
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
	Date         string    `bson:"date" json:"date"`
	CheckInTime  string    `bson:"check_in_time" json:"check_in_time"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
