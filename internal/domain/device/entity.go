package device

import "time"

// Record is the on-device copy of a check-in event, created before any
// network activity. ImagePath points at the locally stored selfie; the
// canonical image URL lives only on the server record.
type Record struct {
	LocalID    string
	EmployeeID string
	UserID     string
	ImagePath  string
	Latitude   float64
	Longitude  float64
	Timestamp  time.Time
	IsSynced   bool
	// RemoteID is the canonical id assigned by the server, set together
	// with IsSynced.
	RemoteID  *string
	CreatedAt time.Time
}
