package attendance

import (
	"time"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/validator"
)

// SubmitRequest carries one check-in submission. Owner identity fields are
// filled from the auth context by the service, never from the form body.
type SubmitRequest struct {
	EmployeeID   string `json:"-"`
	UserID       string `json:"-"`
	EmployeeName string `json:"-"`

	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	TimestampMillis int64   `json:"timestamp"`

	Image       []byte `json:"-"`
	ContentType string `json:"-"`
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidLatitude(r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be a finite number between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be a finite number between -180 and 180",
		})
	}

	if r.TimestampMillis <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp must be a positive epoch millisecond value",
		})
	}

	if len(r.Image) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "selfie",
			Message: "check-in selfie is required and must not be empty",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Timestamp returns the capture instant in UTC.
func (r *SubmitRequest) Timestamp() time.Time {
	return time.UnixMilli(r.TimestampMillis).UTC()
}

type RecordResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	UserID       string  `json:"user_id"`
	EmployeeName string  `json:"employee_name,omitempty"`
	ImageURL     string  `json:"image_url"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Address      string  `json:"address"`
	Timestamp    int64   `json:"timestamp"`
	Date         string  `json:"date"`
	CheckInTime  string  `json:"check_in_time"`
	CreatedAt    string  `json:"created_at"`
}

type ListFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Date       *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Date != nil && *f.Date != "" {
		if _, valid := validator.IsValidDate(*f.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
