package attendance

import (
	"context"
)

// Repository defines data access for canonical attendance records. Queries
// that serve employee-facing reads are scoped by employee to prevent
// cross-owner access at this layer.
type Repository interface {
	// Create persists a new canonical record and returns it with the
	// server-assigned id.
	Create(ctx context.Context, record Record) (Record, error)

	// GetByID retrieves a record by its canonical id.
	GetByID(ctx context.Context, id string) (Record, error)

	// ListForEmployee retrieves records for one employee, newest first,
	// optionally narrowed by the filter's date or date range.
	ListForEmployee(ctx context.Context, employeeID string, filter ListFilter) ([]Record, error)

	// List retrieves records across employees for admin and export reads.
	List(ctx context.Context, filter ListFilter) ([]Record, error)

	// Delete removes a record by canonical id.
	Delete(ctx context.Context, id string) error
}
