package attendance

import "context"

// Service orchestrates a check-in submission: validate, upload the selfie
// with retry, derive date fields, persist the canonical record, and fire
// best-effort side effects (reverse geocode, secondary replication).
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (RecordResponse, error)
	Get(ctx context.Context, id string) (RecordResponse, error)
	ListMine(ctx context.Context, filter ListFilter) ([]RecordResponse, error)
	List(ctx context.Context, filter ListFilter) ([]RecordResponse, error)
	Delete(ctx context.Context, id string) error
}
