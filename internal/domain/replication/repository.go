package replication

import "context"

// OutboxRepository is the durable queue between the canonical write and the
// secondary store.
type OutboxRepository interface {
	// Enqueue stores a pending replication request.
	Enqueue(ctx context.Context, entityType string, canonicalID string, payload []byte) error

	// ListPending returns undelivered entries, oldest first.
	ListPending(ctx context.Context, limit int) ([]OutboxEntry, error)

	// MarkDelivered finalizes an entry after a successful secondary write.
	MarkDelivered(ctx context.Context, id int64) error

	// MarkFailed records a delivery failure; the entry stays pending for
	// the next drain pass.
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// SecondaryWriter upserts a payload into the secondary store, keyed by the
// canonical id. The secondary is not part of the consistency contract: a
// failed write is an error for the drain job to log and retry, never for
// the submitting user to see.
type SecondaryWriter interface {
	Upsert(ctx context.Context, entityType string, canonicalID string, payload []byte) error
}
