package replication

import "time"

// Outbox entry statuses.
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
)

// OutboxEntry is a durable request to copy one canonical record into the
// secondary store. Entries survive process restarts and secondary outages;
// delivery is retried by the drain job until it succeeds.
type OutboxEntry struct {
	ID          int64
	EntityType  string
	CanonicalID string
	Payload     []byte
	Attempts    int
	Status      string
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
