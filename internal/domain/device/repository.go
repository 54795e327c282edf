package device

import "context"

// Repository is the durable on-device pending store. Inserts are local-only
// and never fail due to network state. Every query is scoped by owner;
// cross-owner access is impossible at this layer.
type Repository interface {
	// Insert stores a freshly captured record with IsSynced=false and
	// returns its local id.
	Insert(ctx context.Context, record Record) (string, error)

	// ListUnsynced returns the owner's records that have not been
	// confirmed by the server, oldest first.
	ListUnsynced(ctx context.Context, employeeID string) ([]Record, error)

	// MarkSynced flips IsSynced to true and stores the canonical id. The
	// transition is monotonic; a synced record is never reverted.
	MarkSynced(ctx context.Context, localID string, remoteID string) error

	// ListForOwner returns the owner's records for local display,
	// optionally filtered to one date (YYYY-MM-DD).
	ListForOwner(ctx context.Context, employeeID string, date *string) ([]Record, error)
}
