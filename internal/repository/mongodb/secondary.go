package mongodb

import (
	"context"
	"fmt"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/replication"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// secondaryWriter copies canonical payloads into the secondary document
// store. The secondary may be down; errors surface to the drain job, which
// logs and retries later.
type secondaryWriter struct {
	db *database.Mongo
}

func NewSecondaryWriter(db *database.Mongo) replication.SecondaryWriter {
	return &secondaryWriter{db: db}
}

// Upsert implements replication.SecondaryWriter. Writes are keyed by the
// canonical id so redelivery of the same entry is idempotent.
func (w *secondaryWriter) Upsert(ctx context.Context, entityType string, canonicalID string, payload []byte) error {
	var doc bson.M
	if err := bson.UnmarshalExtJSON(payload, false, &doc); err != nil {
		return fmt.Errorf("failed to decode replication payload: %w", err)
	}
	doc["_id"] = canonicalID

	collection := w.db.Collection(entityType)
	opts := options.Replace().SetUpsert(true)

	if _, err := collection.ReplaceOne(ctx, bson.M{"_id": canonicalID}, doc, opts); err != nil {
		return fmt.Errorf("failed to upsert into secondary store: %w", err)
	}

	return nil
}
