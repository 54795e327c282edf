package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/device"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/validator"
)

// ReconcileResult aggregates one reconcile pass. A failed record stays
// unsynced and is picked up again on the next pass.
type ReconcileResult struct {
	Succeeded int
	Failed    int
}

// Reconciler re-submits locally pending records to the backend. Records are
// processed strictly one at a time to bound concurrent outbound uploads,
// and at most one pass runs per owner at any moment.
type Reconciler struct {
	store     device.Repository
	submitter Submitter

	// readFile is swapped out in tests.
	readFile func(path string) ([]byte, error)

	mu         sync.Mutex
	inProgress map[string]bool
}

func NewReconciler(store device.Repository, submitter Submitter) *Reconciler {
	return &Reconciler{
		store:      store,
		submitter:  submitter,
		readFile:   os.ReadFile,
		inProgress: make(map[string]bool),
	}
}

// CaptureCheckIn stores a freshly captured event in the pending store. It
// is local-only and succeeds regardless of network state; coordinates are
// still checked so a broken location fix is rejected at capture time.
func (r *Reconciler) CaptureCheckIn(ctx context.Context, employeeID, userID, imagePath string, lat, lon float64, capturedAt time.Time) (string, error) {
	var errs validator.ValidationErrors
	if !validator.IsValidLatitude(lat) {
		errs = append(errs, validator.ValidationError{Field: "latitude", Message: "latitude must be a finite number between -90 and 90"})
	}
	if !validator.IsValidLongitude(lon) {
		errs = append(errs, validator.ValidationError{Field: "longitude", Message: "longitude must be a finite number between -180 and 180"})
	}
	if validator.IsEmpty(imagePath) {
		errs = append(errs, validator.ValidationError{Field: "image_path", Message: "image path is required"})
	}
	if len(errs) > 0 {
		return "", errs
	}

	localID, err := r.store.Insert(ctx, device.Record{
		EmployeeID: employeeID,
		UserID:     userID,
		ImagePath:  imagePath,
		Latitude:   lat,
		Longitude:  lon,
		Timestamp:  capturedAt.UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store captured check-in: %w", err)
	}

	return localID, nil
}

// Reconcile re-attempts submission for every unsynced record of the owner.
// Partial failures are counted and the pass continues; a record whose local
// image is missing or empty counts as failed and is skipped, not deleted.
func (r *Reconciler) Reconcile(ctx context.Context, creds Credentials, employeeID string) (ReconcileResult, error) {
	if !r.tryLock(employeeID) {
		return ReconcileResult{}, device.ErrReconcileInProgress
	}
	defer r.unlock(employeeID)

	pending, err := r.store.ListUnsynced(ctx, employeeID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("failed to list unsynced records: %w", err)
	}

	var result ReconcileResult
	for _, record := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		image, err := r.readFile(record.ImagePath)
		if err != nil || len(image) == 0 {
			slog.Warn("local check-in image unavailable, skipping",
				"local_id", record.LocalID,
				"image_path", record.ImagePath,
				"error", err)
			result.Failed++
			continue
		}

		submitted, err := r.submitter.Submit(ctx, creds, record, image)
		if err != nil {
			slog.Warn("record re-submission failed",
				"local_id", record.LocalID,
				"error", err)
			result.Failed++
			continue
		}

		if err := r.store.MarkSynced(ctx, record.LocalID, submitted.CanonicalID); err != nil {
			// The canonical record exists; the local flag catches up on
			// the next pass.
			slog.Error("failed to mark record synced",
				"local_id", record.LocalID,
				"canonical_id", submitted.CanonicalID,
				"error", err)
			result.Failed++
			continue
		}

		result.Succeeded++
	}

	if result.Succeeded > 0 || result.Failed > 0 {
		slog.Info("reconcile pass finished",
			"employee_id", employeeID,
			"succeeded", result.Succeeded,
			"failed", result.Failed)
	}

	return result, nil
}

// ListLocal returns the owner's records straight from the pending store,
// including those already synced, for on-device display. The optional date
// filter is YYYY-MM-DD.
func (r *Reconciler) ListLocal(ctx context.Context, employeeID string, date *string) ([]device.Record, error) {
	if date != nil && *date != "" {
		if _, valid := validator.IsValidDate(*date); !valid {
			return nil, validator.ValidationErrors{{Field: "date", Message: "date must be in YYYY-MM-DD format"}}
		}
	}

	records, err := r.store.ListForOwner(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list local records: %w", err)
	}
	return records, nil
}

func (r *Reconciler) tryLock(employeeID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inProgress[employeeID] {
		return false
	}
	r.inProgress[employeeID] = true
	return true
}

func (r *Reconciler) unlock(employeeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inProgress, employeeID)
}
