package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/device"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeviceStore struct {
	mu      sync.Mutex
	records map[string]*device.Record
	nextID  int

	markSyncedErr map[string]error
}

func newFakeDeviceStore() *fakeDeviceStore {
	return &fakeDeviceStore{
		records:       make(map[string]*device.Record),
		markSyncedErr: make(map[string]error),
	}
}

func (f *fakeDeviceStore) Insert(ctx context.Context, record device.Record) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	record.LocalID = fmt.Sprintf("local-%d", f.nextID)
	record.IsSynced = false
	record.CreatedAt = time.Now().UTC()
	f.records[record.LocalID] = &record
	return record.LocalID, nil
}

func (f *fakeDeviceStore) ListUnsynced(ctx context.Context, employeeID string) ([]device.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []device.Record
	for i := 1; i <= f.nextID; i++ {
		record, ok := f.records[fmt.Sprintf("local-%d", i)]
		if ok && record.EmployeeID == employeeID && !record.IsSynced {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (f *fakeDeviceStore) MarkSynced(ctx context.Context, localID string, remoteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.markSyncedErr[localID]; err != nil {
		return err
	}
	record, ok := f.records[localID]
	if !ok {
		return device.ErrRecordNotFound
	}
	if record.IsSynced {
		return nil
	}
	record.IsSynced = true
	record.RemoteID = &remoteID
	return nil
}

func (f *fakeDeviceStore) ListForOwner(ctx context.Context, employeeID string, date *string) ([]device.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []device.Record
	for _, record := range f.records {
		if record.EmployeeID == employeeID {
			out = append(out, *record)
		}
	}
	return out, nil
}

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   int
	failFor map[string]error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, creds Credentials, record device.Record, image []byte) (SubmitResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if err := f.failFor[record.LocalID]; err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{CanonicalID: "canon-" + record.LocalID}, nil
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func seedRecord(t *testing.T, r *Reconciler, employeeID, imagePath string) string {
	t.Helper()
	localID, err := r.CaptureCheckIn(context.Background(), employeeID, "user-1", imagePath, -6.2, 106.8, time.Now())
	require.NoError(t, err)
	return localID
}

func withImages(r *Reconciler, images map[string][]byte) {
	r.readFile = func(path string) ([]byte, error) {
		data, ok := images[path]
		if !ok {
			return nil, errors.New("no such file")
		}
		return data, nil
	}
}

func TestCaptureCheckIn_RejectsBrokenLocationFix(t *testing.T) {
	r := NewReconciler(newFakeDeviceStore(), &fakeSubmitter{})

	_, err := r.CaptureCheckIn(context.Background(), "emp-1", "user-1", "", 200, -6.2, time.Now())
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
}

func TestReconcile_EmptyStoreIsNoOp(t *testing.T) {
	sub := &fakeSubmitter{}
	r := NewReconciler(newFakeDeviceStore(), sub)

	result, err := r.Reconcile(context.Background(), Credentials{Token: "t"}, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{}, result)
	assert.Equal(t, 0, sub.callCount())
}

func TestReconcile_SyncsAllPendingRecords(t *testing.T) {
	store := newFakeDeviceStore()
	sub := &fakeSubmitter{}
	r := NewReconciler(store, sub)
	withImages(r, map[string][]byte{
		"/data/a.jpg": []byte("a"),
		"/data/b.jpg": []byte("b"),
	})

	idA := seedRecord(t, r, "emp-1", "/data/a.jpg")
	idB := seedRecord(t, r, "emp-1", "/data/b.jpg")

	result, err := r.Reconcile(context.Background(), Credentials{Token: "t"}, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Succeeded: 2, Failed: 0}, result)

	for _, id := range []string{idA, idB} {
		record := store.records[id]
		assert.True(t, record.IsSynced)
		require.NotNil(t, record.RemoteID)
		assert.Equal(t, "canon-"+id, *record.RemoteID)
	}

	// A second pass finds nothing left to do.
	result, err = r.Reconcile(context.Background(), Credentials{Token: "t"}, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{}, result)
	assert.Equal(t, 2, sub.callCount())
}

func TestReconcile_PartialFailureContinues(t *testing.T) {
	store := newFakeDeviceStore()
	idB := ""
	sub := &fakeSubmitter{failFor: map[string]error{}}
	r := NewReconciler(store, sub)
	withImages(r, map[string][]byte{
		"/data/a.jpg": []byte("a"),
		"/data/b.jpg": []byte("b"),
		"/data/c.jpg": []byte("c"),
	})

	seedRecord(t, r, "emp-1", "/data/a.jpg")
	idB = seedRecord(t, r, "emp-1", "/data/b.jpg")
	seedRecord(t, r, "emp-1", "/data/c.jpg")
	sub.failFor[idB] = errors.New("upstream unavailable")

	result, err := r.Reconcile(context.Background(), Credentials{Token: "t"}, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Succeeded: 2, Failed: 1}, result)

	// The failed record stays pending for the next pass.
	assert.False(t, store.records[idB].IsSynced)

	delete(sub.failFor, idB)
	result, err = r.Reconcile(context.Background(), Credentials{Token: "t"}, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Succeeded: 1, Failed: 0}, result)
}

func TestReconcile_MissingImageCountsAsFailed(t *testing.T) {
	store := newFakeDeviceStore()
	sub := &fakeSubmitter{}
	r := NewReconciler(store, sub)
	withImages(r, map[string][]byte{
		"/data/present.jpg": []byte("a"),
		"/data/empty.jpg":   {},
	})

	seedRecord(t, r, "emp-1", "/data/present.jpg")
	idGone := seedRecord(t, r, "emp-1", "/data/gone.jpg")
	idEmpty := seedRecord(t, r, "emp-1", "/data/empty.jpg")

	result, err := r.Reconcile(context.Background(), Credentials{Token: "t"}, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Succeeded: 1, Failed: 2}, result)
	assert.Equal(t, 1, sub.callCount())

	// Skipped records are kept, not deleted.
	assert.False(t, store.records[idGone].IsSynced)
	assert.False(t, store.records[idEmpty].IsSynced)
}

func TestReconcile_MarkSyncedFailureCountsAsFailed(t *testing.T) {
	store := newFakeDeviceStore()
	sub := &fakeSubmitter{}
	r := NewReconciler(store, sub)
	withImages(r, map[string][]byte{"/data/a.jpg": []byte("a")})

	id := seedRecord(t, r, "emp-1", "/data/a.jpg")
	store.markSyncedErr[id] = errors.New("disk full")

	result, err := r.Reconcile(context.Background(), Credentials{Token: "t"}, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Succeeded: 0, Failed: 1}, result)
}

func TestReconcile_ConcurrentPassForSameOwnerRejected(t *testing.T) {
	store := newFakeDeviceStore()
	sub := &fakeSubmitter{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	r := NewReconciler(store, sub)
	withImages(r, map[string][]byte{"/data/a.jpg": []byte("a")})
	seedRecord(t, r, "emp-1", "/data/a.jpg")

	done := make(chan error, 1)
	go func() {
		_, err := r.Reconcile(context.Background(), Credentials{Token: "t"}, "emp-1")
		done <- err
	}()

	<-sub.started
	_, err := r.Reconcile(context.Background(), Credentials{Token: "t"}, "emp-1")
	assert.ErrorIs(t, err, device.ErrReconcileInProgress)

	close(sub.release)
	require.NoError(t, <-done)

	// The lock is released once the first pass finishes.
	result, err := r.Reconcile(context.Background(), Credentials{Token: "t"}, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{}, result)
}

func TestReconcile_ScopedToOwner(t *testing.T) {
	store := newFakeDeviceStore()
	sub := &fakeSubmitter{}
	r := NewReconciler(store, sub)
	withImages(r, map[string][]byte{
		"/data/a.jpg": []byte("a"),
		"/data/b.jpg": []byte("b"),
	})

	seedRecord(t, r, "emp-1", "/data/a.jpg")
	idOther := seedRecord(t, r, "emp-2", "/data/b.jpg")

	result, err := r.Reconcile(context.Background(), Credentials{Token: "t"}, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Succeeded: 1, Failed: 0}, result)
	assert.False(t, store.records[idOther].IsSynced)
}

func TestListLocal(t *testing.T) {
	store := newFakeDeviceStore()
	r := NewReconciler(store, &fakeSubmitter{})
	withImages(r, map[string][]byte{"/data/a.jpg": []byte("a")})

	seedRecord(t, r, "emp-1", "/data/a.jpg")
	seedRecord(t, r, "emp-2", "/data/b.jpg")

	records, err := r.ListLocal(context.Background(), "emp-1", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "emp-1", records[0].EmployeeID)

	bad := "2023/11/15"
	_, err = r.ListLocal(context.Background(), "emp-1", &bad)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestReconcile_StopsOnCancelledContext(t *testing.T) {
	store := newFakeDeviceStore()
	sub := &fakeSubmitter{}
	r := NewReconciler(store, sub)
	withImages(r, map[string][]byte{"/data/a.jpg": []byte("a")})
	seedRecord(t, r, "emp-1", "/data/a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Reconcile(ctx, Credentials{Token: "t"}, "emp-1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ReconcileResult{}, result)
	assert.Equal(t, 0, sub.callCount())
}
