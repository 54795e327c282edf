package postgresql

import (
	"context"
	"fmt"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/device"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type deviceRecordRepository struct {
	db *database.DB
}

func NewDeviceRecordRepository(db *database.DB) device.Repository {
	return &deviceRecordRepository{db: db}
}

// Insert implements device.Repository.
func (r *deviceRecordRepository) Insert(ctx context.Context, record device.Record) (string, error) {
	q := GetQuerier(ctx, r.db)

	localID := record.LocalID
	if localID == "" {
		localID = uuid.NewString()
	}

	query := `
		INSERT INTO device_records (
			local_id, employee_id, user_id, image_path,
			latitude, longitude, captured_at, is_synced
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, false
		)
	`

	_, err := q.Exec(ctx, query,
		localID,
		record.EmployeeID,
		record.UserID,
		record.ImagePath,
		record.Latitude,
		record.Longitude,
		record.Timestamp,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert device record: %w", err)
	}

	return localID, nil
}

// ListUnsynced implements device.Repository.
func (r *deviceRecordRepository) ListUnsynced(ctx context.Context, employeeID string) ([]device.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT local_id, employee_id, user_id, image_path,
			   latitude, longitude, captured_at, is_synced, remote_id, created_at
		FROM device_records
		WHERE employee_id = $1
		  AND is_synced = false
		ORDER BY captured_at ASC
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced device records: %w", err)
	}
	defer rows.Close()

	return scanDeviceRecords(rows)
}

// MarkSynced implements device.Repository. The WHERE clause keeps the
// transition monotonic: a record already synced stays synced.
func (r *deviceRecordRepository) MarkSynced(ctx context.Context, localID string, remoteID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE device_records
		SET is_synced = true, remote_id = $2
		WHERE local_id = $1
		  AND is_synced = false
	`

	tag, err := q.Exec(ctx, query, localID, remoteID)
	if err != nil {
		return fmt.Errorf("failed to mark device record synced: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either unknown id or already synced; verify which.
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM device_records WHERE local_id = $1)`, localID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to verify device record: %w", err)
		}
		if !exists {
			return device.ErrRecordNotFound
		}
	}

	return nil
}

// ListForOwner implements device.Repository.
func (r *deviceRecordRepository) ListForOwner(ctx context.Context, employeeID string, date *string) ([]device.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT local_id, employee_id, user_id, image_path,
			   latitude, longitude, captured_at, is_synced, remote_id, created_at
		FROM device_records
		WHERE employee_id = $1
	`
	args := []interface{}{employeeID}

	if date != nil && *date != "" {
		query += ` AND captured_at::date = $2`
		args = append(args, *date)
	}
	query += ` ORDER BY captured_at DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list device records: %w", err)
	}
	defer rows.Close()

	return scanDeviceRecords(rows)
}

func scanDeviceRecords(rows pgx.Rows) ([]device.Record, error) {
	var records []device.Record
	for rows.Next() {
		var rec device.Record
		err := rows.Scan(
			&rec.LocalID, &rec.EmployeeID, &rec.UserID, &rec.ImagePath,
			&rec.Latitude, &rec.Longitude, &rec.Timestamp, &rec.IsSynced, &rec.RemoteID, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read device records: %w", err)
	}
	return records, nil
}
