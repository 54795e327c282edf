package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/attendance"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const attendanceCollection = "attendances"

type attendanceRepository struct {
	collection *mongo.Collection
}

func NewAttendanceRepository(db *database.Mongo) attendance.Repository {
	return &attendanceRepository{
		collection: db.Collection(attendanceCollection),
	}
}

// Create implements attendance.Repository.
func (r *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return record, nil
}

// GetByID implements attendance.Repository.
func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	var record attendance.Record
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return record, nil
}

// ListForEmployee implements attendance.Repository.
func (r *attendanceRepository) ListForEmployee(ctx context.Context, employeeID string, filter attendance.ListFilter) ([]attendance.Record, error) {
	query := buildFilter(filter)
	query["employee_id"] = employeeID

	return r.find(ctx, query)
}

// List implements attendance.Repository.
func (r *attendanceRepository) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.Record, error) {
	query := buildFilter(filter)
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		query["employee_id"] = *filter.EmployeeID
	}

	return r.find(ctx, query)
}

// Delete implements attendance.Repository.
func (r *attendanceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete attendance record: %w", err)
	}
	if res.DeletedCount == 0 {
		return attendance.ErrRecordNotFound
	}

	return nil
}

func (r *attendanceRepository) find(ctx context.Context, query bson.M) ([]attendance.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []attendance.Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode attendance records: %w", err)
	}

	return records, nil
}

// buildFilter translates the date filters onto the derived date string,
// which sorts and compares lexicographically in YYYY-MM-DD form.
func buildFilter(filter attendance.ListFilter) bson.M {
	query := bson.M{}

	if filter.Date != nil && *filter.Date != "" {
		query["date"] = *filter.Date
		return query
	}

	dateRange := bson.M{}
	if filter.StartDate != nil && *filter.StartDate != "" {
		dateRange["$gte"] = *filter.StartDate
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		dateRange["$lte"] = *filter.EndDate
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}

	return query
}
