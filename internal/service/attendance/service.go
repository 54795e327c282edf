package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/attendance"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/geocode"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/uploader"
	"github.com/go-chi/jwtauth/v5"
)

// ReplicationEntityAttendance is the entity type used for secondary-store
// copies of attendance records.
const ReplicationEntityAttendance = "attendances"

// Replicator fires a best-effort secondary-store copy. Implementations must
// absorb their own failures; the submission result never depends on them.
type Replicator interface {
	Replicate(ctx context.Context, entityType string, canonicalID string, payload interface{})
}

type AttendanceServiceImpl struct {
	repo       attendance.Repository
	uploader   uploader.ImageUploader
	geocoder   geocode.Geocoder
	replicator Replicator
	recordLoc  *time.Location
}

func NewAttendanceService(
	repo attendance.Repository,
	imageUploader uploader.ImageUploader,
	geocoder geocode.Geocoder,
	replicator Replicator,
	recordLoc *time.Location,
) attendance.Service {
	if recordLoc == nil {
		recordLoc = time.UTC
	}
	return &AttendanceServiceImpl{
		repo:       repo,
		uploader:   imageUploader,
		geocoder:   geocoder,
		replicator: replicator,
		recordLoc:  recordLoc,
	}
}

// Submit implements attendance.Service.
func (s *AttendanceServiceImpl) Submit(ctx context.Context, req attendance.SubmitRequest) (attendance.RecordResponse, error) {
	identity, err := identityFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	req.EmployeeID = identity.employeeID
	req.UserID = identity.userID
	req.EmployeeName = identity.name

	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	imageURL, err := s.uploader.Upload(ctx, req.Image, req.ContentType)
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to upload check-in selfie: %w", err)
	}

	// Best effort; a failed lookup yields the fallback address and the
	// record is created regardless.
	address := s.geocoder.ReverseGeocode(ctx, req.Latitude, req.Longitude)

	capturedAt := req.Timestamp()
	local := capturedAt.In(s.recordLoc)

	record := attendance.Record{
		EmployeeID:   req.EmployeeID,
		UserID:       req.UserID,
		EmployeeName: req.EmployeeName,
		ImageURL:     imageURL,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Address:      address,
		Timestamp:    capturedAt,
		Date:         local.Format("2006-01-02"),
		CheckInTime:  local.Format("15:04:05"),
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("%w: %v", attendance.ErrPersistence, err)
	}

	// The replicator absorbs every failure; the submitter sees success as
	// soon as the canonical record exists.
	s.replicator.Replicate(ctx, ReplicationEntityAttendance, created.ID, created)

	return mapRecordToResponse(created), nil
}

// Get implements attendance.Service. Non-admin callers may only read their
// own records.
func (s *AttendanceServiceImpl) Get(ctx context.Context, id string) (attendance.RecordResponse, error) {
	identity, err := identityFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	if !identity.isAdmin && record.EmployeeID != identity.employeeID {
		return attendance.RecordResponse{}, attendance.ErrUnauthorized
	}

	return mapRecordToResponse(record), nil
}

// ListMine implements attendance.Service.
func (s *AttendanceServiceImpl) ListMine(ctx context.Context, filter attendance.ListFilter) ([]attendance.RecordResponse, error) {
	identity, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	records, err := s.repo.ListForEmployee(ctx, identity.employeeID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}

	return mapRecordsToResponses(records), nil
}

// List implements attendance.Service. Feeds admin views and report export.
func (s *AttendanceServiceImpl) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.RecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}

	return mapRecordsToResponses(records), nil
}

// Delete implements attendance.Service.
func (s *AttendanceServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == attendance.ErrRecordNotFound {
			return err
		}
		return fmt.Errorf("failed to delete attendance record: %w", err)
	}

	return nil
}

type callerIdentity struct {
	employeeID string
	userID     string
	name       string
	isAdmin    bool
}

func identityFromContext(ctx context.Context) (callerIdentity, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return callerIdentity{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return callerIdentity{}, fmt.Errorf("employee_id claim is missing or invalid")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return callerIdentity{}, fmt.Errorf("user_id claim is missing or invalid")
	}

	name, _ := claims["name"].(string)
	isAdmin, _ := claims["is_admin"].(bool)

	return callerIdentity{
		employeeID: employeeID,
		userID:     userID,
		name:       name,
		isAdmin:    isAdmin,
	}, nil
}

func mapRecordToResponse(record attendance.Record) attendance.RecordResponse {
	return attendance.RecordResponse{
		ID:           record.ID,
		EmployeeID:   record.EmployeeID,
		UserID:       record.UserID,
		EmployeeName: record.EmployeeName,
		ImageURL:     record.ImageURL,
		Latitude:     record.Latitude,
		Longitude:    record.Longitude,
		Address:      record.Address,
		Timestamp:    record.Timestamp.UnixMilli(),
		Date:         record.Date,
		CheckInTime:  record.CheckInTime,
		CreatedAt:    record.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func mapRecordsToResponses(records []attendance.Record) []attendance.RecordResponse {
	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapRecordToResponse(record))
	}
	return responses
}
