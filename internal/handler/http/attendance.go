package http

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fieldforce-hq/fieldforce-backend-go/internal/domain/attendance"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/handler/http/response"
	"github.com/fieldforce-hq/fieldforce-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.Service
}

func NewAttendanceHandler(attendanceService attendance.Service) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Submit implements AttendanceHandler.
func (h *attendanceHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	var req attendance.SubmitRequest

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	lat, latOK := parseCoordinateField(r, "latitude")
	lon, lonOK := parseCoordinateField(r, "longitude")
	if !latOK || !lonOK {
		response.BadRequest(w, "latitude and longitude must be finite numbers", nil)
		return
	}
	req.Latitude = lat
	req.Longitude = lon

	ts, err := strconv.ParseInt(r.FormValue("timestamp"), 10, 64)
	if err != nil {
		response.BadRequest(w, "timestamp must be epoch milliseconds", nil)
		return
	}
	req.TimestampMillis = ts

	file, fileHeader, err := r.FormFile("selfie")
	if err != nil {
		if err == http.ErrMissingFile {
			response.BadRequest(w, "Check-in selfie is required", nil)
			return
		}
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		slog.Error("Failed to read selfie bytes", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	req.Image = image
	req.ContentType = fileHeader.Header.Get("Content-Type")

	result, err := h.attendanceService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance recorded successfully", result)
}

// ListMine implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	results, err := h.attendanceService.ListMine(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.attendanceService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements AttendanceHandler. Admin-only; feeds report export.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}

	results, err := h.attendanceService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Delete implements AttendanceHandler.
func (h *attendanceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.attendanceService.Delete(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance record deleted successfully", nil)
}

func parseCoordinateField(r *http.Request, name string) (float64, bool) {
	return validator.ParseCoordinate(r.FormValue(name))
}

func filterFromQuery(r *http.Request) attendance.ListFilter {
	filter := attendance.ListFilter{}

	if date := r.URL.Query().Get("date"); date != "" {
		filter.Date = &date
	}
	if startDate := r.URL.Query().Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := r.URL.Query().Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}

	return filter
}
