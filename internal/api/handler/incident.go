package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/civicair/civicair/internal/api/models"
	"github.com/civicair/civicair/internal/api/response"
	"github.com/civicair/civicair/internal/incident"
)

// maxIncidentUploadBytes caps the multipart report form, photo included.
const maxIncidentUploadBytes = 10 << 20

// IncidentHandler handles pollution report endpoints.
type IncidentHandler struct {
	incidentService *incident.Service
	images          *incident.ImageStore
}

// NewIncidentHandler creates a new IncidentHandler.
func NewIncidentHandler(incidentService *incident.Service, images *incident.ImageStore) *IncidentHandler {
	return &IncidentHandler{
		incidentService: incidentService,
		images:          images,
	}
}

// Report handles POST /v1/incidents - files a pollution report. The body is
// multipart form data so a photo can ride along.
func (h *IncidentHandler) Report(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxIncidentUploadBytes); err != nil {
		response.BadRequest(w, r, "expected multipart form data", nil)
		return
	}

	report := &incident.Incident{
		UserID:      GetUserID(r.Context()),
		Type:        r.FormValue("incident_type"),
		Description: r.FormValue("description"),
		PlaceName:   r.FormValue("place_name"),
	}

	var fieldErrors []models.FieldError
	if lat, err := strconv.ParseFloat(r.FormValue("latitude"), 64); err == nil {
		report.Latitude = &lat
	} else {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "latitude", Message: "must be a number", Code: "INVALID"})
	}
	if lng, err := strconv.ParseFloat(r.FormValue("longitude"), 64); err == nil {
		report.Longitude = &lng
	} else {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "longitude", Message: "must be a number", Code: "INVALID"})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid coordinates", fieldErrors)
		return
	}

	if raw := r.FormValue("location_id"); raw != "" {
		locationID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(w, r, "location_id must be an integer", nil)
			return
		}
		report.LocationID = &locationID
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		path, err := h.images.Save(header.Filename, file)
		if err != nil {
			if errors.Is(err, incident.ErrUnsupportedImageType) {
				response.BadRequest(w, r, "image must be png or jpeg", nil)
				return
			}
			response.InternalError(w, r, "failed to store image")
			return
		}
		report.ImagePath = path
	}

	if err := h.incidentService.Report(r.Context(), report); err != nil {
		if errors.Is(err, incident.ErrMissingFields) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		response.InternalError(w, r, "failed to file incident")
		return
	}

	response.Created(w, r, "/v1/incidents/"+strconv.FormatInt(report.ID, 10), report)
}

// List handles GET /v1/incidents - incidents newest first, optionally
// filtered by ?status=.
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *incident.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := incident.Status(raw)
		status = &s
	}

	incidents, err := h.incidentService.List(r.Context(), status)
	if err != nil {
		if status != nil && !status.Valid() {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		response.InternalError(w, r, "failed to load incidents")
		return
	}
	if incidents == nil {
		incidents = []incident.Incident{}
	}

	response.JSON(w, r, http.StatusOK, incidents)
}

// updateStatusRequest is the PUT /v1/incidents/{incidentId}/status body.
type updateStatusRequest struct {
	Status incident.Status `json:"status"`
}

// UpdateStatus handles PUT /v1/incidents/{incidentId}/status - moves a
// report forward in its lifecycle. Admin only.
func (h *IncidentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "incidentId"), 10, 64)
	if err != nil {
		response.BadRequest(w, r, "incident id must be an integer", nil)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if !req.Status.Valid() {
		response.BadRequest(w, r, "unknown status", []models.FieldError{
			{Field: "status", Message: "must be OPEN, IN_PROGRESS or RESOLVED", Code: "INVALID"},
		})
		return
	}

	if err := h.incidentService.UpdateStatus(r.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, incident.ErrIncidentNotFound):
			response.NotFound(w, r, "incident not found")
		case errors.Is(err, incident.ErrInvalidTransition):
			response.BadRequest(w, r, "invalid status transition", nil)
		default:
			response.InternalError(w, r, "failed to update incident")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, map[string]string{
		"message": "Status updated",
	})
}
