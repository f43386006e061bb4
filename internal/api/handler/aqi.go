package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/civicair/civicair/internal/api/models"
	"github.com/civicair/civicair/internal/api/response"
	"github.com/civicair/civicair/internal/aqi"
)

// AQIHandler handles air quality endpoints.
type AQIHandler struct {
	aqiService *aqi.Service
}

// NewAQIHandler creates a new AQIHandler.
func NewAQIHandler(aqiService *aqi.Service) *AQIHandler {
	return &AQIHandler{aqiService: aqiService}
}

// CurrentAQI handles GET /v1/aqi/current - live air quality for a point.
func (h *AQIHandler) CurrentAQI(w http.ResponseWriter, r *http.Request) {
	lat, lng, fieldErrors := parseCoordinates(r)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "invalid coordinates", fieldErrors)
		return
	}

	result, err := h.aqiService.CurrentAQI(r.Context(), lat, lng)
	if err != nil {
		if errors.Is(err, aqi.ErrInvalidCoordinates) {
			response.BadRequest(w, r, "coordinates out of range", nil)
			return
		}
		response.InternalError(w, r, "failed to resolve air quality")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// LatestForLocation handles GET /v1/aqi - the stored reading for one
// monitored location.
func (h *AQIHandler) LatestForLocation(w http.ResponseWriter, r *http.Request) {
	locationID, err := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, r, "location_id must be an integer", []models.FieldError{
			{Field: "location_id", Message: "must be an integer", Code: "INVALID"},
		})
		return
	}

	reading, err := h.aqiService.LatestForLocation(r.Context(), locationID)
	if err != nil {
		if errors.Is(err, aqi.ErrReadingNotFound) {
			response.NotFound(w, r, "no reading for this location")
			return
		}
		response.InternalError(w, r, "failed to load reading")
		return
	}

	response.JSON(w, r, http.StatusOK, reading)
}

// LatestPerLocation handles GET /v1/aqi/all - the newest reading per
// monitored location.
func (h *AQIHandler) LatestPerLocation(w http.ResponseWriter, r *http.Request) {
	readings, err := h.aqiService.LatestPerLocation(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to load readings")
		return
	}
	if readings == nil {
		readings = []aqi.LocationReading{}
	}

	response.JSON(w, r, http.StatusOK, readings)
}

// parseCoordinates extracts required lat/lng query parameters.
func parseCoordinates(r *http.Request) (lat, lng float64, fieldErrors []models.FieldError) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "lat", Message: "must be a number", Code: "INVALID",
		})
	}

	lng, err = strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "lng", Message: "must be a number", Code: "INVALID",
		})
	}

	return lat, lng, fieldErrors
}
