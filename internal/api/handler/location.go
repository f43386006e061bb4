package handler

import (
	"net/http"

	"github.com/civicair/civicair/internal/api/response"
	"github.com/civicair/civicair/internal/location"
)

// LocationHandler handles the monitored locations catalog.
type LocationHandler struct {
	locations location.Repository
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locations location.Repository) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// ListLocations handles GET /v1/locations.
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locations.List(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to load locations")
		return
	}
	if locations == nil {
		locations = []location.Location{}
	}

	response.JSON(w, r, http.StatusOK, locations)
}
