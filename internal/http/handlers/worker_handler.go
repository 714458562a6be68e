// README: Worker handlers: location updates and radius lookups.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shiftmatch/internal/modules/worker"
	"shiftmatch/internal/types"
)

type WorkerHandler struct {
	locations *worker.LocationService
}

func NewWorkerHandler(svc *worker.LocationService) *WorkerHandler {
	return &WorkerHandler{locations: svc}
}

type updateLocationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *WorkerHandler) UpdateLocation(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		writeError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}

	err := h.locations.Update(c.Request.Context(), types.ID(c.Param("id")), types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// Nearby lists indexed workers within a radius of a point, closest first.
func (h *WorkerHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	radius := 25.0
	if r := c.Query("radius_miles"); r != "" {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil || v <= 0 {
			writeError(c, http.StatusBadRequest, "invalid radius_miles")
			return
		}
		radius = v
	}

	workers, err := h.locations.Nearby(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radius)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	type entry struct {
		ID     string   `json:"id"`
		Name   string   `json:"name"`
		Status string   `json:"status"`
		Lat    *float64 `json:"lat,omitempty"`
		Lng    *float64 `json:"lng,omitempty"`
	}
	out := make([]entry, 0, len(workers))
	for _, w := range workers {
		e := entry{ID: string(w.ID), Name: w.Name(), Status: string(w.Status)}
		if w.Location != nil {
			e.Lat, e.Lng = &w.Location.Lat, &w.Location.Lng
		}
		out = append(out, e)
	}
	c.JSON(http.StatusOK, gin.H{"workers": out})
}
