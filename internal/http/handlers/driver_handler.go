// README: Driver-facing handlers: offer accept, trip progression, presence.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"safar/internal/modules/driver"
	"safar/internal/modules/ride"
	"safar/internal/types"
)

type DriverHandler struct {
	drivers *driver.Service
	rides   *ride.Service
	neg     *ride.Negotiator
}

func NewDriverHandler(drivers *driver.Service, rides *ride.Service, neg *ride.Negotiator) *DriverHandler {
	return &DriverHandler{drivers: drivers, rides: rides, neg: neg}
}

type driverActionReq struct {
	DriverID string `json:"driver_id"`
}

// AcceptOffer claims a pending offer. The atomic delete on the offer key
// decides races; losers get a conflict, not a partial assignment.
func (h *DriverHandler) AcceptOffer(c *gin.Context) {
	var req driverActionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.DriverID == "" {
		writeError(c, http.StatusBadRequest, "missing driver_id")
		return
	}
	r, err := h.neg.AcceptOffer(c.Request.Context(), types.ID(c.Param("id")), types.ID(req.DriverID))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

func (h *DriverHandler) Arrived(c *gin.Context) {
	h.progress(c, h.rides.MarkArrived)
}

func (h *DriverHandler) Ongoing(c *gin.Context) {
	h.progress(c, h.rides.MarkOngoing)
}

func (h *DriverHandler) Completed(c *gin.Context) {
	h.progress(c, h.rides.MarkCompleted)
}

func (h *DriverHandler) progress(c *gin.Context, step func(ctx context.Context, cmd ride.ProgressCommand) (*ride.Ride, error)) {
	var req driverActionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.DriverID == "" {
		writeError(c, http.StatusBadRequest, "missing driver_id")
		return
	}
	r, err := step(c.Request.Context(), ride.ProgressCommand{
		RideID:   types.ID(c.Param("id")),
		DriverID: types.ID(req.DriverID),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

type locationUpdateReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req locationUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.drivers.UpdateLocation(c.Request.Context(), types.ID(c.Param("id")),
		types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		writeDriverError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"ok": true})
}

type availabilityReq struct {
	Available *bool `json:"available"`
}

func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Available == nil {
		writeError(c, http.StatusBadRequest, "missing available")
		return
	}
	err := h.drivers.SetAvailability(c.Request.Context(), types.ID(c.Param("id")), *req.Available)
	if err != nil {
		writeDriverError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"ok": true})
}

func (h *DriverHandler) History(c *gin.Context) {
	rides, err := h.rides.HistoryByDriver(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"rides": toRideResponses(rides)})
}
