// README: Rider-facing handlers: estimate, request, track, cancel, share.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"safar/internal/modules/driver"
	"safar/internal/modules/pricing"
	"safar/internal/modules/ride"
	"safar/internal/types"
)

type RideHandler struct {
	rides   *ride.Service
	neg     *ride.Negotiator
	fares   *pricing.Service
	drivers *driver.Service
	// matchCtx bounds negotiation goroutines to the process lifetime, not
	// to the creating request.
	matchCtx context.Context
}

func NewRideHandler(rides *ride.Service, neg *ride.Negotiator, fares *pricing.Service, drivers *driver.Service, matchCtx context.Context) *RideHandler {
	return &RideHandler{rides: rides, neg: neg, fares: fares, drivers: drivers, matchCtx: matchCtx}
}

type locationReq struct {
	Label string   `json:"label"`
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
}

func (l locationReq) toLocation() types.Location {
	if l.Lat != nil && l.Lng != nil {
		return types.LocationFromPoint(types.Point{Lat: *l.Lat, Lng: *l.Lng})
	}
	return types.LocationFromAddress(l.Label)
}

type estimateReq struct {
	Pickup  locationReq `json:"pickup"`
	Dropoff locationReq `json:"dropoff"`
}

// Estimate quotes a trip without creating anything. Addresses degrade to the
// fallback coordinate rather than failing, so this always answers.
func (h *RideHandler) Estimate(c *gin.Context) {
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	est := h.fares.Estimate(c.Request.Context(), req.Pickup.toLocation(), req.Dropoff.toLocation())
	writeJSON(c, http.StatusOK, est)
}

// EstimateRoute quotes road distance and duration from the geo provider.
func (h *RideHandler) EstimateRoute(c *gin.Context) {
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ctx := c.Request.Context()
	est, err := h.fares.EstimateRoute(ctx,
		h.fares.Resolve(ctx, req.Pickup.toLocation()),
		h.fares.Resolve(ctx, req.Dropoff.toLocation()))
	if err != nil {
		writeError(c, http.StatusBadGateway, "route estimation unavailable")
		return
	}
	writeJSON(c, http.StatusOK, est)
}

type createRideReq struct {
	RiderID string      `json:"rider_id"`
	Pickup  locationReq `json:"pickup"`
	Dropoff locationReq `json:"dropoff"`
}

// Create requests a ride. The quote is computed server side, the ride lands
// in MATCHING, and a negotiation goroutine starts walking nearby drivers.
func (h *RideHandler) Create(c *gin.Context) {
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Pickup.Lat == nil || req.Pickup.Lng == nil {
		writeError(c, http.StatusBadRequest, "pickup coordinates are required")
		return
	}
	ctx := c.Request.Context()
	pickup := types.Point{Lat: *req.Pickup.Lat, Lng: *req.Pickup.Lng}
	est := h.fares.Estimate(ctx, types.LocationFromPoint(pickup), req.Dropoff.toLocation())

	dropoff := est.Dropoff
	r, err := h.rides.Create(ctx, ride.CreateCommand{
		RiderID:      types.ID(req.RiderID),
		PickupLabel:  req.Pickup.Label,
		DropoffLabel: req.Dropoff.Label,
		Pickup:       &pickup,
		Dropoff:      &dropoff,
		DistanceKm:   &est.DistanceKm,
		ETAMinutes:   &est.ETAMinutes,
		Price:        &est.Price,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}

	go h.neg.Run(h.matchCtx, r.ID)

	writeJSON(c, http.StatusCreated, toRideResponse(r))
}

func (h *RideHandler) Get(c *gin.Context) {
	r, err := h.rides.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

func (h *RideHandler) Events(c *gin.Context) {
	rideID := types.ID(c.Param("id"))
	if _, err := h.rides.Get(c.Request.Context(), rideID); err != nil {
		writeRideError(c, err)
		return
	}
	events, err := h.rides.Events(c.Request.Context(), rideID)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"events": toEventResponses(events)})
}

type cancelRideReq struct {
	RiderID string `json:"rider_id"`
	Reason  string `json:"reason"`
}

func (h *RideHandler) Cancel(c *gin.Context) {
	var req cancelRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.rides.Cancel(c.Request.Context(), ride.CancelCommand{
		RideID:  types.ID(c.Param("id")),
		RiderID: types.ID(req.RiderID),
		Reason:  req.Reason,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

// Share resolves the public tracking payload from a share token.
func (h *RideHandler) Share(c *gin.Context) {
	r, err := h.rides.GetByShareToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeRideError(c, err)
		return
	}
	resp := sharedRideResponse{
		Status:       r.Status,
		DriverName:   h.driverName(c.Request.Context(), r),
		PickupLabel:  r.PickupLabel,
		DropoffLabel: r.DropoffLabel,
		Pickup:       toPoint(r.Pickup),
		Dropoff:      toPoint(r.Dropoff),
		Price:        r.Price,
		CreatedAt:    r.CreatedAt,
		CompletedAt:  r.CompletedAt,
	}
	writeJSON(c, http.StatusOK, resp)
}

func (h *RideHandler) driverName(ctx context.Context, r *ride.Ride) string {
	if r.DriverID == nil {
		return ""
	}
	d, err := h.drivers.Get(ctx, *r.DriverID)
	if err != nil {
		return ""
	}
	return d.Name
}

func (h *RideHandler) Active(c *gin.Context) {
	r, err := h.rides.ActiveByRider(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideResponse(r))
}

func (h *RideHandler) RiderHistory(c *gin.Context) {
	rides, err := h.rides.HistoryByRider(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"rides": toRideResponses(rides)})
}
