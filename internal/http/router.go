// README: HTTP route registration.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"safar/internal/dispatch"
	"safar/internal/http/handlers"
	"safar/internal/http/middleware"
	"safar/internal/modules/driver"
	"safar/internal/modules/pricing"
	"safar/internal/modules/ride"
)

type RouterDeps struct {
	Rides      *ride.Service
	Negotiator *ride.Negotiator
	Drivers    *driver.Service
	Fares      *pricing.Service
	Registry   *dispatch.WSRegistry
	Logger     *slog.Logger
	// MatchCtx is the process-lifetime context negotiation goroutines run
	// under.
	MatchCtx context.Context
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	rideHandler := handlers.NewRideHandler(deps.Rides, deps.Negotiator, deps.Fares, deps.Drivers, deps.MatchCtx)
	driverHandler := handlers.NewDriverHandler(deps.Drivers, deps.Rides, deps.Negotiator)
	wsHandler := handlers.NewWSHandler(deps.Registry, deps.Logger)

	api := r.Group("/api")
	{
		api.POST("/estimate", rideHandler.Estimate)
		api.POST("/estimate/route", rideHandler.EstimateRoute)

		api.POST("/rides", rideHandler.Create)
		api.GET("/rides/:id", rideHandler.Get)
		api.GET("/rides/:id/events", rideHandler.Events)
		api.POST("/rides/:id/cancel", rideHandler.Cancel)
		api.GET("/share/:token", rideHandler.Share)

		api.GET("/riders/:id/active", rideHandler.Active)
		api.GET("/riders/:id/rides", rideHandler.RiderHistory)

		api.POST("/rides/:id/accept", driverHandler.AcceptOffer)
		api.POST("/rides/:id/arrived", driverHandler.Arrived)
		api.POST("/rides/:id/ongoing", driverHandler.Ongoing)
		api.POST("/rides/:id/completed", driverHandler.Completed)

		api.PUT("/drivers/:id/location", driverHandler.UpdateLocation)
		api.PUT("/drivers/:id/availability", driverHandler.SetAvailability)
		api.GET("/drivers/:id/rides", driverHandler.History)
	}

	r.GET("/ws/drivers/:id", wsHandler.Connect)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
