// README: HTTP surface; registers routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftmatch/internal/http/handlers"
	"shiftmatch/internal/http/middleware"
	"shiftmatch/internal/modules/matchconfig"
	"shiftmatch/internal/modules/shift"
	"shiftmatch/internal/modules/worker"
)

type ServerDeps struct {
	Shifts    *shift.Service
	Configs   *matchconfig.Service
	Locations *worker.LocationService
	Logger    *zap.Logger
}

func NewRouter(deps ServerDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(deps.Logger), middleware.Recovery(deps.Logger))

	shiftHandler := handlers.NewShiftHandler(deps.Shifts)
	r.POST("/api/shifts", shiftHandler.Create)
	r.GET("/api/shifts/:id", shiftHandler.Get)
	r.POST("/api/shifts/:id/cancel", shiftHandler.Cancel)
	r.POST("/api/shifts/:id/match", shiftHandler.Match)
	r.GET("/api/shifts/:id/history", shiftHandler.History)

	proposalHandler := handlers.NewProposalHandler(deps.Shifts)
	r.POST("/api/proposals", proposalHandler.Create)
	r.GET("/api/proposals/:id", proposalHandler.Get)
	r.POST("/api/proposals/:id/respond", proposalHandler.Respond)
	r.POST("/api/proposals/:id/viewed", proposalHandler.MarkViewed)

	caregiverHandler := handlers.NewCaregiverHandler(deps.Shifts)
	r.GET("/api/caregivers/:id/shifts", caregiverHandler.AvailableShifts)
	r.POST("/api/caregivers/:id/select", caregiverHandler.SelectShift)

	workerHandler := handlers.NewWorkerHandler(deps.Locations)
	r.PUT("/api/workers/:id/location", workerHandler.UpdateLocation)
	r.GET("/api/workers/nearby", workerHandler.Nearby)

	configHandler := handlers.NewConfigHandler(deps.Configs)
	r.POST("/api/configs", configHandler.Publish)
	r.GET("/api/configs/resolve", configHandler.Resolve)
	r.GET("/api/configs/:id", configHandler.Get)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
