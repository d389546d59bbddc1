package handlers

import (
	"time"

	"sensor_telemetry/internal/live"
	"sensor_telemetry/internal/logger"
	"sensor_telemetry/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	hub      *live.Hub
	log      *logger.Logger

	// silence after which the stream sends a heartbeat
	heartbeat time.Duration
}

// NewHandler constructs a new HTTP handler with dependencies. The hub feeds /api/v1/stream.
func NewHandler(services *service.Service, hub *live.Hub, log *logger.Logger) *Handler {
	if hub == nil {
		hub = live.NewHub(live.DefaultBuffer)
	}
	return &Handler{services: services, hub: hub, log: log, heartbeat: defaultHeartbeat}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// snapshot push over WebSocket, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerSensorRoutes(api)
		h.registerReadingRoutes(api)
		api.GET("/stream", h.streamReadings)
		api.POST("/anomaly/check", h.checkAnomaly)

		// job control requires a token
		h.registerAugmentRoutes(api.Group("/augment", h.userIdMiddleware))
	}
}

func (h *Handler) registerSensorRoutes(api *gin.RouterGroup) {
	sensors := api.Group("/sensors")
	{
		sensors.GET("/latest", h.getLatest)
		sensors.GET("/devices", h.getDevices)
	}
}

func (h *Handler) registerReadingRoutes(api *gin.RouterGroup) {
	readings := api.Group("/readings")
	{
		// ?range=6h | ?from=&to=, &bucket=raw|augmented
		readings.GET("/temperature", h.getTemperatureHistory)
		readings.GET("/vibration", h.getVibrationHistory)
	}
}

func (h *Handler) registerAugmentRoutes(augment *gin.RouterGroup) {
	// Body example: {"from":"2025-05-01","to":"2025-05-08","seed":42}
	augment.POST("/start", h.startAugmentation)
	augment.POST("/stop", h.stopAugmentation)
	augment.GET("/progress", h.getAugmentProgress)
	augment.GET("/logs", h.getJobLogs)
}
