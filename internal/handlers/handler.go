package handlers

import (
	"irrigation_control/internal/logger"
	"irrigation_control/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Live status stream (HTTP upgrade) — same port
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
	api := r.Group("/api/v1", h.userIdentityMiddleware)
	{
		h.registerZoneRoutes(api)
		h.registerScheduleRoutes(api)
		h.registerStatusRoutes(api)
	}
}

func (h *Handler) registerZoneRoutes(api *gin.RouterGroup) {
	zones := api.Group("/zones")
	{
		zones.GET("", h.listZones)
		zones.POST("/all-off", h.allZonesOff)
		zones.POST("/:key/on", h.zoneOn)
		zones.POST("/:key/off", h.zoneOff)
		// Body example: {"seconds":30}
		zones.POST("/:key/pulse", h.zonePulse)
	}
}

func (h *Handler) registerScheduleRoutes(api *gin.RouterGroup) {
	schedules := api.Group("/schedules")
	{
		schedules.GET("", h.listSchedules)
		schedules.POST("", h.addSchedule)
		schedules.DELETE("/:id", h.deleteSchedule)
	}
}

func (h *Handler) registerStatusRoutes(api *gin.RouterGroup) {
	api.GET("/status", h.getStatus)
	api.GET("/hardware", h.getHardware)
	api.GET("/hardware/errors", h.getHardwareErrors)
	api.GET("/skips", h.getSkips)
	api.POST("/sensor/refresh", h.refreshSensor)
}
