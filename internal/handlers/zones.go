package handlers

import (
	"errors"
	"net/http"

	"irrigation_control/internal/hardware"
	"irrigation_control/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusOn      = "on"
	statusOff     = "off"
	statusPulsing = "pulsing"
	statusAllOff  = "all_off"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// zoneErrorStatus maps a manual-command failure to an HTTP status: unknown
// zones are 404, busy conflicts 409, anything touching hardware 502.
func zoneErrorStatus(err error) int {
	switch {
	case errors.Is(err, hardware.ErrUnknownZone):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSequenceRunning), errors.Is(err, service.ErrPulseRunning):
		return http.StatusConflict
	case errors.Is(err, service.ErrBadDuration):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// Request DTO for pulsing a zone.
type pulseRequest struct {
	Seconds int `json:"seconds" binding:"required"`
}

// PulseRequest is an exported model for Swagger docs of the pulse payload.
type PulseRequest struct {
	// Duration of the pulse in seconds (1..3600)
	Seconds int `json:"seconds" example:"30"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List zones
// @Tags         zones
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "zones"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/zones [get]
// @Security     BearerAuth
func (h *Handler) listZones(c *gin.Context) {
	zones := h.services.Zones.List()
	c.JSON(http.StatusOK, gin.H{"zones": zones})
}

// @Summary      Turn a zone on
// @Description  Exclusive activation: every other zone is turned off first.
// @Tags         zones
// @Produce      json
// @Param        key  path  string  true  "Zone key"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/zones/{key}/on [post]
// @Security     BearerAuth
func (h *Handler) zoneOn(c *gin.Context) {
	key := c.Param("key")
	if err := h.services.Zones.TurnOn(key); err != nil {
		h.logAndJSONError(c, zoneErrorStatus(err), err.Error(), "zone_on_failed", err, "zone", key)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOn, "zone": h.services.Zones.ZoneName(key)})
}

// @Summary      Turn a zone off
// @Tags         zones
// @Produce      json
// @Param        key  path  string  true  "Zone key"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/zones/{key}/off [post]
// @Security     BearerAuth
func (h *Handler) zoneOff(c *gin.Context) {
	key := c.Param("key")
	if err := h.services.Zones.TurnOff(key); err != nil {
		h.logAndJSONError(c, zoneErrorStatus(err), err.Error(), "zone_off_failed", err, "zone", key)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOff, "zone": h.services.Zones.ZoneName(key)})
}

// @Summary      Pulse a zone
// @Description  Turns the zone on for the given number of seconds, then off. Runs in the background; refused while a sequence or another pulse is active.
// @Tags         zones
// @Accept       json
// @Produce      json
// @Param        key   path  string        true  "Zone key"
// @Param        body  body  PulseRequest  true  "Pulse payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/zones/{key}/pulse [post]
// @Security     BearerAuth
func (h *Handler) zonePulse(c *gin.Context) {
	var req pulseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	key := c.Param("key")
	if err := h.services.Zones.Pulse(key, req.Seconds); err != nil {
		h.logAndJSONError(c, zoneErrorStatus(err), err.Error(), "zone_pulse_failed", err, "zone", key)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  statusPulsing,
		"zone":    h.services.Zones.ZoneName(key),
		"seconds": req.Seconds,
	})
}

// @Summary      Turn every zone off
// @Description  Raises the cancellation signal first so an in-flight sequence or pulse stops, then turns all zones off.
// @Tags         zones
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/zones/all-off [post]
// @Security     BearerAuth
func (h *Handler) allZonesOff(c *gin.Context) {
	if err := h.services.Zones.AllOff(); err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, err.Error(), "all_off_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusAllOff})
}
