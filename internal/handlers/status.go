package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseLimit reads ?limit=N; zero means "use the service default".
func parseLimit(c *gin.Context) (int, bool) {
	qs := c.Query("limit")
	if qs == "" {
		return 0, true
	}
	n, err := strconv.Atoi(qs)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// @Summary      System status
// @Description  Run state, zone states, sensor health, latest environment reading and most recent firing.
// @Tags         status
// @Produce      json
// @Success      200  {object}  service.StatusReport
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Status())
}

// @Summary      Device health
// @Tags         status
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "devices"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/hardware [get]
// @Security     BearerAuth
func (h *Handler) getHardware(c *gin.Context) {
	devices := h.services.Monitoring.Hardware()
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

// @Summary      Recent hardware errors
// @Tags         status
// @Produce      json
// @Param        limit  query  int  false  "Max records, most recent first"  example(20)
// @Success      200  {object}  map[string]interface{}  "count, errors"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/hardware/errors [get]
// @Security     BearerAuth
func (h *Handler) getHardwareErrors(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	records, err := h.services.Monitoring.HardwareErrors(limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load hardware errors", "hardware_errors_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "errors": records})
}

// @Summary      Recent humidity skips
// @Tags         status
// @Produce      json
// @Param        limit  query  int  false  "Max records, most recent first"  example(20)
// @Success      200  {object}  map[string]interface{}  "count, skips"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/skips [get]
// @Security     BearerAuth
func (h *Handler) getSkips(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	records, err := h.services.Monitoring.Skips(limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load skip log", "skips_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "skips": records})
}

// @Summary      Refresh sensor reading
// @Description  Drops the cached reading and queries the sensor immediately.
// @Tags         status
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "environment"
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/sensor/refresh [post]
// @Security     BearerAuth
func (h *Handler) refreshSensor(c *gin.Context) {
	env, err := h.services.Monitoring.RefreshSensor()
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, "sensor unavailable", "sensor_refresh_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"environment": env})
}
