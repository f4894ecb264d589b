package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"irrigation_control/internal/models"
	"irrigation_control/internal/service"

	"github.com/gin-gonic/gin"
)

// Request DTO for adding a schedule.
type scheduleRequest struct {
	Name     string                `json:"name" binding:"required"`
	Start    string                `json:"start" binding:"required"` // "HH:MM", 24h
	Days     []string              `json:"days" binding:"required"`
	Sequence []models.SequenceStep `json:"sequence" binding:"required"`
}

// ScheduleRequest is an exported model for Swagger docs of the add payload.
type ScheduleRequest struct {
	// Display name of the schedule
	Name string `json:"name" example:"Morning lawn"`
	// Start time, 24h clock
	Start string `json:"start" example:"06:00"`
	// Days of week the schedule fires on
	Days []string `json:"days" example:"Mon,Wed,Fri"`
	// Ordered zone steps, minutes each
	Sequence []models.SequenceStep `json:"sequence"`
}

// @Summary      List schedules
// @Tags         schedules
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, schedules"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/schedules [get]
// @Security     BearerAuth
func (h *Handler) listSchedules(c *gin.Context) {
	schedules, err := h.services.Schedules.List()
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load schedules", "schedules_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(schedules),
		"schedules": schedules,
	})
}

// @Summary      Add a schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        body  body  ScheduleRequest  true  "Schedule payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/schedules [post]
// @Security     BearerAuth
func (h *Handler) addSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	added, err := h.services.Schedules.Add(models.Schedule{
		Name:     req.Name,
		Start:    req.Start,
		Days:     req.Days,
		Sequence: req.Sequence,
	})
	if err != nil {
		// Validation failures carry a user-facing reason; store failures do not.
		if h.log != nil {
			h.log.Infow("schedule_add_rejected", "name", req.Name, "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": added})
}

// @Summary      Delete a schedule
// @Tags         schedules
// @Produce      json
// @Param        id  path  int  true  "Schedule id"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/schedules/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteSchedule(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "schedule id must be an integer"})
		return
	}

	if err := h.services.Schedules.Delete(id); err != nil {
		if errors.Is(err, service.ErrScheduleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to delete schedule", "schedule_delete_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
