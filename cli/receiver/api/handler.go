package api

import (
	"net/http"
	"time"

	"github.com/daniil11ru/itms/cli/receiver/domain"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	Stats *domain.Stats
	Now   func() time.Time
}

func NewHandler(stats *domain.Stats) *Handler {
	return &Handler{Stats: stats, Now: time.Now}
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Stats.Snapshot(h.Now()))
}

func (h *Handler) GetLatestReadings(c *gin.Context) {
	topic, ok := c.GetQuery("topic")
	if !ok {
		readings := h.Stats.Latest()
		if readings == nil {
			readings = []domain.Reading{}
		}
		c.JSON(http.StatusOK, readings)
		return
	}

	reading, found := h.Stats.LatestFor(topic)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "нет показаний для топика " + topic})
		return
	}
	c.JSON(http.StatusOK, reading)
}
