package server

import (
	"errors"
	"net/http"
	"strings"

	"meetme/internal/agenda"
	"meetme/internal/models"
	"meetme/internal/store"

	"github.com/gin-gonic/gin"
)

type meetingRequest struct {
	Title       string `json:"title" binding:"required"`
	Proposer    string `json:"proposer"`
	Description string `json:"description"`
	StartDate   string `json:"startDate" binding:"required"`
	EndDate     string `json:"endDate" binding:"required"`
	BeginTime   string `json:"beginTime" binding:"required"`
	EndTime     string `json:"endTime" binding:"required"`
}

type busyRequest struct {
	Name string             `json:"name" binding:"required"`
	Busy []models.TimeRange `json:"busy"`
}

type freeRequest struct {
	Bound models.TimeRange   `json:"bound"`
	Busy  []models.TimeRange `json:"busy"`
}

func (s *Server) listMeetings(c *gin.Context) {
	meetings, err := s.store.Meetings(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list meetings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list meetings", "details": err.Error()})
		return
	}
	if meetings == nil {
		meetings = []models.Meeting{}
	}
	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

func (s *Server) createMeeting(c *gin.Context) {
	var req meetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	m := models.Meeting{
		Title:       req.Title,
		Proposer:    req.Proposer,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		BeginTime:   req.BeginTime,
		EndTime:     req.EndTime,
	}
	if err := m.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meeting", "details": err.Error()})
		return
	}

	id, err := s.store.CreateMeeting(c.Request.Context(), m)
	if err != nil {
		s.logger.Error("Failed to create meeting", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create meeting", "details": err.Error()})
		return
	}

	s.logger.Info("Created meeting", "id", id, "title", m.Title)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) getMeeting(c *gin.Context) {
	av, err := s.planner.Available(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, "Failed to load meeting", err)
		return
	}

	respondents := av.Respondents
	if respondents == nil {
		respondents = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"meeting":     av.Meeting,
		"respondents": respondents,
		"available":   models.TimeRanges(av.Free),
	})
}

// deleteMeetings removes the meetings listed in the semicolon separated ids parameter.
func (s *Server) deleteMeetings(c *gin.Context) {
	var ids []string
	for _, id := range strings.Split(c.Query("ids"), ";") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No meeting ids given"})
		return
	}

	if err := s.store.DeleteMeetings(c.Request.Context(), ids...); err != nil {
		s.logger.Error("Failed to delete meetings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete meetings", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": ids})
}

func (s *Server) addBusyTimes(c *gin.Context) {
	var req busyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	events := make([]models.Event, 0, len(req.Busy))
	for _, r := range req.Busy {
		appt, err := r.Appt()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid busy time", "details": err.Error()})
			return
		}
		events = append(events, models.Event{
			Title:  appt.Desc(),
			Start:  appt.Begin(),
			End:    appt.End(),
			Source: "api",
		})
	}

	busy, err := s.planner.Respond(c.Request.Context(), c.Param("id"), req.Name, events)
	if err != nil {
		s.abortWithError(c, "Failed to store busy times", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"busy": busy})
}

// freeTimes returns the gaps within the bound not covered by any busy time.
func (s *Server) freeTimes(c *gin.Context) {
	var req freeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	bound, err := req.Bound.Appt()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bound", "details": err.Error()})
		return
	}

	busy := agenda.New()
	for _, r := range req.Busy {
		appt, err := r.Appt()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid busy time", "details": err.Error()})
			return
		}
		busy.Append(appt)
	}

	free := busy.Canonical().Complement(bound)
	c.JSON(http.StatusOK, gin.H{"free": models.TimeRanges(free)})
}

func (s *Server) abortWithError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found", "details": err.Error()})
	case errors.Is(err, agenda.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": msg, "details": err.Error()})
	default:
		s.logger.Error(msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg, "details": err.Error()})
	}
}
