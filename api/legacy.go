package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amartya2002/uptime-monitor/uptime"
)

// LegacySite creates a monitored site with alerts off; auto_monitor and
// notifications_enabled in the body are ignored, as they always were.
type LegacySite struct {
	URL      string `json:"url" binding:"required"`
	Name     string `json:"name"`
	Interval int    `json:"interval" binding:"omitempty,min=1"`
}

type LegacySiteUpdate struct {
	URL                  *string `json:"url"`
	Name                 *string `json:"name"`
	Interval             *int    `json:"interval" binding:"omitempty,min=1"`
	AutoMonitor          *bool   `json:"auto_monitor"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
}

func (s LegacySite) spec() uptime.TargetSpec {
	return uptime.TargetSpec{
		URL:      s.URL,
		Name:     s.Name,
		Interval: s.Interval,
	}
}

func (u LegacySiteUpdate) patch() uptime.TargetPatch {
	return uptime.TargetPatch{
		URL:                  u.URL,
		Name:                 u.Name,
		Interval:             u.Interval,
		AutoMonitor:          u.AutoMonitor,
		NotificationsEnabled: u.NotificationsEnabled,
	}
}

func toLegacy(targets []uptime.Target) []uptime.LegacyTarget {
	out := make([]uptime.LegacyTarget, len(targets))
	for i, t := range targets {
		out[i] = uptime.ToLegacy(t)
	}
	return out
}

func (s *Server) handleLegacyList(c *gin.Context) {
	sites, err := s.engine.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLegacy(sites))
}

func (s *Server) handleLegacyCreate(c *gin.Context) {
	var site LegacySite
	if err := c.ShouldBindJSON(&site); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := s.engine.Create(c.Request.Context(), site.spec())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, uptime.ToLegacy(created))
}

func (s *Server) handleLegacyUpdate(c *gin.Context) {
	var update LegacySiteUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	site, err := s.engine.Update(c.Request.Context(), c.Param("id"), update.patch())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, uptime.ToLegacy(site))
}

// handleLegacyDelete answers with the remaining sites, as the dashboard did.
func (s *Server) handleLegacyDelete(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.engine.Delete(ctx, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	sites, err := s.engine.List(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted", "sites": toLegacy(sites)})
}

func (s *Server) handleLegacyCheck(c *gin.Context) {
	site, err := s.engine.Check(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, uptime.ToLegacy(site))
}
