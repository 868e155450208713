package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/amartya2002/uptime-monitor/uptime"
)

const defaultLogLimit = 50

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleList(c *gin.Context) {
	sites, err := s.engine.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sites)
}

func (s *Server) handleGet(c *gin.Context) {
	site, err := s.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

// Add single site
func (s *Server) handleCreate(c *gin.Context) {
	var site Site
	if err := c.ShouldBindJSON(&site); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.engine.Create(c.Request.Context(), site.spec())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Add multiple sites
func (s *Server) handleCreateBatch(c *gin.Context) {
	var sites []Site
	if err := c.ShouldBindJSON(&sites); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	specs := make([]uptime.TargetSpec, len(sites))
	for i, site := range sites {
		specs[i] = site.spec()
	}

	created, err := s.engine.CreateBulk(c.Request.Context(), specs)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Sites added successfully",
		"count":   len(created),
		"sites":   created,
	})
}

func (s *Server) handleUpdate(c *gin.Context) {
	var update SiteUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	site, err := s.engine.Update(c.Request.Context(), c.Param("id"), update.patch())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.engine.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Site deleted"})
}

func (s *Server) handleCheck(c *gin.Context) {
	site, err := s.engine.Check(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

// Get logs of a site by ID
func (s *Server) handleLogs(c *gin.Context) {
	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	site, err := s.engine.Get(ctx, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	logs, err := s.engine.History(ctx, site.ID, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	site.History = nil
	c.JSON(http.StatusOK, SiteLogResponse{Site: site, Logs: logs})
}

func (s *Server) writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, uptime.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, uptime.ErrCheckInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": uptime.ErrCheckInProgress.Error()})
	case errors.Is(err, uptime.ErrInvalidTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
