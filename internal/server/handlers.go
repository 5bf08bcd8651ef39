package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/recastlabs/recast/internal/models"
	"github.com/recastlabs/recast/internal/service"
	"github.com/recastlabs/recast/internal/store"
)

// respondError maps service errors onto the wire envelope. Validation and
// precondition failures carry their code; everything else is a 500 with the
// detail kept in the logs.
func (s *Server) respondError(c *gin.Context, err error) {
	if coded, ok := err.(*service.CodedError); ok {
		status := http.StatusBadRequest
		if coded.Code == service.CodeUnitNotReady {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": gin.H{"code": coded.Code, "message": coded.Message}})
		return
	}
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "resource not found"}})
		return
	}
	s.Logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "INTERNAL", "message": "internal error"}})
}

func (s *Server) handleCreateProfile(c *gin.Context) {
	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": service.CodeInvalidRequest, "message": err.Error()}})
		return
	}
	if profile.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": service.CodeInvalidRequest, "message": "name is required"}})
		return
	}
	if profile.ConfigVersion == 0 {
		profile.ConfigVersion = 1
	}

	if err := s.Store.CreateProfile(&profile); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (s *Server) handleListProfiles(c *gin.Context) {
	profiles, err := s.Store.ListProfiles()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": service.CodeInvalidRequest, "message": "invalid profile id"}})
		return
	}
	profile, err := s.Store.GetProfile(uint(id))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleSavePlatformConfig(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": service.CodeInvalidRequest, "message": "invalid profile id"}})
		return
	}
	platform := c.Param("platform")
	if !service.IsSupportedPlatform(platform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": service.CodeInvalidPlatforms, "message": "unsupported platform: " + platform}})
		return
	}
	if _, err := s.Store.GetProfile(uint(id)); err != nil {
		s.respondError(c, err)
		return
	}

	var pc models.PlatformConfig
	if err := c.ShouldBindJSON(&pc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": service.CodeInvalidRequest, "message": err.Error()}})
		return
	}
	pc.ProfileID = uint(id)
	pc.Platform = platform

	if err := s.Store.SavePlatformConfig(&pc); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pc)
}

func (s *Server) handleSubmitContent(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": service.CodeInvalidRequest, "message": err.Error()}})
		return
	}

	unit, err := s.Intake.Submit(req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":               unit.PublicID,
		"status":           unit.Status,
		"target_platforms": unit.TargetPlatforms,
	})
}

func (s *Server) handleGetStatus(c *gin.Context) {
	report, err := s.Status.Poll(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleGetResults(c *gin.Context) {
	includeMetadata := c.Query("includeMetadata") == "1" || c.Query("includeMetadata") == "true"
	report, err := s.Status.Results(c.Param("id"), includeMetadata)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type editRequest struct {
	Copy     *string  `json:"copy"`
	Hashtags []string `json:"hashtags"`
}

func (s *Server) handleEditResult(c *gin.Context) {
	resultID, err := strconv.ParseUint(c.Param("resultId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": service.CodeInvalidRequest, "message": "invalid result id"}})
		return
	}

	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": service.CodeInvalidRequest, "message": err.Error()}})
		return
	}

	result, err := s.Editor.ApplyEdit(c.Param("id"), uint(resultID), req.Copy, req.Hashtags)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type regenerateRequest struct {
	Platforms []string `json:"platforms"`
}

func (s *Server) handleRegenerate(c *gin.Context) {
	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": service.CodeInvalidRequest, "message": err.Error()}})
		return
	}

	if err := s.Editor.Regenerate(c.Param("id"), req.Platforms); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"id":        c.Param("id"),
		"platforms": req.Platforms,
	})
}

type scheduleRequest struct {
	Mode      string            `json:"mode"`
	Overrides map[string]string `json:"overrides"`
}

func (s *Server) handleSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": service.CodeInvalidRequest, "message": err.Error()}})
		return
	}

	overrides := make(map[string]time.Time, len(req.Overrides))
	for platform, raw := range req.Overrides {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
				"code":    service.CodeInvalidSchedule,
				"message": "invalid timestamp for " + platform + ": " + raw,
			}})
			return
		}
		overrides[platform] = at
	}

	items, err := s.Schedule.Schedule(c.Param("id"), req.Mode, overrides)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scheduled": items})
}
