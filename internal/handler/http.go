package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"video-scheduler/internal/models"
	"video-scheduler/internal/repository"
	"video-scheduler/internal/service"
	"video-scheduler/internal/timeutil"
)

// HTTPHandler handles HTTP requests for the dashboard API
type HTTPHandler struct {
	generator    *service.ScheduleGenerator
	maintenance  *service.PoolMaintenanceService
	backupSvc    *service.BackupService
	configRepo   *repository.ConfigRepository
	scheduleRepo *repository.ScheduleRepository
	apiToken     string
}

// NewHTTPHandler creates a new HTTPHandler
func NewHTTPHandler(
	generator *service.ScheduleGenerator,
	maintenance *service.PoolMaintenanceService,
	backupSvc *service.BackupService,
	configRepo *repository.ConfigRepository,
	scheduleRepo *repository.ScheduleRepository,
	apiToken string,
) *HTTPHandler {
	return &HTTPHandler{
		generator:    generator,
		maintenance:  maintenance,
		backupSvc:    backupSvc,
		configRepo:   configRepo,
		scheduleRepo: scheduleRepo,
		apiToken:     strings.TrimSpace(apiToken),
	}
}

// RegisterRoutes registers all HTTP routes
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	// Health check must allow unauthenticated ping for probes
	r.GET("/api/health", h.Health)

	api := r.Group("/api")
	api.Use(h.authMiddleware)

	// Schedule
	api.GET("/schedule", h.GetSchedule)
	api.GET("/summary", h.GetSummary)
	api.POST("/generate", h.Generate)

	// Config
	api.GET("/config", h.GetConfig)
	api.PUT("/config/status", h.UpdateSystemStatus)

	// Channels
	api.GET("/channels", h.GetChannels)
	api.POST("/channels", h.CreateChannel)
	api.PUT("/channels/:id/active", h.SetChannelActive)

	// Pools
	api.GET("/pools/stats", h.GetPoolStats)
	api.POST("/pools/sync", h.SyncPools)
	api.POST("/pools/sweep", h.SweepPools)

	// Backups
	api.POST("/backup", h.Backup)
}

// GetSchedule returns the schedule rows for a date
// GET /api/schedule?date=YYYY-MM-DD
func (h *HTTPHandler) GetSchedule(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = timeutil.Today()
	}

	videos, err := h.scheduleRepo.GetByDate(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if videos == nil {
		videos = []models.ScheduledVideo{}
	}

	c.JSON(http.StatusOK, gin.H{"date": date, "videos": videos})
}

// GetSummary returns aggregate counts for a date
// GET /api/summary?date=YYYY-MM-DD
func (h *HTTPHandler) GetSummary(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = timeutil.Today()
	}

	summary, err := h.scheduleRepo.GetSummary(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Generate triggers schedule generation
// POST /api/generate {"date": "YYYY-MM-DD"} (optional, defaults to tomorrow)
func (h *HTTPHandler) Generate(c *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	// Empty body is allowed
	_ = c.ShouldBindJSON(&req)

	plan, err := h.generator.Generate(req.Date)
	if err != nil {
		c.JSON(generateErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// generateErrorStatus maps generator failures onto HTTP status codes
func generateErrorStatus(err error) int {
	var eligibility *service.EligibilityError
	switch {
	case errors.Is(err, service.ErrScheduleExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrSystemPaused),
		errors.Is(err, service.ErrNoActiveChannels),
		errors.Is(err, service.ErrConfigMissing):
		return http.StatusUnprocessableEntity
	case errors.As(err, &eligibility):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// GetConfig returns the schedule configuration
func (h *HTTPHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configRepo.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "config not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// UpdateSystemStatus pauses or resumes schedule generation
// PUT /api/config/status {"status": "active"|"paused"}
func (h *HTTPHandler) UpdateSystemStatus(c *gin.Context) {
	var req struct {
		Status models.SystemStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != models.SystemStatusActive && req.Status != models.SystemStatusPaused {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active or paused"})
		return
	}

	if err := h.configRepo.SetSystemStatus(req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// GetChannels returns all target channels
func (h *HTTPHandler) GetChannels(c *gin.Context) {
	channels, err := h.configRepo.GetAllChannels()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if channels == nil {
		channels = []models.TargetChannel{}
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// CreateChannel adds a new target channel
// POST /api/channels {"name": "..."}
func (h *HTTPHandler) CreateChannel(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel := &models.TargetChannel{Name: req.Name, Active: true}
	if err := h.configRepo.CreateChannel(channel); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": channel})
}

// SetChannelActive toggles a channel in or out of daily generation
// PUT /api/channels/:id/active {"active": true|false}
func (h *HTTPHandler) SetChannelActive(c *gin.Context) {
	id := h.getIntParam(c, "id")
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel, err := h.configRepo.GetChannelByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if channel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	if err := h.configRepo.SetChannelActive(id, *req.Active); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	channel.Active = *req.Active
	c.JSON(http.StatusOK, gin.H{"channel": channel})
}

// GetPoolStats returns per-status counts for both pools
func (h *HTTPHandler) GetPoolStats(c *gin.Context) {
	stats, err := h.maintenance.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SyncPools pulls recent videos from the monitoring pipeline
func (h *HTTPHandler) SyncPools(c *gin.Context) {
	result, err := h.maintenance.SyncNewVideos()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// SweepPools retires over-scheduled videos in both pools
func (h *HTTPHandler) SweepPools(c *gin.Context) {
	result, err := h.maintenance.SweepExhausted()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Backup creates a database backup
func (h *HTTPHandler) Backup(c *gin.Context) {
	backupPath, err := h.backupSvc.Backup()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"backup_path": backupPath})
}

// Health returns health status
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// authMiddleware enforces Bearer token authentication against the configured API token.
func (h *HTTPHandler) authMiddleware(c *gin.Context) {
	if h.apiToken == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "WEB_API_TOKEN not set"})
		c.Abort()
		return
	}

	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
		c.Abort()
		return
	}

	if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(h.apiToken)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
		return
	}

	c.Next()
}

func (h *HTTPHandler) getIntParam(c *gin.Context, key string) int64 {
	value := c.Param(key)
	if value == "" {
		value = c.Query(key)
	}
	if value == "" {
		return 0
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
