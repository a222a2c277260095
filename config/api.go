package config

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SettingsAPIServer represents the HTTP API for runtime settings.
type SettingsAPIServer struct {
	store *SettingsStore
}

// NewSettingsAPIServer creates a new settings API server.
func NewSettingsAPIServer(store *SettingsStore) *SettingsAPIServer {
	return &SettingsAPIServer{
		store: store,
	}
}

// RegisterRoutes mounts the settings routes on api. Updates go through
// requireAuth.
func (s *SettingsAPIServer) RegisterRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	api.GET("/settings", s.HandleGetSettings)
	api.PUT("/settings", requireAuth, s.HandleUpdateSettings)
}

// UpdateSettingsRequest represents the request for PUT /api/settings.
type UpdateSettingsRequest struct {
	HeadlineLimit *int `json:"headline_limit"`
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// HandleGetSettings handles GET /api/settings.
func (s *SettingsAPIServer) HandleGetSettings(c *gin.Context) {
	settings, err := s.store.GetSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to retrieve settings"))
		return
	}

	c.JSON(http.StatusOK, settings)
}

// HandleUpdateSettings handles PUT /api/settings.
func (s *SettingsAPIServer) HandleUpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", err.Error()))
		return
	}

	settings, err := s.store.GetSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to retrieve settings"))
		return
	}

	// If no fields provided (empty body), return current settings
	if req.HeadlineLimit == nil {
		c.JSON(http.StatusOK, settings)
		return
	}

	settings.HeadlineLimit = *req.HeadlineLimit
	if err := s.store.UpdateSettings(settings); err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to update settings"))
		return
	}

	c.JSON(http.StatusOK, settings)
}
