package geoip

import (
	"errors"
	"net/http"
	"net/netip"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LocateAPIServer represents the HTTP API for visitor location.
type LocateAPIServer struct {
	locator *Locator
	logger  zerolog.Logger
}

// NewLocateAPIServer creates a new locate API server. A nil locator means no
// database is configured.
func NewLocateAPIServer(locator *Locator, logger zerolog.Logger) *LocateAPIServer {
	return &LocateAPIServer{
		locator: locator,
		logger:  logger.With().Str("component", "geoip").Logger(),
	}
}

// RegisterRoutes mounts the locate route on api.
func (s *LocateAPIServer) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/locate", s.HandleLocate)
}

func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// HandleLocate handles GET /api/locate for the calling client's address.
func (s *LocateAPIServer) HandleLocate(c *gin.Context) {
	if s.locator == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse("unavailable", "No geolocation database configured"))
		return
	}

	ip, err := netip.ParseAddr(c.ClientIP())
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Unrecognized client address"))
		return
	}

	loc, err := s.locator.Locate(ip)
	switch {
	case errors.Is(err, ErrPrivateAddress), errors.Is(err, ErrUnknownLocation):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case err != nil:
		s.logger.Error().Err(err).Str("ip", ip.String()).Msg("lookup failed")
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	default:
		c.JSON(http.StatusOK, loc)
	}
}
