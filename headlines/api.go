package headlines

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/newsmap/newspapers"
	"github.com/rs/zerolog"
)

// LimitSource supplies how many headlines to show per newspaper.
type LimitSource interface {
	HeadlineLimit() int
}

// HeadlineAPIServer represents the HTTP API for newspaper headlines.
type HeadlineAPIServer struct {
	store  *newspapers.NewspaperStore
	client *Client
	limits LimitSource
	logger zerolog.Logger
}

// NewHeadlineAPIServer creates a new headline API server.
func NewHeadlineAPIServer(
	store *newspapers.NewspaperStore,
	client *Client,
	limits LimitSource,
	logger zerolog.Logger,
) *HeadlineAPIServer {
	return &HeadlineAPIServer{
		store:  store,
		client: client,
		limits: limits,
		logger: logger.With().Str("component", "headlines").Logger(),
	}
}

// RegisterRoutes mounts the headline routes on api.
func (s *HeadlineAPIServer) RegisterRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	api.GET("/newspapers/:id/headlines", s.HandleHeadlines)
	api.GET("/preview", requireAuth, s.HandlePreview)
}

// PreviewResponse represents the response for GET /api/preview.
type PreviewResponse struct {
	Title   string `json:"title"`
	FeedURL string `json:"feed_url,omitempty"`
}

func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// HandleHeadlines handles GET /api/newspapers/{id}/headlines. The feed is
// discovered from the newspaper's homepage the first time and remembered.
func (s *HeadlineAPIServer) HandleHeadlines(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid newspaper ID"))
		return
	}

	newspaper, err := s.store.Get(id)
	if errors.Is(err, newspapers.ErrNewspaperNotFound) {
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load newspaper")
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
		return
	}

	var feedURL string
	if newspaper.FeedURL != nil {
		feedURL = *newspaper.FeedURL
	} else {
		feedURL, err = s.client.DiscoverFeedURL(c.Request.Context(), newspaper.URL)
		if errors.Is(err, ErrNoFeed) {
			c.JSON(http.StatusNotFound, errorResponse("no_feed", "Newspaper has no RSS or Atom feed"))
			return
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("url", newspaper.URL).Msg("feed discovery failed")
			c.JSON(http.StatusBadGateway, errorResponse("upstream_error", "Failed to reach newspaper"))
			return
		}
		if err := s.store.Update(id, newspapers.NewspaperUpdate{FeedURL: &feedURL}); err != nil {
			s.logger.Warn().Err(err).Str("id", id.String()).Msg("failed to remember feed URL")
		}
	}

	headlines, err := s.client.FetchHeadlines(c.Request.Context(), feedURL, s.limits.HeadlineLimit())
	if err != nil {
		s.logger.Warn().Err(err).Str("feed_url", feedURL).Msg("failed to fetch headlines")
		c.JSON(http.StatusBadGateway, errorResponse("upstream_error", "Failed to fetch headlines"))
		return
	}

	c.JSON(http.StatusOK, headlines)
}

// HandlePreview handles GET /api/preview?url={url}. The admin panel uses it
// to pre-fill a new newspaper's title.
func (s *HeadlineAPIServer) HandlePreview(c *gin.Context) {
	pageURL := strings.TrimSpace(c.Query("url"))
	if err := newspapers.ValidateURL(pageURL); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "url must be an absolute http or https URL"))
		return
	}

	title, feedURL, err := s.client.Preview(c.Request.Context(), pageURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pageURL).Msg("preview failed")
		c.JSON(http.StatusBadGateway, errorResponse("upstream_error", "Failed to reach page"))
		return
	}

	resp := PreviewResponse{Title: title, FeedURL: feedURL}
	c.JSON(http.StatusOK, resp)
}
