package newspapers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/newsmap/countries"
	"github.com/pevans/newsmap/metrics"
	"github.com/rs/zerolog"
)

// Notifier is told about every newspaper created through the API.
type Notifier interface {
	NotifyNewNewspaper(newspaper Newspaper) (int, error)
}

// NewspaperAPIServer represents the HTTP API for newspapers and the
// countries they are registered under.
type NewspaperAPIServer struct {
	store    *NewspaperStore
	matcher  *countries.Matcher
	notifier Notifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewNewspaperAPIServer creates a new newspaper API server. notifier and m
// may be nil.
func NewNewspaperAPIServer(
	store *NewspaperStore,
	matcher *countries.Matcher,
	notifier Notifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *NewspaperAPIServer {
	return &NewspaperAPIServer{
		store:    store,
		matcher:  matcher,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With().Str("component", "newspapers").Logger(),
	}
}

// RegisterRoutes mounts the newspaper and country routes on api. Mutating
// routes go through requireAuth.
func (s *NewspaperAPIServer) RegisterRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	api.GET("/newspapers", s.HandleListNewspapers)
	api.GET("/newspapers/match", s.HandleMatchNewspapers)
	api.GET("/newspapers/country/:code", s.HandleListByCountry)
	api.GET("/newspapers/:id", s.HandleGetNewspaper)
	api.POST("/newspapers", requireAuth, s.HandleCreateNewspaper)
	api.PUT("/newspapers/:id", requireAuth, s.HandleUpdateNewspaper)
	api.DELETE("/newspapers/:id", requireAuth, s.HandleDeleteNewspaper)

	api.GET("/countries", s.HandleListCountries)
	api.GET("/countries/match", s.HandleMatchCountry)
	api.GET("/countries/suggest", s.HandleSuggestCode)
	api.GET("/countries/registry", s.HandleRegistry)
}

// CreateNewspaperRequest represents the request for POST /api/newspapers.
type CreateNewspaperRequest struct {
	Title       string `json:"title" binding:"required"`
	URL         string `json:"url" binding:"required"`
	CountryCode string `json:"country_code" binding:"required"`
}

// UpdateNewspaperRequest represents the request for PUT /api/newspapers/{id}.
type UpdateNewspaperRequest struct {
	Title       *string `json:"title,omitempty"`
	URL         *string `json:"url,omitempty"`
	CountryCode *string `json:"country_code,omitempty"`
	FeedURL     *string `json:"feed_url,omitempty"`
}

// CountryInfo represents one entry of GET /api/countries.
type CountryInfo struct {
	CountryCode    string `json:"country_code"`
	NewspaperCount int    `json:"newspaper_count"`
	Name           string `json:"name,omitempty"`
}

// CountryMatchResponse represents the response for GET /api/countries/match.
type CountryMatchResponse struct {
	Name    string   `json:"name"`
	Codes   []string `json:"codes"`
	HasNews bool     `json:"has_news"`
}

// SuggestCodeResponse represents the response for GET
// /api/countries/suggest.
type SuggestCodeResponse struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	Registered bool   `json:"registered"`
}

// MessageResponse is returned by operations without a resource body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse creates a standardized error response.
func ErrorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// handleError maps domain errors to HTTP responses.
func (s *NewspaperAPIServer) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNewspaperNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse("not_found", err.Error()))
	case errors.Is(err, ErrDuplicateURL):
		c.JSON(http.StatusConflict, ErrorResponse("conflict", err.Error()))
	case errors.Is(err, ErrInvalidNewspaper):
		c.JSON(http.StatusBadRequest, ErrorResponse("validation_error", err.Error()))
	default:
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse("internal_error", "Failed to process request"))
	}
}

// observedMatcher counts every match decision in the metrics.
func (s *NewspaperAPIServer) observedMatcher() *countries.Matcher {
	return s.matcher.WithObserver(s.metrics.ObserveMatch)
}

// HandleListNewspapers handles GET /api/newspapers.
func (s *NewspaperAPIServer) HandleListNewspapers(c *gin.Context) {
	newspapers, err := s.store.List(NewspaperFilter{})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newspapers)
}

// HandleListByCountry handles GET /api/newspapers/country/{code}. The code is
// compared exactly (ignoring case), without the matcher's fallbacks.
func (s *NewspaperAPIServer) HandleListByCountry(c *gin.Context) {
	code := c.Param("code")

	newspapers, err := s.store.List(NewspaperFilter{CountryCode: &code})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newspapers)
}

// HandleMatchNewspapers handles GET /api/newspapers/match?country={name}. It
// returns the newspapers whose code matches the map's country name.
func (s *NewspaperAPIServer) HandleMatchNewspapers(c *gin.Context) {
	name := c.Query("country")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse("bad_request", "country query parameter is required"))
		return
	}

	all, err := s.store.List(NewspaperFilter{})
	if err != nil {
		s.handleError(c, err)
		return
	}

	matched := countries.Filter(s.observedMatcher(), name, all, func(n Newspaper) string {
		return n.CountryCode
	})

	c.JSON(http.StatusOK, matched)
}

// HandleGetNewspaper handles GET /api/newspapers/{id}.
func (s *NewspaperAPIServer) HandleGetNewspaper(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("bad_request", "Invalid newspaper ID"))
		return
	}

	newspaper, err := s.store.Get(id)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newspaper)
}

// HandleCreateNewspaper handles POST /api/newspapers.
func (s *NewspaperAPIServer) HandleCreateNewspaper(c *gin.Context) {
	var req CreateNewspaperRequest

	// Bind JSON -- Gin validates required fields automatically
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("validation_error", err.Error()))
		return
	}

	newspaper, err := s.store.Create(req.Title, req.URL, req.CountryCode)
	if err != nil {
		s.handleError(c, err)
		return
	}

	s.logger.Info().
		Str("id", newspaper.ID.String()).
		Str("country_code", newspaper.CountryCode).
		Msg("newspaper created")

	// A failed notification doesn't undo the newspaper
	if s.notifier != nil {
		if _, err := s.notifier.NotifyNewNewspaper(*newspaper); err != nil {
			s.logger.Warn().Err(err).Str("id", newspaper.ID.String()).Msg("failed to notify subscribers")
		}
	}

	c.JSON(http.StatusCreated, newspaper)
}

// HandleUpdateNewspaper handles PUT /api/newspapers/{id}.
func (s *NewspaperAPIServer) HandleUpdateNewspaper(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("bad_request", "Invalid newspaper ID"))
		return
	}

	var req UpdateNewspaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("bad_request", err.Error()))
		return
	}

	update := NewspaperUpdate{
		Title:       req.Title,
		URL:         req.URL,
		CountryCode: req.CountryCode,
		FeedURL:     req.FeedURL,
	}
	if err := s.store.Update(id, update); err != nil {
		s.handleError(c, err)
		return
	}

	// Return updated newspaper
	newspaper, err := s.store.Get(id)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newspaper)
}

// HandleDeleteNewspaper handles DELETE /api/newspapers/{id}.
func (s *NewspaperAPIServer) HandleDeleteNewspaper(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("bad_request", "Invalid newspaper ID"))
		return
	}

	if err := s.store.Delete(id); err != nil {
		s.handleError(c, err)
		return
	}

	s.logger.Info().Str("id", id.String()).Msg("newspaper deleted")
	c.JSON(http.StatusOK, MessageResponse{Message: "Newspaper deleted successfully"})
}

// HandleListCountries handles GET /api/countries: every code with at least
// one newspaper, named from the registry when it knows the code.
func (s *NewspaperAPIServer) HandleListCountries(c *gin.Context) {
	counts, err := s.store.CountByCountry()
	if err != nil {
		s.handleError(c, err)
		return
	}

	registry := s.matcher.Registry()
	infos := make([]CountryInfo, 0, len(counts))
	for _, count := range counts {
		info := CountryInfo{
			CountryCode:    count.CountryCode,
			NewspaperCount: count.NewspaperCount,
		}
		if registry != nil {
			info.Name, _ = registry.NameForCode(count.CountryCode)
		}
		infos = append(infos, info)
	}

	c.JSON(http.StatusOK, infos)
}

// HandleMatchCountry handles GET /api/countries/match?name={name}. The map
// uses it to decide whether to highlight a region.
func (s *NewspaperAPIServer) HandleMatchCountry(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse("bad_request", "name query parameter is required"))
		return
	}

	counts, err := s.store.CountByCountry()
	if err != nil {
		s.handleError(c, err)
		return
	}

	known := make([]string, 0, len(counts))
	for _, count := range counts {
		known = append(known, count.CountryCode)
	}
	codes := s.observedMatcher().MatchingCodes(name, known)

	c.JSON(http.StatusOK, CountryMatchResponse{
		Name:    name,
		Codes:   codes,
		HasNews: len(codes) > 0,
	})
}

// HandleSuggestCode handles GET /api/countries/suggest?name={name}. The admin
// panel uses it to pre-fill the code of a new newspaper.
func (s *NewspaperAPIServer) HandleSuggestCode(c *gin.Context) {
	name := c.Query("name")
	registry := s.matcher.Registry()
	if registry == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse("unavailable", "No country registry configured"))
		return
	}

	_, registered := registry.CodeForName(name)
	c.JSON(http.StatusOK, SuggestCodeResponse{
		Name:       name,
		Code:       registry.SuggestedCode(name),
		Registered: registered,
	})
}

// HandleRegistry handles GET /api/countries/registry.
func (s *NewspaperAPIServer) HandleRegistry(c *gin.Context) {
	registry := s.matcher.Registry()
	if registry == nil {
		c.JSON(http.StatusOK, []countries.Entry{})
		return
	}

	c.JSON(http.StatusOK, registry.Entries())
}
