package notifications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/newsmap/auth"
	"github.com/rs/zerolog"
)

// NotificationAPIServer represents the HTTP API for subscriptions and
// notifications. Every route requires authentication.
type NotificationAPIServer struct {
	store  *NotificationStore
	logger zerolog.Logger
}

// NewNotificationAPIServer creates a new notification API server.
func NewNotificationAPIServer(store *NotificationStore, logger zerolog.Logger) *NotificationAPIServer {
	return &NotificationAPIServer{
		store:  store,
		logger: logger.With().Str("component", "notifications").Logger(),
	}
}

// RegisterRoutes mounts the notification routes on api behind requireAuth.
func (s *NotificationAPIServer) RegisterRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	group := api.Group("/notifications", requireAuth)
	group.POST("/subscribe", s.HandleSubscribe)
	group.GET("/subscription", s.HandleGetSubscription)
	group.GET("", s.HandleListNotifications)
	group.PUT("/:id/read", s.HandleMarkRead)
	group.GET("/unread-count", s.HandleUnreadCount)
}

// SubscribeRequest represents the request for POST
// /api/notifications/subscribe. NotifyNewNewspapers defaults to true.
type SubscribeRequest struct {
	CountryCodes        []string `json:"country_codes"`
	NotifyNewNewspapers *bool    `json:"notify_new_newspapers,omitempty"`
}

// UnreadCountResponse represents the response for GET
// /api/notifications/unread-count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// userID returns the caller's ID or aborts with 401.
func (s *NotificationAPIServer) userID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := auth.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "Missing user"))
	}
	return id, ok
}

func (s *NotificationAPIServer) internalError(c *gin.Context, err error) {
	s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
}

// HandleSubscribe handles POST /api/notifications/subscribe.
func (s *NotificationAPIServer) HandleSubscribe(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	notify := true
	if req.NotifyNewNewspapers != nil {
		notify = *req.NotifyNewNewspapers
	}

	sub, err := s.store.Subscribe(userID, req.CountryCodes, notify)
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// HandleGetSubscription handles GET /api/notifications/subscription. Users
// without a subscription get an empty one.
func (s *NotificationAPIServer) HandleGetSubscription(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	sub, err := s.store.GetSubscription(userID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if sub == nil {
		sub = &Subscription{
			UserID:              userID,
			CountryCodes:        []string{},
			NotifyNewNewspapers: true,
		}
	}

	c.JSON(http.StatusOK, sub)
}

// HandleListNotifications handles GET /api/notifications?limit={n}.
func (s *NotificationAPIServer) HandleListNotifications(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, errorResponse("bad_request", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	notifications, err := s.store.List(userID, limit)
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// HandleMarkRead handles PUT /api/notifications/{id}/read.
func (s *NotificationAPIServer) HandleMarkRead(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid notification ID"))
		return
	}

	if err := s.store.MarkRead(userID, id); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
			return
		}
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// HandleUnreadCount handles GET /api/notifications/unread-count.
func (s *NotificationAPIServer) HandleUnreadCount(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	count, err := s.store.UnreadCount(userID)
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}
