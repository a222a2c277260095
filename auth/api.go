package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Credentials are the bootstrap admin's username and password.
type Credentials struct {
	Username string
	Password string
}

// AuthAPIServer represents the HTTP API for logging in.
type AuthAPIServer struct {
	users  *UserStore
	tokens *TokenService
	admin  Credentials
	logger zerolog.Logger
}

// NewAuthAPIServer creates a new auth API server. The admin user is created
// the first time it logs in with admin's credentials.
func NewAuthAPIServer(users *UserStore, tokens *TokenService, admin Credentials, logger zerolog.Logger) *AuthAPIServer {
	return &AuthAPIServer{
		users:  users,
		tokens: tokens,
		admin:  admin,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// RegisterRoutes mounts the auth routes on api.
func (s *AuthAPIServer) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/auth/login", s.HandleLogin)
	api.GET("/auth/verify", RequireAuth(s.tokens, s.logger), s.HandleVerify)
}

// LoginRequest represents the request for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// VerifyResponse represents the response for GET /api/auth/verify.
type VerifyResponse struct {
	Username string `json:"username"`
}

func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// HandleLogin handles POST /api/auth/login.
func (s *AuthAPIServer) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if errors.Is(err, ErrUserNotFound) && s.isBootstrapAdmin(req) {
		user, err = s.users.Create(req.Username, req.Password)
		switch {
		case err == nil:
			s.logger.Info().Str("username", user.Username).Msg("bootstrap admin created")
		case errors.Is(err, ErrDuplicateUsername):
			// A concurrent login created the admin first
			user, err = s.users.Authenticate(req.Username, req.Password)
		}
	}
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidCredentials):
		s.logger.Warn().Str("username", req.Username).Msg("failed login")
		c.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "Invalid credentials"))
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
		return
	}

	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to sign token")
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// HandleVerify handles GET /api/auth/verify.
func (s *AuthAPIServer) HandleVerify(c *gin.Context) {
	c.JSON(http.StatusOK, VerifyResponse{Username: Username(c)})
}

func (s *AuthAPIServer) isBootstrapAdmin(req LoginRequest) bool {
	return s.admin.Username != "" &&
		req.Username == s.admin.Username &&
		req.Password == s.admin.Password
}
