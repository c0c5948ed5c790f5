// Package httpapi exposes the session issuer over a REST surface. The
// transport owns credential extraction and status-code mapping; all token
// semantics live in the services layer.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ndegtyarev/eventauth/internal/common"
	"github.com/ndegtyarev/eventauth/internal/logging"
	"github.com/ndegtyarev/eventauth/internal/server/models"
	"github.com/ndegtyarev/eventauth/internal/server/services"
)

// SessionManager is the slice of the session service used by the transport.
type SessionManager interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	VerifyAccess(ctx context.Context, token string) (*services.Identity, error)
	Refresh(ctx context.Context, opaque string) (*services.TokenPair, error)
	Logout(ctx context.Context, opaque string) (bool, error)
	LogoutAll(ctx context.Context, userID string) (int64, error)
}

// AccountManager is the slice of the account service used by the transport.
type AccountManager interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type Handler struct {
	sessions SessionManager
	accounts AccountManager
	logger   logging.Logger
}

func NewHandler(sessions SessionManager, accounts AccountManager, logger logging.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		accounts: accounts,
		logger:   logger.With("module", "httpapi"),
	}
}

// Router builds the gin engine with all auth routes mounted under /api/v1/auth.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1/auth")
	v1.POST("/signup", h.signup)
	v1.POST("/login", h.login)
	v1.POST("/refresh", h.refresh)
	v1.POST("/logout", h.logout)
	v1.GET("/health", h.health)

	authed := v1.Group("")
	authed.Use(h.requireUser)
	authed.POST("/logout-all", h.logoutAll)
	authed.GET("/me", h.me)

	return router
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         userResponse `json:"user"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsActive: u.IsActive,
		IsAdmin:  u.IsAdmin,
	}
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already registered"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.authError(c, err)
		return
	}

	h.writeTokenResponse(c, pair)
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.sessions.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.authError(c, err)
		return
	}

	h.writeTokenResponse(c, pair)
}

func (h *Handler) logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	revoked, err := h.sessions.Logout(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked": revoked})
}

func (h *Handler) logoutAll(c *gin.Context) {
	user := currentUser(c)

	count, err := h.sessions.LogoutAll(c.Request.Context(), user.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked_sessions": count})
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, newUserResponse(currentUser(c)))
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// writeTokenResponse resolves the identity behind the freshly minted pair and
// renders the shared login/refresh response shape.
func (h *Handler) writeTokenResponse(c *gin.Context, pair *services.TokenPair) {
	identity, err := h.sessions.VerifyAccess(c.Request.Context(), pair.AccessToken)
	if err != nil {
		h.serverError(c, err)
		return
	}
	user, err := h.accounts.GetByID(c.Request.Context(), identity.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(pair.AccessTokenTTL / time.Second),
		User:         newUserResponse(user),
	})
}

// authError maps the token-core taxonomy onto transport codes: every
// authentication failure is a 401 distinguished only by message, transient
// storage failures are 503 (retryable), anything else is a 500.
func (h *Handler) authError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenInvalid),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrRefreshTokenRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		h.serverError(c, err)
	}
}

func (h *Handler) serverError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrStorageUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}
	h.logger.Error(c.Request.Context(), "request failed", "error", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
