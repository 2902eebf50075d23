package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/internal/application"
	"github.com/oksasatya/fintrack-auth/internal/interface/middleware"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
	"github.com/oksasatya/fintrack-auth/pkg/response"
	"github.com/oksasatya/fintrack-auth/pkg/validation"
)

type AuthHandler struct {
	Auth    *application.AuthService
	Reset   *application.PasswordResetService
	Users   *application.UserService
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAuthHandler(auth *application.AuthService, reset *application.PasswordResetService, users *application.UserService,
	logger *logrus.Logger, cookies *helpers.CookieManager) *AuthHandler {
	return &AuthHandler{Auth: auth, Reset: reset, Users: users, Logger: logger, Cookies: cookies}
}

type registerRequest struct {
	FirstName   string `json:"first_name" binding:"required,name"`
	LastName    string `json:"last_name" binding:"required,name"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,phone"`
}

// loginRequest accepts JSON {email, password} or an OAuth2 password form {username, password}.
type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type resetRequest struct {
	Email       string `json:"email" binding:"omitempty,email"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,phone"`
}

type verifyResetRequest struct {
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Auth.Register(c.Request.Context(), application.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserView(u), "registered", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	identity := strings.TrimSpace(req.Email)
	if identity == "" {
		identity = strings.TrimSpace(req.Username)
	}
	if identity == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"email": "is required"})
		return
	}

	ctx := c.Request.Context()
	pair, err := h.Auth.Login(ctx, identity, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if _, err := h.Auth.CreateSession(ctx, pair.UserID, pair.RefreshToken, c.GetHeader("User-Agent"), middleware.ClientIP(c)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, toTokenView(pair, time.Now(), true), "login successful",
		gin.H{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// refreshTokenFrom reads the refresh token from the JSON body, then the cookie.
func refreshTokenFrom(c *gin.Context) string {
	var req refreshRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if tok := strings.TrimSpace(req.RefreshToken); tok != "" {
		return tok
	}
	if tok, err := c.Cookie(helpers.RefreshCookie); err == nil {
		return tok
	}
	return ""
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh := refreshTokenFrom(c)
	if refresh == "" {
		c.Header("WWW-Authenticate", "Bearer")
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, err := h.Auth.RefreshAccessToken(c.Request.Context(), refresh)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	rotated := pair.RefreshToken != refresh
	if rotated {
		h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	} else {
		h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, "", time.Time{})
	}
	response.Success(c, http.StatusOK, toTokenView(pair, time.Now(), rotated), "token refreshed",
		gin.H{"access_expires_at": pair.AccessTokenExpiry})
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), refreshTokenFrom(c)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// RequestPasswordReset POST /api/auth/request-password-reset {email | phone_number}
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Reset.RequestReset(c.Request.Context(), application.ResetRequestInput{Email: req.Email, PhoneNumber: req.PhoneNumber})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true}, "reset code sent", nil)
}

// VerifyResetCode POST /api/auth/verify-reset-code {code, new_password}
func (h *AuthHandler) VerifyResetCode(c *gin.Context) {
	var req verifyResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Reset.VerifyAndReset(c.Request.Context(), req.Code, req.NewPassword); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.Users.GetProfile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserView(u), "profile", nil)
}

// Sessions GET /api/auth/me/sessions
func (h *AuthHandler) Sessions(c *gin.Context) {
	list, err := h.Auth.ListSessions(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	current, _ := c.Cookie(helpers.RefreshCookie)
	views := toSessionViews(list, current)
	response.Success(c, http.StatusOK, views, "sessions", gin.H{"count": len(views)})
}

// RevokeSession DELETE /api/auth/me/sessions/:id
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	if err := h.Auth.RevokeSession(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserIDKey)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true}, "session revoked", nil)
}
