package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"activeclub/gateway/internal/otp"
	"activeclub/gateway/internal/session"
)

type otpRequestRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type otpRequestResponse struct {
	Success   bool   `json:"success"`
	Phone     string `json:"phone"`
	ExpiresIn int64  `json:"expiresIn"`
	Message   string `json:"message,omitempty"`
}

func (h HandlerSet) RequestOTP(c *gin.Context) {
	var req otpRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.RequestOTP(c.Request.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, otp.ErrRequestFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "otp_request_failed", "message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, otpRequestResponse{
		Success:   result.Success,
		Phone:     result.Phone,
		ExpiresIn: result.ExpiresIn,
		Message:   result.Message,
	})
}

type otpVerifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type otpVerifyResponse struct {
	Authenticated bool   `json:"authenticated"`
	Phone         string `json:"phone"`
	ExpiresIn     int64  `json:"expiresIn"`
}

func (h HandlerSet) VerifyOTP(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.VerifyOTP(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		if errors.Is(err, otp.ErrVerificationFailed) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "otp_verification_failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.lifecycle.MarkAuthenticated()

	c.JSON(http.StatusOK, otpVerifyResponse{
		Authenticated: true,
		Phone:         otp.FormatPhoneNumber(req.Phone),
		ExpiresIn:     result.ExpiresIn,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.lifecycle.Invalidate(c.Request.Context(), "logout")

	c.Status(http.StatusNoContent)
}

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	Phone         string     `json:"phone,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

func (h HandlerSet) SessionInfo(c *gin.Context) {
	sess, err := h.sessions.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if sess == nil {
		c.JSON(http.StatusOK, sessionResponse{Authenticated: false})
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		Authenticated: true,
		Phone:         sess.PhoneNumber,
		ExpiresAt:     &sess.ExpiresAt,
	})
}

// RevalidateSession is the app-foreground hook: the UI calls it when the app
// returns to the foreground so an expiry is caught immediately.
func (h HandlerSet) RevalidateSession(c *gin.Context) {
	h.lifecycle.Foreground(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"authenticated": h.lifecycle.State() == session.StateAuthenticated,
	})
}
