package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/pixelbin/internal/auth/domain"
)

func (s *Server) Signup(c *gin.Context) {
	var req authdomain.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.Signup(c.Request.Context(), req)
	if err != nil {
		s.recordAuthEvent("signup", "failure")
		AbortWithError(c, err)
		return
	}

	s.recordAuthEvent("signup", "success")
	c.JSON(http.StatusCreated, result)
}

func (s *Server) Login(c *gin.Context) {
	var req authdomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	pair, err := s.authsvc.Login(c.Request.Context(), req)
	if err != nil {
		s.recordAuthEvent("login", "failure")
		AbortWithError(c, err)
		return
	}

	s.recordAuthEvent("login", "success")
	c.JSON(http.StatusOK, pair)
}

func (s *Server) GoogleLogin(c *gin.Context) {
	var req authdomain.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	pair, err := s.authsvc.GoogleLogin(c.Request.Context(), req)
	if err != nil {
		s.recordAuthEvent("google_login", "failure")
		AbortWithError(c, err)
		return
	}

	s.recordAuthEvent("google_login", "success")
	c.JSON(http.StatusOK, pair)
}

type verifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifyToken validates the credential carried in the request body and
// echoes who it belongs to.
func (s *Server) VerifyToken(c *gin.Context) {
	var req verifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.authsvc.Verify(c.Request.Context(), req.Token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_uid": user.ExternalID,
		"username": user.Username,
	})
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (s *Server) RefreshToken(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	pair, err := s.authsvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (s *Server) recordAuthEvent(kind, outcome string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordAuthEvent(kind, outcome)
	}
}
