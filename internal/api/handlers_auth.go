package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
		return
	}

	user, err := s.authenticator.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	slog.Info("user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "message": "user registered"})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := s.authenticator.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":             token,
		"cumulative_budget": user.CumulativeBudget,
	})
}

func (s *Server) handleToggleCumulativeBudget(c *gin.Context) {
	userID := currentUserID(c)

	enabled, err := s.store.ToggleCumulativeBudget(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	slog.Info("cumulative budget toggled", "user_id", userID, "enabled", enabled)
	c.JSON(http.StatusCreated, gin.H{
		"message":           "cumulative budget updated",
		"cumulative_budget": enabled,
	})
}
