// Package api exposes the JSON HTTP surface of the contas service.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvmaia/contas/internal/auth"
	"github.com/mvmaia/contas/internal/storage"
	"github.com/mvmaia/contas/internal/transcribe"
	"github.com/mvmaia/contas/internal/voice"
)

// Server holds the collaborators the handlers need.
type Server struct {
	store         storage.Store
	tokens        *auth.TokenManager
	authenticator *auth.PasswordAuthenticator
	pipeline      *voice.Pipeline
}

// NewServer creates the API server. pipeline may be nil when voice
// transcription is not configured; the audio endpoint then reports the
// transcription backend as unavailable.
func NewServer(store storage.Store, tokens *auth.TokenManager, pipeline *voice.Pipeline) *Server {
	return &Server{
		store:         store,
		tokens:        tokens,
		authenticator: auth.NewPasswordAuthenticator(store),
		pipeline:      pipeline,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), observeRequests())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "contas API running"})
	})

	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)

	protected := api.Group("/", s.requireAuth())
	protected.PUT("/auth/toggle_cumulative_budget", s.handleToggleCumulativeBudget)

	protected.POST("/categories", s.handleCreateCategory)
	protected.GET("/categories", s.handleListCategories)
	protected.PUT("/categories/:id", s.handleUpdateCategory)
	protected.DELETE("/categories/:id", s.handleDeleteCategory)

	protected.POST("/bills", s.handleCreateBill)
	protected.POST("/bills/audio", s.handleCreateBillFromAudio)
	protected.GET("/bills", s.handleListBills)
	protected.PUT("/bills/:id", s.handleUpdateBill)
	protected.DELETE("/bills/:id", s.handleDeleteBill)

	return r
}

// respondError translates typed errors into HTTP statuses with stable
// messages. Raw backend error text never reaches the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, storage.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, storage.ErrCategoryInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "category has associated bills"})
	case errors.Is(err, auth.ErrEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, voice.ErrIncompleteExtraction):
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not extract a complete bill from the audio"})
	case errors.Is(err, transcribe.ErrTranscription):
		c.JSON(http.StatusBadGateway, gin.H{"error": "transcription failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
	_ = c.Error(err) // attach for the request logger
}
