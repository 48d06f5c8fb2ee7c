package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mvmaia/contas/internal/models"
	"github.com/mvmaia/contas/internal/storage"
)

type createCategoryRequest struct {
	Name         string           `json:"name"`
	BudgetAmount *decimal.Decimal `json:"budget_amount"`
}

type updateCategoryRequest struct {
	Name         *string          `json:"name"`
	BudgetAmount *decimal.Decimal `json:"budget_amount"`
}

// pathID parses the :id path parameter. A non-numeric id cannot match any
// row, so it reports not found rather than bad request.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return 0, false
	}
	return id, true
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category name is required"})
		return
	}

	category := &models.Category{
		UserID:       currentUserID(c),
		Name:         req.Name,
		BudgetAmount: req.BudgetAmount,
	}
	if err := s.store.CreateCategory(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}

	slog.Info("category created", "user_id", category.UserID, "category_id", category.ID)
	c.JSON(http.StatusCreated, gin.H{"id": category.ID})
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := s.store.ListCategories(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (s *Server) handleUpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == nil && req.BudgetAmount == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	err := s.store.UpdateCategory(c.Request.Context(), currentUserID(c), id, storage.CategoryUpdate{
		Name:         req.Name,
		BudgetAmount: req.BudgetAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category updated"})
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.store.DeleteCategory(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}
