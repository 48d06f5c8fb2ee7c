package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvmaia/contas/internal/models"
	"github.com/mvmaia/contas/internal/storage"
)

type createBillRequest struct {
	CategoryName    string           `json:"category_name"`
	Description     string           `json:"description"`
	Amount          *decimal.Decimal `json:"amount"`
	TransactionDate *models.Date     `json:"transaction_date"`
}

type updateBillRequest struct {
	CategoryID      *int64           `json:"category_id"`
	Description     *string          `json:"description"`
	Amount          *decimal.Decimal `json:"amount"`
	TransactionDate *models.Date     `json:"transaction_date"`
}

func (s *Server) handleCreateBill(c *gin.Context) {
	var req createBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.CategoryName == "" || req.Description == "" || req.Amount == nil || req.TransactionDate == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category_name, description, amount and transaction_date are required"})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be greater than zero"})
		return
	}

	bill := &models.Bill{
		UserID:          currentUserID(c),
		Description:     req.Description,
		Amount:          *req.Amount,
		TransactionDate: *req.TransactionDate,
	}
	if err := s.store.CreateBill(c.Request.Context(), req.CategoryName, bill); err != nil {
		respondError(c, err)
		return
	}

	slog.Info("bill created", "user_id", bill.UserID, "bill_id", bill.ID, "category_id", bill.CategoryID)
	c.JSON(http.StatusCreated, bill)
}

func (s *Server) handleCreateBillFromAudio(c *gin.Context) {
	if s.pipeline == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "transcription backend not configured"})
		return
	}

	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}

	// The upload is staged to a request-scoped temp file so the pipeline
	// works with a path; it is removed on every exit path.
	uploadPath := filepath.Join(os.TempDir(), "contas-upload-"+uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, uploadPath); err != nil {
		respondError(c, err)
		return
	}
	defer os.Remove(uploadPath)

	bill, err := s.pipeline.ProcessAudio(c.Request.Context(), currentUserID(c), uploadPath)
	if err != nil {
		respondError(c, err)
		return
	}

	slog.Info("bill created from audio", "user_id", bill.UserID, "bill_id", bill.ID)
	c.JSON(http.StatusCreated, bill)
}

func (s *Server) handleListBills(c *gin.Context) {
	filter := storage.BillFilter{}
	if v := c.Query("start_date"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, want YYYY-MM-DD"})
			return
		}
		filter.StartDate = &d
	}
	if v := c.Query("final_date"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid final_date, want YYYY-MM-DD"})
			return
		}
		filter.FinalDate = &d
	}

	bills, err := s.store.ListBills(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

func (s *Server) handleUpdateBill(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.CategoryID == nil && req.Description == nil && req.Amount == nil && req.TransactionDate == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be greater than zero"})
		return
	}

	err := s.store.UpdateBill(c.Request.Context(), currentUserID(c), id, storage.BillUpdate{
		CategoryID:      req.CategoryID,
		Description:     req.Description,
		Amount:          req.Amount,
		TransactionDate: req.TransactionDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bill updated"})
}

func (s *Server) handleDeleteBill(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.store.DeleteBill(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bill deleted"})
}
