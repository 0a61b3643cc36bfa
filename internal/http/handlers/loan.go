package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/db"
	loandomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/loan"
	"github.com/gin-gonic/gin"
)

type LoanService interface {
	CreateRequest(ctx context.Context, in loandomain.CreateInput) (*loandomain.Entity, error)
	ListOpen(ctx context.Context, limit, offset int32) ([]loandomain.Entity, error)
	List(ctx context.Context, f loandomain.ListFilter) ([]loandomain.Entity, error)
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]loandomain.Entity, error)
	Get(ctx context.Context, loanID string) (*loandomain.Entity, error)
	Transition(ctx context.Context, loanID, actingUserID string, to loandomain.Status) (*loandomain.Entity, error)
}

type UserReader interface {
	GetUserByID(ctx context.Context, userID string) (*db.User, error)
}

type LoanHandler struct {
	loanService LoanService
	users       UserReader
}

func NewLoanHandler(loanService LoanService, users UserReader) *LoanHandler {
	return &LoanHandler{loanService: loanService, users: users}
}

type createLoanRequest struct {
	LoanAmount    int64  `json:"loanAmount" binding:"required"`
	Purpose       string `json:"purpose" binding:"required"`
	RepaymentTime int32  `json:"repaymentTime" binding:"required"`
	Description   string `json:"description"`
}

func (h *LoanHandler) CreateLoanRequest(c *gin.Context) {
	uid, _ := actingUser(c)

	var req createLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	created, err := h.loanService.CreateRequest(c.Request.Context(), loandomain.CreateInput{
		UserID:        user.ID,
		UserName:      user.Name,
		UserEmail:     user.Email,
		AmountMinor:   req.LoanAmount,
		Purpose:       req.Purpose,
		RepaymentTime: req.RepaymentTime,
		Description:   req.Description,
	})
	if err != nil {
		respondError(c, err, "loan could not be created")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
}

// ListLoans serves the bidding view: only pending loans unless an explicit
// status filter is given (admin listing).
func (h *LoanHandler) ListLoans(c *gin.Context) {
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)

	status := strings.TrimSpace(c.Query("status"))
	var (
		items []loandomain.Entity
		err   error
	)
	if status == "" {
		items, err = h.loanService.ListOpen(c.Request.Context(), int32(limit), int32(offset))
	} else {
		items, err = h.loanService.List(c.Request.Context(), loandomain.ListFilter{
			Status: loandomain.Status(status),
			Limit:  int32(limit),
			Offset: int32(offset),
		})
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_loans_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

// ListUserLoans serves both /loans/user/:userId and the /loans/mine alias,
// which carries no path parameter and falls back to the acting user.
func (h *LoanHandler) ListUserLoans(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	uid, role := actingUser(c)
	if userID == "" {
		userID = uid
	}
	if role != db.RoleAdmin && userID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	items, err := h.loanService.ListByUser(c.Request.Context(), userID, int32(limit), int32(offset))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func (h *LoanHandler) GetLoan(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_loan_id"})
		return
	}
	item, err := h.loanService.Get(c.Request.Context(), loanID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": item})
}

type updateLoanRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateLoanStatus handles the borrower's cancel and complete transitions
// (and the funded step after disbursement). The pending -> approved edge is
// owned by the offer accept endpoint and rejected here.
func (h *LoanHandler) UpdateLoanStatus(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if loanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	var req updateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	uid, role := actingUser(c)
	actingID := uid
	if role == db.RoleAdmin {
		// Admin oversight may transition any loan.
		actingID = ""
	}

	updated, err := h.loanService.Transition(c.Request.Context(), loanID, actingID, loandomain.Status(strings.ToLower(strings.TrimSpace(req.Status))))
	if err != nil {
		respondError(c, err, "loan status changed concurrently")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
}
