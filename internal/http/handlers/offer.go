package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/db"
	offerdomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/offer"
	"github.com/gin-gonic/gin"
)

const conflictLoanLocked = "this loan already has an accepted offer"

type OfferService interface {
	Submit(ctx context.Context, in offerdomain.CreateInput) (*offerdomain.Entity, error)
	Accept(ctx context.Context, offerID, actingUserID string) (*offerdomain.Entity, error)
	Reject(ctx context.Context, offerID, actingUserID string) (*offerdomain.Entity, error)
	ListByLoan(ctx context.Context, loanID string) ([]offerdomain.Entity, error)
	ListByDonor(ctx context.Context, donorID string, limit, offset int32) ([]offerdomain.Entity, error)
	Comparison(ctx context.Context, borrowerID string) ([]offerdomain.LoanGroup, error)
}

type OfferHandler struct {
	offerService OfferService
	users        UserReader
}

func NewOfferHandler(offerService OfferService, users UserReader) *OfferHandler {
	return &OfferHandler{offerService: offerService, users: users}
}

type submitOfferRequest struct {
	LoanID        string  `json:"loanId" binding:"required"`
	OfferedAmount int64   `json:"offeredAmount" binding:"required"`
	InterestRate  float64 `json:"interestRate" binding:"required"`
	Message       string  `json:"message"`
}

func (h *OfferHandler) SubmitOffer(c *gin.Context) {
	uid, _ := actingUser(c)

	var req submitOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	donor, err := h.users.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	created, err := h.offerService.Submit(c.Request.Context(), offerdomain.CreateInput{
		LoanID:       req.LoanID,
		DonorID:      donor.ID,
		DonorName:    donor.Name,
		DonorEmail:   donor.Email,
		AmountMinor:  req.OfferedAmount,
		InterestRate: req.InterestRate,
		Message:      req.Message,
	})
	if err != nil {
		respondError(c, err, "loan is no longer open for bidding")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
}

// AcceptOffer resolves the loan to one winning offer. Losing a concurrent
// race returns 409 with a message the comparison view shows verbatim before
// re-fetching.
func (h *OfferHandler) AcceptOffer(c *gin.Context) {
	offerID := strings.TrimSpace(c.Param("offerId"))
	if offerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_offer_id"})
		return
	}
	uid, role := actingUser(c)
	actingID := uid
	if role == db.RoleAdmin {
		actingID = ""
	}

	accepted, err := h.offerService.Accept(c.Request.Context(), offerID, actingID)
	if err != nil {
		respondError(c, err, conflictLoanLocked)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": accepted})
}

func (h *OfferHandler) RejectOffer(c *gin.Context) {
	offerID := strings.TrimSpace(c.Param("offerId"))
	if offerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_offer_id"})
		return
	}
	uid, role := actingUser(c)
	actingID := uid
	if role == db.RoleAdmin {
		actingID = ""
	}

	rejected, err := h.offerService.Reject(c.Request.Context(), offerID, actingID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rejected})
}

func (h *OfferHandler) ListLoanOffers(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	items, err := h.offerService.ListByLoan(c.Request.Context(), loanID)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func (h *OfferHandler) ListDonorOffers(c *gin.Context) {
	donorID := strings.TrimSpace(c.Param("donorId"))
	uid, role := actingUser(c)
	if role != db.RoleAdmin && donorID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	items, err := h.offerService.ListByDonor(c.Request.Context(), donorID, int32(limit), int32(offset))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

// MyOffers serves the comparison view: the acting borrower's incoming offers
// grouped per loan, with the derived lock flag on each group.
func (h *OfferHandler) MyOffers(c *gin.Context) {
	uid, _ := actingUser(c)
	groups, err := h.offerService.Comparison(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": groups})
}
