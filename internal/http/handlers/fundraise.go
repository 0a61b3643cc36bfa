package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	fundraisedomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fundraise"
	"github.com/gin-gonic/gin"
)

type FundraiseService interface {
	CreateCampaign(ctx context.Context, in fundraisedomain.CreateCampaignInput) (*fundraisedomain.Campaign, error)
	ListCampaigns(ctx context.Context, email string, limit, offset int32) ([]fundraisedomain.Campaign, error)
	Donate(ctx context.Context, in fundraisedomain.DonateInput) (*fundraisedomain.Donation, error)
}

type FundraiseHandler struct {
	service FundraiseService
	users   UserReader
}

func NewFundraiseHandler(service FundraiseService, users UserReader) *FundraiseHandler {
	return &FundraiseHandler{service: service, users: users}
}

type createCampaignRequest struct {
	FullName     string `json:"fullName"`
	Title        string `json:"title" binding:"required"`
	DonationType string `json:"donationType" binding:"required"`
	GoalAmount   int64  `json:"goalAmount" binding:"required"`
	Description  string `json:"description"`
}

func (h *FundraiseHandler) CreateCampaign(c *gin.Context) {
	uid, _ := actingUser(c)

	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	owner, err := h.users.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName = owner.Name
	}

	created, err := h.service.CreateCampaign(c.Request.Context(), fundraisedomain.CreateCampaignInput{
		OwnerID:      owner.ID,
		FullName:     fullName,
		Email:        owner.Email,
		Title:        req.Title,
		DonationType: req.DonationType,
		GoalMinor:    req.GoalAmount,
		Description:  req.Description,
	})
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
}

func (h *FundraiseHandler) ListCampaigns(c *gin.Context) {
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	offset, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	items, err := h.service.ListCampaigns(c.Request.Context(), strings.TrimSpace(c.Query("email")), int32(limit), int32(offset))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_campaigns_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

type donateRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// Donate records a simulated donation against a campaign.
func (h *FundraiseHandler) Donate(c *gin.Context) {
	campaignID := strings.TrimSpace(c.Param("campaignId"))
	uid, _ := actingUser(c)

	var req donateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	donor, err := h.users.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	donation, err := h.service.Donate(c.Request.Context(), fundraisedomain.DonateInput{
		CampaignID:  campaignID,
		DonorID:     donor.ID,
		DonorName:   donor.Name,
		AmountMinor: req.Amount,
	})
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": donation})
}
