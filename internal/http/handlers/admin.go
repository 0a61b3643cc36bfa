package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/db"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fundraise"
	loandomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/loan"
	offerdomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/offer"
	verificationdomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/verification"
	"github.com/Ananthadeb1/uiu-lending-backend/internal/version"
	"github.com/gin-gonic/gin"
)

type UserAdminRepository interface {
	ListUsers(ctx context.Context, limit, offset int32) ([]db.User, error)
	UpdateUserRole(ctx context.Context, userID, role string) (*db.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

type AdminLoanService interface {
	List(ctx context.Context, f loandomain.ListFilter) ([]loandomain.Entity, error)
}

type AdminOfferService interface {
	List(ctx context.Context, limit, offset int32) ([]offerdomain.Entity, error)
}

type AdminFundraiseService interface {
	ListCampaigns(ctx context.Context, email string, limit, offset int32) ([]fundraise.Campaign, error)
}

type AdminVerificationService interface {
	ListPending(ctx context.Context, limit, offset int32) ([]verificationdomain.Submission, error)
	Review(ctx context.Context, in verificationdomain.ReviewInput) (*verificationdomain.Submission, error)
}

type AdminHandler struct {
	users        UserAdminRepository
	loans        AdminLoanService
	offers       AdminOfferService
	fundraise    AdminFundraiseService
	verification AdminVerificationService
	dbPinger     Pinger
	redisPinger  Pinger
	startedAt    time.Time
}

func NewAdminHandler(
	users UserAdminRepository,
	loans AdminLoanService,
	offers AdminOfferService,
	fundraiseSvc AdminFundraiseService,
	verificationSvc AdminVerificationService,
	dbPinger, redisPinger Pinger,
) *AdminHandler {
	return &AdminHandler{
		users:        users,
		loans:        loans,
		offers:       offers,
		fundraise:    fundraiseSvc,
		verification: verificationSvc,
		dbPinger:     dbPinger,
		redisPinger:  redisPinger,
		startedAt:    time.Now().UTC(),
	}
}

func pageParams(c *gin.Context) (limit, offset int32) {
	l, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "50")), 10, 32)
	o, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("offset", "0")), 10, 32)
	return int32(l), int32(o)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, offset := pageParams(c)
	users, err := h.users.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err, "")
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{
			"id":                 u.ID,
			"email":              u.Email,
			"name":               u.Name,
			"role":               u.Role,
			"verificationStatus": u.VerificationStatus,
			"createdAt":          u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}
	role := strings.TrimSpace(req.Role)
	if role != db.RoleUser && role != db.RoleDonor && role != db.RoleAdmin {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "field": "role", "message": "must be one of user, donor, admin"})
		return
	}

	targetID := c.Param("userId")
	actingID, _ := actingUser(c)
	if targetID == actingID {
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": "cannot change your own role"})
		return
	}

	u, err := h.users.UpdateUserRole(c.Request.Context(), targetID, role)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"id": u.ID, "role": u.Role}})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	targetID := c.Param("userId")
	actingID, _ := actingUser(c)
	if targetID == actingID {
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": "cannot delete your own account"})
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), targetID); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListLoans is the unscoped listing; an optional status query narrows it.
func (h *AdminHandler) ListLoans(c *gin.Context) {
	limit, offset := pageParams(c)
	f := loandomain.ListFilter{Limit: limit, Offset: offset}
	if st := strings.TrimSpace(c.Query("status")); st != "" {
		f.Status = loandomain.Status(st)
	}
	items, err := h.loans.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func (h *AdminHandler) ListOffers(c *gin.Context) {
	limit, offset := pageParams(c)
	items, err := h.offers.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func (h *AdminHandler) ListCampaigns(c *gin.Context) {
	limit, offset := pageParams(c)
	items, err := h.fundraise.ListCampaigns(c.Request.Context(), "", limit, offset)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func (h *AdminHandler) ListPendingVerifications(c *gin.Context) {
	limit, offset := pageParams(c)
	items, err := h.verification.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func (h *AdminHandler) ReviewVerification(c *gin.Context) {
	var req struct {
		Approve bool   `json:"approve"`
		Note    string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	actingID, _ := actingUser(c)
	reviewed, err := h.verification.Review(c.Request.Context(), verificationdomain.ReviewInput{
		SubmissionID: c.Param("submissionId"),
		ReviewerID:   actingID,
		Approve:      req.Approve,
		Note:         strings.TrimSpace(req.Note),
	})
	if err != nil {
		respondError(c, err, "already reviewed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": reviewed})
}

func (h *AdminHandler) SystemHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if h.dbPinger == nil || h.dbPinger.Ping(ctx) != nil {
		dbStatus = "error"
	}
	redisStatus := "ok"
	if h.redisPinger == nil {
		redisStatus = "disabled"
	} else if h.redisPinger.Ping(ctx) != nil {
		redisStatus = "error"
	}

	status := http.StatusOK
	if dbStatus == "error" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"success": true,
		"data": gin.H{
			"version":       version.Version,
			"database":      dbStatus,
			"redis":         redisStatus,
			"uptimeSeconds": int64(time.Since(h.startedAt).Seconds()),
		},
	})
}
