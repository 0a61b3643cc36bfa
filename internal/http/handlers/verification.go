package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	verificationdomain "github.com/Ananthadeb1/uiu-lending-backend/internal/domain/verification"
	"github.com/gin-gonic/gin"
)

const maxDocumentSizeBytes = 10 << 20

type VerificationService interface {
	Submit(ctx context.Context, in verificationdomain.SubmitInput) (*verificationdomain.Submission, error)
	StatusFor(ctx context.Context, userID string) (verificationdomain.Status, error)
	History(ctx context.Context, userID string) ([]verificationdomain.Submission, error)
}

type VerificationHandler struct {
	service VerificationService
}

func NewVerificationHandler(service VerificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// Submit takes a multipart form: nid_number plus the document files. Only
// the fingerprint of each file is kept.
func (h *VerificationHandler) Submit(c *gin.Context) {
	uid, _ := actingUser(c)

	nidNumber := strings.TrimSpace(c.PostForm("nid_number"))
	if nidNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_nid_number"})
		return
	}

	docs := make([]verificationdomain.Document, 0, 4)
	for _, kind := range []string{"nid_front", "nid_back", "selfie", "income_proof"} {
		file, err := c.FormFile(kind)
		if err != nil {
			continue
		}
		doc, err := fingerprintUpload(kind, file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file", "field": kind})
			return
		}
		docs = append(docs, *doc)
	}

	created, err := h.service.Submit(c.Request.Context(), verificationdomain.SubmitInput{
		UserID:    uid,
		NIDNumber: nidNumber,
		Documents: docs,
	})
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
}

func (h *VerificationHandler) MyStatus(c *gin.Context) {
	uid, _ := actingUser(c)
	status, err := h.service.StatusFor(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"status": status}})
}

func (h *VerificationHandler) MyHistory(c *gin.Context) {
	uid, _ := actingUser(c)
	items, err := h.service.History(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func fingerprintUpload(kind string, file *multipart.FileHeader) (*verificationdomain.Document, error) {
	if file.Size > maxDocumentSizeBytes {
		return nil, io.ErrShortBuffer
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	contents, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return &verificationdomain.Document{
		Kind:        kind,
		Fingerprint: verificationdomain.FingerprintDocument(contents),
		SizeBytes:   file.Size,
	}, nil
}
