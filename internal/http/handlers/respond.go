package handlers

import (
	"errors"
	"net/http"

	"github.com/Ananthadeb1/uiu-lending-backend/internal/domain/fault"
	"github.com/gin-gonic/gin"
)

// respondError maps domain error kinds onto HTTP statuses. Conflict carries a
// caller-supplied message because "what conflicted" depends on the operation.
func respondError(c *gin.Context, err error, conflictMessage string) {
	var ve *fault.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "field": ve.Field, "message": ve.Message})
	case errors.Is(err, fault.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, fault.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": conflictMessage})
	case errors.Is(err, fault.ErrState):
		c.JSON(http.StatusConflict, gin.H{"error": "illegal_state"})
	case errors.Is(err, fault.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func actingUser(c *gin.Context) (id, role string) {
	if v, ok := c.Get("user_id"); ok {
		id, _ = v.(string)
	}
	if v, ok := c.Get("user_role"); ok {
		role, _ = v.(string)
	}
	return id, role
}
