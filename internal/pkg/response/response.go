package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarcrm/internal/domain"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

type mapping struct {
	err    error
	status int
	code   string
}

var taxonomy = []mapping{
	{domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED"},
	{domain.ErrAlreadyAssigned, http.StatusConflict, "ALREADY_ASSIGNED"},
	{domain.ErrMissingFinalizationData, http.StatusUnprocessableEntity, "MISSING_FINALIZATION_DATA"},
	{domain.ErrLeadAlreadyConverted, http.StatusConflict, "LEAD_ALREADY_CONVERTED"},
	{domain.ErrIncompleteDealTerms, http.StatusUnprocessableEntity, "INCOMPLETE_DEAL_TERMS"},
	{domain.ErrInsufficientBalance, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"},
	{domain.ErrBelowMinimumPayout, http.StatusUnprocessableEntity, "BELOW_MINIMUM_PAYOUT"},
	{domain.ErrTaskAlreadyActive, http.StatusConflict, "TASK_ALREADY_ACTIVE"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
}

// FromError writes the envelope for a service error. Store permission failures keep their
// diagnostic context; anything unknown is a 500.
func FromError(c *gin.Context, err error) {
	var denied *domain.PermissionDeniedError
	if errors.As(err, &denied) {
		_ = c.Error(err)
		ErrorWithDetails(c, http.StatusForbidden, "PERMISSION_DENIED", "Store rejected the operation", gin.H{
			"collection": denied.Collection,
			"operation":  denied.Operation,
		})
		return
	}

	for _, m := range taxonomy {
		if errors.Is(err, m.err) {
			Error(c, m.status, m.code, err.Error())
			return
		}
	}

	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
