package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	affiliatedomain "github.com/redeviva/redeviva/internal/affiliate/domain"
	commissiondomain "github.com/redeviva/redeviva/internal/commission/domain"
	ruledomain "github.com/redeviva/redeviva/internal/commissionrule/domain"
	consortiumdomain "github.com/redeviva/redeviva/internal/consortium/domain"
	ledgerdomain "github.com/redeviva/redeviva/internal/ledger/domain"
	withdrawaldomain "github.com/redeviva/redeviva/internal/withdrawal/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return ErrInvalidRequest
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}

	case isNotFound(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}

	case isValidation(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}

	case isConflict(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}

	case isUnprocessable(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, affiliatedomain.ErrNotFound) ||
		errors.Is(err, consortiumdomain.ErrNotFound) ||
		errors.Is(err, withdrawaldomain.ErrNotFound)
}

func isValidation(err error) bool {
	for _, candidate := range []error{
		ErrInvalidRequest,
		affiliatedomain.ErrInvalidName,
		affiliatedomain.ErrInvalidEmail,
		affiliatedomain.ErrInvalidID,
		affiliatedomain.ErrSponsorUnknown,
		affiliatedomain.ErrSponsorBlocked,
		ruledomain.ErrInvalidGeneration,
		ruledomain.ErrInvalidValue,
		ruledomain.ErrInvalidValueKind,
		commissiondomain.ErrInvalidPurchaseID,
		commissiondomain.ErrInvalidBaseAmount,
		consortiumdomain.ErrInvalidName,
		consortiumdomain.ErrInvalidType,
		consortiumdomain.ErrInvalidID,
		consortiumdomain.ErrSeedRequired,
		withdrawaldomain.ErrInvalidID,
		withdrawaldomain.ErrInvalidAmount,
		withdrawaldomain.ErrInvalidStatus,
		withdrawaldomain.ErrMissingDestination,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

func isConflict(err error) bool {
	for _, candidate := range []error{
		affiliatedomain.ErrEmailTaken,
		affiliatedomain.ErrHasDependents,
		consortiumdomain.ErrGroupFull,
		consortiumdomain.ErrGroupNotJoinable,
		consortiumdomain.ErrGroupNotActive,
		consortiumdomain.ErrAlreadyParticipant,
		consortiumdomain.ErrIllegalTransition,
		consortiumdomain.ErrDrawLocked,
		withdrawaldomain.ErrIllegalTransition,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

func isUnprocessable(err error) bool {
	for _, candidate := range []error{
		ruledomain.ErrUnknownScope,
		ruledomain.ErrNoRule,
		ledgerdomain.ErrInsufficientBalance,
		withdrawaldomain.ErrBelowMinimum,
		consortiumdomain.ErrNoActiveParticipants,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}
