package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	accountdomain "github.com/smallbiznis/folio/internal/account/domain"
	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	idemdomain "github.com/smallbiznis/folio/internal/idempotency/domain"
	inventorydomain "github.com/smallbiznis/folio/internal/inventory/domain"
	itemdomain "github.com/smallbiznis/folio/internal/item/domain"
	ledgerdomain "github.com/smallbiznis/folio/internal/ledger/domain"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
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
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(err, code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isPolicyError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "policy_violation",
			Message: policyMessage(err),
		}
	default:
		// Includes ledger balance failures: if a draft produced unbalanced
		// posting lines something upstream is broken, not the client.
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, documentdomain.ErrNoLines),
		errors.Is(err, documentdomain.ErrDiscountExceedsLine),
		errors.Is(err, documentdomain.ErrNegativeSubTotal),
		errors.Is(err, documentdomain.ErrVATDisabled),
		errors.Is(err, documentdomain.ErrIncompatibleUnit),
		errors.Is(err, documentdomain.ErrInvalidQuantity),
		errors.Is(err, documentdomain.ErrInvalidUnitPrice),
		errors.Is(err, documentdomain.ErrInvalidDiscount),
		errors.Is(err, documentdomain.ErrMissingAccount),
		errors.Is(err, documentdomain.ErrInvalidType),
		errors.Is(err, documentdomain.ErrCurrencyMismatch),
		errors.Is(err, documentdomain.ErrJournalUnbalanced),
		errors.Is(err, documentdomain.ErrAllocationExceeds),
		errors.Is(err, documentdomain.ErrReceiveExceeds),
		errors.Is(err, ledgerdomain.ErrVATAccountNotConfigured),
		errors.Is(err, itemdomain.ErrItemInactive),
		errors.Is(err, taxdomain.ErrNotFound),
		errors.Is(err, idemdomain.ErrInvalidKey),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, documentdomain.ErrInvalidTransition),
		errors.Is(err, documentdomain.ErrNotDraft),
		errors.Is(err, documentdomain.ErrNotPosted),
		errors.Is(err, documentdomain.ErrNotPurchaseOrder),
		errors.Is(err, documentdomain.ErrOpenAllocations),
		errors.Is(err, documentdomain.ErrAllocationExists),
		errors.Is(err, ledgerdomain.ErrAlreadyPosted),
		errors.Is(err, ledgerdomain.ErrAlreadyReversed),
		errors.Is(err, idemdomain.ErrPayloadMismatch):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, documentdomain.ErrNotFound),
		errors.Is(err, documentdomain.ErrAllocationMissing),
		errors.Is(err, orgdomain.ErrNotFound),
		errors.Is(err, accountdomain.ErrNotFound),
		errors.Is(err, itemdomain.ErrItemNotFound),
		errors.Is(err, itemdomain.ErrUnitNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// isPolicyError covers org-level rules an admin can change: lock dates,
// negative-stock blocks, inactive accounts, and missing control accounts.
func isPolicyError(err error) bool {
	switch {
	case errors.Is(err, documentdomain.ErrLockDate),
		errors.Is(err, inventorydomain.ErrNegativeStock),
		errors.Is(err, accountdomain.ErrInactive),
		errors.Is(err, documentdomain.ErrControlAccountNotConfigured):
		return true
	default:
		return false
	}
}

func policyMessage(err error) string {
	var policyErr *inventorydomain.PolicyError
	if errors.As(err, &policyErr) {
		return policyErr.Error()
	}
	var inactiveErr *accountdomain.InactiveError
	if errors.As(err, &inactiveErr) {
		return inactiveErr.Error()
	}
	return err.Error()
}

func conflictMessage(err error) string {
	var transitionErr *documentdomain.TransitionError
	if errors.As(err, &transitionErr) {
		return transitionErr.Error()
	}
	return "conflict"
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	var lineErr *documentdomain.LineError
	if errors.As(err, &lineErr) {
		return lineErr.Err.Error()
	}
	return err.Error()
}

func validationErrorField(err error, code string) string {
	var lineErr *documentdomain.LineError
	if errors.As(err, &lineErr) {
		return "lines"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if code == "invalid_request" {
		return "request"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
