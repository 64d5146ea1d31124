package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	agingdomain "github.com/littleoaks/sprout/internal/aging/domain"
	familydomain "github.com/littleoaks/sprout/internal/familyaccount/domain"
	feedomain "github.com/littleoaks/sprout/internal/feeschedule/domain"
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	paymentdomain "github.com/littleoaks/sprout/internal/payment/domain"
	settingsdomain "github.com/littleoaks/sprout/internal/settings/domain"
	splitdomain "github.com/littleoaks/sprout/internal/splitbilling/domain"
	"github.com/littleoaks/sprout/pkg/db/pagination"
)

// apiError carries the HTTP mapping for one error condition.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e apiError) Error() string { return e.Code }

var (
	ErrUnauthorized       = apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "authentication required"}
	ErrForbidden          = apiError{Status: http.StatusForbidden, Code: "forbidden", Message: "permission denied"}
	ErrNotFound           = apiError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	ErrServiceUnavailable = apiError{Status: http.StatusServiceUnavailable, Code: "service_unavailable", Message: "service unavailable"}
)

func invalidRequestError() apiError {
	return apiError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "malformed request body or query"}
}

func newValidationError(field, code, message string) apiError {
	return apiError{Status: http.StatusBadRequest, Code: code, Field: field, Message: message}
}

// errorMappings binds each domain sentinel 1:1 to an HTTP status and a
// machine-readable code. Validation errors map to 400, state violations to
// 409, lookups to 404, and version conflicts to 409 with a retry hint.
var errorMappings = []struct {
	err     error
	status  int
	message string
}{
	// Validation.
	{invoicedomain.ErrInvalidFamily, http.StatusBadRequest, "a valid family id is required"},
	{invoicedomain.ErrInvalidPeriod, http.StatusBadRequest, "billing period start must not be after end"},
	{invoicedomain.ErrNoLines, http.StatusBadRequest, "an invoice requires at least one line item"},
	{invoicedomain.ErrNoActiveChildren, http.StatusBadRequest, "the family has no active children to auto-price"},
	{invoicedomain.ErrInvalidDescription, http.StatusBadRequest, "line description is required"},
	{invoicedomain.ErrInvalidItemType, http.StatusBadRequest, "unknown line item type"},
	{invoicedomain.ErrInvalidQuantity, http.StatusBadRequest, "quantity must be positive"},
	{invoicedomain.ErrNegativeUnitPrice, http.StatusBadRequest, "unit price must not be negative"},
	{invoicedomain.ErrNegativeTax, http.StatusBadRequest, "tax amount must not be negative"},
	{invoicedomain.ErrNegativeDiscount, http.StatusBadRequest, "discount amount must not be negative"},
	{invoicedomain.ErrInvalidStatus, http.StatusBadRequest, "unknown status filter"},
	{paymentdomain.ErrNonPositiveAmount, http.StatusBadRequest, "payment amount must be positive"},
	{paymentdomain.ErrInvalidMethod, http.StatusBadRequest, "unknown payment method"},
	{splitdomain.ErrInvalidPct, http.StatusBadRequest, "split percentage must be between 1 and 100"},
	{splitdomain.ErrMissingPayerName, http.StatusBadRequest, "split payer name is required"},
	{feedomain.ErrMissingName, http.StatusBadRequest, "tier name is required"},
	{feedomain.ErrInvalidAgeGroup, http.StatusBadRequest, "unknown age group"},
	{feedomain.ErrInvalidScheduleType, http.StatusBadRequest, "unknown schedule type"},
	{feedomain.ErrNegativeRate, http.StatusBadRequest, "rates must not be negative"},
	{feedomain.ErrInvalidDiscountPct, http.StatusBadRequest, "sibling discount must be between 0 and 100"},
	{feedomain.ErrMissingEffective, http.StatusBadRequest, "effective date is required"},
	{feedomain.ErrNoMatchingTier, http.StatusBadRequest, "no active fee tier matches the child's age group and schedule"},
	{settingsdomain.ErrInvalidDuePolicy, http.StatusBadRequest, "unknown due date policy"},
	{settingsdomain.ErrInvalidDueDays, http.StatusBadRequest, "due days must be between 1 and 365"},
	{settingsdomain.ErrMissingFacilityName, http.StatusBadRequest, "facility name is required"},
	{agingdomain.ErrInvalidAsOf, http.StatusBadRequest, "as_of must be a valid date"},
	{pagination.ErrInvalidToken, http.StatusBadRequest, "unrecognized page token"},

	// State violations.
	{invoicedomain.ErrInvoiceNotEditable, http.StatusConflict, "the invoice can no longer be modified"},
	{paymentdomain.ErrInvoiceVoid, http.StatusConflict, "the invoice is void"},
	{paymentdomain.ErrInvoiceAlreadyPaid, http.StatusConflict, "a paid invoice cannot be voided"},

	// Concurrency; the caller should retry the whole operation.
	{invoicedomain.ErrVersionConflict, http.StatusConflict, "the invoice changed concurrently, retry the operation"},

	// Lookups.
	{invoicedomain.ErrInvoiceNotFound, http.StatusNotFound, "invoice not found"},
	{invoicedomain.ErrLineNotFound, http.StatusNotFound, "line item not found"},
	{invoicedomain.ErrFamilyNotFound, http.StatusNotFound, "family not found"},
	{familydomain.ErrFamilyNotFound, http.StatusNotFound, "family not found"},
	{feedomain.ErrTierNotFound, http.StatusNotFound, "fee tier not found"},
}

// AbortWithError maps an error to its HTTP response and aborts the request.
// Unmapped errors are reported as a generic server error so storage faults
// never leak details.
func AbortWithError(c *gin.Context, err error) {
	var api apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.Status, gin.H{"error": api})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.AbortWithStatusJSON(m.status, gin.H{"error": apiError{
				Status:  m.status,
				Code:    m.err.Error(),
				Message: m.message,
			}})
			return
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.AbortWithStatusJSON(ErrNotFound.Status, gin.H{"error": ErrNotFound})
		return
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": apiError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "an internal error occurred",
	}})
}
