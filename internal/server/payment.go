package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	paymentdomain "github.com/littleoaks/sprout/internal/payment/domain"
	"github.com/littleoaks/sprout/pkg/money"
)

type recordPaymentRequest struct {
	Amount          money.Amount `json:"amount"`
	Method          string       `json:"method" binding:"required,payment_method"`
	PaymentDate     string       `json:"payment_date"`
	ReferenceNumber string       `json:"reference_number"`
	Notes           string       `json:"notes"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paymentDate, err := parseOptionalDate(req.PaymentDate)
	if err != nil {
		AbortWithError(c, newValidationError("payment_date", "invalid_payment_date", "invalid payment_date"))
		return
	}
	if paymentDate.IsZero() {
		paymentDate = s.clock.Now()
	}

	payment, inv, err := s.paymentSvc.Record(c.Request.Context(), paymentdomain.RecordPaymentRequest{
		InvoiceID:       id,
		Amount:          req.Amount,
		Method:          req.Method,
		PaymentDate:     paymentDate,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment": payment,
		"invoice": inv,
	})
}

func (s *Server) VoidInvoice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	inv, err := s.paymentSvc.Void(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}
