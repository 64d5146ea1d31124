package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	"github.com/littleoaks/sprout/pkg/db/pagination"
	"github.com/littleoaks/sprout/pkg/money"
)

type lineItemRequest struct {
	Description string       `json:"description" binding:"required"`
	ItemType    string       `json:"item_type" binding:"required,item_type"`
	Quantity    int          `json:"quantity" binding:"required,gt=0"`
	UnitPrice   money.Amount `json:"unit_price"`
}

type createInvoiceRequest struct {
	FamilyID       string            `json:"family_id" binding:"required"`
	DueDate        string            `json:"due_date"`
	PeriodStart    string            `json:"period_start" binding:"required"`
	PeriodEnd      string            `json:"period_end" binding:"required"`
	TaxAmount      money.Amount      `json:"tax_amount"`
	DiscountAmount money.Amount      `json:"discount_amount"`
	Notes          string            `json:"notes"`
	AutoPrice      bool              `json:"auto_price"`
	Lines          []lineItemRequest `json:"line_items"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	familyID, ok := parseID(req.FamilyID)
	if !ok {
		AbortWithError(c, newValidationError("family_id", "invalid_family_id", "invalid family id"))
		return
	}

	periodStart, err := parseOptionalDate(req.PeriodStart)
	if err != nil || periodStart.IsZero() {
		AbortWithError(c, newValidationError("period_start", "invalid_period_start", "invalid period_start"))
		return
	}
	periodEnd, err := parseOptionalDate(req.PeriodEnd)
	if err != nil || periodEnd.IsZero() {
		AbortWithError(c, newValidationError("period_end", "invalid_period_end", "invalid period_end"))
		return
	}

	create := invoicedomain.CreateInvoiceRequest{
		FamilyID:       familyID,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		Notes:          req.Notes,
		AutoPrice:      req.AutoPrice,
	}
	if req.DueDate != "" {
		due, err := parseOptionalDate(req.DueDate)
		if err != nil {
			AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
			return
		}
		create.DueDate = &due
	}
	for _, line := range req.Lines {
		create.Lines = append(create.Lines, invoicedomain.LineItemDraft{
			Description: line.Description,
			ItemType:    line.ItemType,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	inv, err := s.invoiceSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invoice": inv})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		FamilyID string `form:"family_id"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.ListInvoiceRequest{
		Pagination: query.Pagination,
		Status:     invoicedomain.Status(query.Status),
	}
	if query.FamilyID != "" {
		familyID, ok := parseID(query.FamilyID)
		if !ok {
			AbortWithError(c, newValidationError("family_id", "invalid_family_id", "invalid family id"))
			return
		}
		req.FamilyID = familyID
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetInvoice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	inv, lines, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	payments, err := s.paymentSvc.ListByInvoice(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice": invoicedomain.InvoiceView{
			Invoice:       inv,
			DisplayStatus: inv.DisplayStatus(s.clock.Now()),
		},
		"line_items": lines,
		"payments":   payments,
	})
}

func (s *Server) AddLineItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req lineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inv, err := s.invoiceSvc.AddLine(c.Request.Context(), id, invoicedomain.LineItemDraft{
		Description: req.Description,
		ItemType:    req.ItemType,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

func (s *Server) UpdateLineItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}
	lineID, ok := pathID(c, "lineId")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req lineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inv, err := s.invoiceSvc.UpdateLine(c.Request.Context(), id, lineID, invoicedomain.LineItemDraft{
		Description: req.Description,
		ItemType:    req.ItemType,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

func (s *Server) DeleteLineItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}
	lineID, ok := pathID(c, "lineId")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	inv, err := s.invoiceSvc.DeleteLine(c.Request.Context(), id, lineID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}
