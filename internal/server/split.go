package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	splitdomain "github.com/littleoaks/sprout/internal/splitbilling/domain"
)

type setSplitRequest struct {
	Pct          *int   `json:"pct"`
	PayerName    string `json:"payer_name"`
	PayerAddress string `json:"payer_address"`
}

func (s *Server) SetSplit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req setSplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inv, err := s.splitSvc.SetSplit(c.Request.Context(), splitdomain.SetSplitRequest{
		InvoiceID:    id,
		Pct:          req.Pct,
		PayerName:    req.PayerName,
		PayerAddress: req.PayerAddress,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

func (s *Server) GetStatements(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	if c.Query("format") == "html" {
		html, err := s.splitSvc.RenderHTML(c.Request.Context(), id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}

	resp, err := s.splitSvc.Statements(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
