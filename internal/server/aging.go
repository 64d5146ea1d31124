package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	agingdomain "github.com/littleoaks/sprout/internal/aging/domain"
)

func (s *Server) GetAgingReport(c *gin.Context) {
	var asOf time.Time
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := parseOptionalDate(raw)
		if err != nil {
			AbortWithError(c, agingdomain.ErrInvalidAsOf)
			return
		}
		asOf = parsed
	}

	report, err := s.agingSvc.ComputeAging(c.Request.Context(), asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
