package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	feedomain "github.com/littleoaks/sprout/internal/feeschedule/domain"
	"github.com/littleoaks/sprout/pkg/money"
)

type createFeeTierRequest struct {
	Name                string       `json:"name" binding:"required"`
	AgeGroup            string       `json:"age_group" binding:"required"`
	ScheduleType        string       `json:"schedule_type" binding:"required,schedule_type"`
	WeeklyRate          money.Amount `json:"weekly_rate"`
	DailyRate           money.Amount `json:"daily_rate"`
	HourlyRate          money.Amount `json:"hourly_rate"`
	RegistrationFee     money.Amount `json:"registration_fee"`
	LatePickupFeePerMin money.Amount `json:"late_pickup_fee_per_minute"`
	LatePaymentFee      money.Amount `json:"late_payment_fee"`
	SiblingDiscountPct  int          `json:"sibling_discount_pct"`
	EffectiveDate       string       `json:"effective_date" binding:"required"`
}

func (s *Server) CreateFeeTier(c *gin.Context) {
	var req createFeeTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	effective, err := parseOptionalDate(req.EffectiveDate)
	if err != nil || effective.IsZero() {
		AbortWithError(c, newValidationError("effective_date", "invalid_effective_date", "invalid effective_date"))
		return
	}

	tier, err := s.feeSvc.Create(c.Request.Context(), feedomain.CreateTierRequest{
		Name:                req.Name,
		AgeGroup:            req.AgeGroup,
		ScheduleType:        req.ScheduleType,
		WeeklyRate:          req.WeeklyRate,
		DailyRate:           req.DailyRate,
		HourlyRate:          req.HourlyRate,
		RegistrationFee:     req.RegistrationFee,
		LatePickupFeePerMin: req.LatePickupFeePerMin,
		LatePaymentFee:      req.LatePaymentFee,
		SiblingDiscountPct:  req.SiblingDiscountPct,
		EffectiveDate:       effective,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"fee_tier": tier})
}

func (s *Server) ListFeeTiers(c *gin.Context) {
	var query struct {
		AgeGroup     string `form:"age_group"`
		ScheduleType string `form:"schedule_type"`
		ActiveOnly   bool   `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tiers, err := s.feeSvc.List(c.Request.Context(), feedomain.ListTierRequest{
		AgeGroup:     query.AgeGroup,
		ScheduleType: query.ScheduleType,
		ActiveOnly:   query.ActiveOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fee_tiers": tiers})
}

func (s *Server) DeactivateFeeTier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	if err := s.feeSvc.Deactivate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}
