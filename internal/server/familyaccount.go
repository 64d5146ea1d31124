package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	familydomain "github.com/littleoaks/sprout/internal/familyaccount/domain"
	"github.com/littleoaks/sprout/pkg/db/pagination"
)

func (s *Server) GetFamilyAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	account, err := s.familySvc.Get(c.Request.Context(), familydomain.AccountRequest{
		Pagination: query,
		FamilyID:   id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}
