package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	imagedomain "github.com/smallbiznis/pixelbin/internal/image/domain"
)

func (s *Server) UserInfo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	info, err := s.authsvc.UserInfo(c.Request.Context(), user, splitCSV(c.Query("keys")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) UserImages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	page := 1
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, imagedomain.ErrInvalidQuery)
			return
		}
		page = parsed
	}

	sortBy := c.DefaultQuery("sort_by", "created_at")
	sortDir := c.DefaultQuery("sort_order", "desc")

	ids, err := s.imagesvc.ListUserImages(c.Request.Context(), imagedomain.ListQuery{
		OwnerID: user.ID,
		Page:    page,
		SortBy:  sortBy,
		SortDir: sortDir,
		Labels:  splitCSV(c.Query("labels")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":       page,
		"page_size":  imagedomain.PageSize,
		"image_uids": ids,
	})
}
