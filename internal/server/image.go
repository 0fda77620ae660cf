package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	imagedomain "github.com/smallbiznis/pixelbin/internal/image/domain"
	"go.uber.org/zap"
)

const maxUploadBytes = 32 << 20

// uploadRateLimit consumes one shared-budget token per authenticated
// uploader. Without redis the limiter admits everything.
func (s *Server) uploadRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		result, err := s.uploadLimiter.Allow(c.Request.Context(), "upload:"+user.ExternalID, 1, 10)
		if err != nil {
			s.log.Warn("upload rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			if s.obsMetrics != nil {
				s.obsMetrics.RecordRateLimitDecision("upload", "denied")
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func (s *Server) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}
	if len(data) > maxUploadBytes {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = fileHeader.Filename
	}

	result, err := s.imagesvc.Upload(c.Request.Context(), imagedomain.UploadRequest{
		OwnerID:          user.ID,
		Title:            title,
		OriginalFileName: fileHeader.Filename,
		ContentType:      fileHeader.Header.Get("Content-Type"),
		Labels:           splitCSV(c.PostForm("labels")),
		Data:             data,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetOriginal is public: it redirects to a short-lived signed URL instead of
// proxying the bytes.
func (s *Server) GetOriginal(c *gin.Context) {
	url, err := s.imagesvc.OriginalURL(c.Request.Context(), c.Param("uid"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (s *Server) GetThumbnail(c *gin.Context) {
	data, err := s.imagesvc.Thumbnail(c.Request.Context(), c.Param("uid"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) GetImageInfo(c *gin.Context) {
	info, err := s.imagesvc.Info(c.Request.Context(), c.Param("uid"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
