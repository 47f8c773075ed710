package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"news-aggregator/internal/handler/http/respond"
)

const (
	maxURILength = 2048
	maxBodyBytes = 1 << 20
	maxQueryLen  = 256
)

var (
	errURITooLong   = errors.New("URI too long")
	errQueryTooLong = errors.New("query must be at most 256 characters")
)

// InputValidation rejects oversized URIs and caps request bodies.
func InputValidation() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(c.Request.URL.RequestURI()) > maxURILength {
			respond.Error(c, http.StatusRequestURITooLong, errURITooLong)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		c.Next()
	}
}

// splitList parses a comma separated parameter, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validateQuery(q string) error {
	if len([]rune(q)) > maxQueryLen {
		return errQueryTooLong
	}
	return nil
}
