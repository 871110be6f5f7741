package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// NoStore marks responses as uncacheable; used on everything behind auth.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	return w.body.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

// Revalidate lets clients cache GET responses but makes them check back every
// time. Successful bodies carry an ETag and a matching If-None-Match gets 304.
func Revalidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		orig := c.Writer
		buf := &bufferedWriter{ResponseWriter: orig}
		c.Writer = buf
		c.Next()
		c.Writer = orig

		if buf.body.Len() == 0 {
			return
		}

		orig.Header().Set("Cache-Control", "no-cache")
		if orig.Status() == http.StatusOK {
			sum := sha256.Sum256(buf.body.Bytes())
			etag := `"` + hex.EncodeToString(sum[:16]) + `"`
			orig.Header().Set("ETag", etag)
			if etagMatches(c.GetHeader("If-None-Match"), etag) {
				orig.WriteHeader(http.StatusNotModified)
				orig.WriteHeaderNow()
				return
			}
		}
		_, _ = orig.Write(buf.body.Bytes())
	}
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
