package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxClientIPKey holds the resolved client address.
const CtxClientIPKey = "real_ip"

// DefaultIPHeaders are consulted in order when RealIP gets no list.
var DefaultIPHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// RealIP stores the client address under CtxClientIPKey. The first header
// holding a parseable IP wins; for comma lists only the left-most entry counts.
// Without one it falls back to gin's ClientIP.
func RealIP(headers ...string) gin.HandlerFunc {
	if len(headers) == 0 {
		headers = DefaultIPHeaders
	}
	return func(c *gin.Context) {
		c.Set(CtxClientIPKey, resolveIP(c.Request.Header, headers, c.ClientIP()))
		c.Next()
	}
}

func resolveIP(h http.Header, headers []string, fallback string) string {
	for _, name := range headers {
		v := h.Get(name)
		if i := strings.IndexByte(v, ','); i >= 0 {
			v = v[:i]
		}
		if ip := net.ParseIP(strings.TrimSpace(v)); ip != nil {
			return ip.String()
		}
	}
	return fallback
}

// ClientIP returns what RealIP resolved, or gin's guess when RealIP did not run.
func ClientIP(c *gin.Context) string {
	if ip := c.GetString(CtxClientIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
