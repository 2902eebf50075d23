package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/internal/domain/apperr"
	"github.com/oksasatya/fintrack-auth/internal/interface/middleware"
	"github.com/oksasatya/fintrack-auth/pkg/response"
)

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindBadRequest, apperr.KindAlreadyRevoked:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders an application error. Internal causes are logged, never
// sent to the client.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	if status >= http.StatusInternalServerError && logger != nil {
		middleware.LogEntry(c, logger).WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	response.Error[any](c, status, apperr.MessageOf(err), gin.H{"code": kind.String()})
}
