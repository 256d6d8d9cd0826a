package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/pkg/apperror"
	"github.com/oksasatya/go-user-admin/pkg/response"
)

// Errors turns the last error attached to the context into the response body
// and logs it. Internal causes are only exposed when exposeDetails is set.
func Errors(logger *logrus.Logger, exposeDetails bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		ae := apperror.From(c.Errors.Last().Err)

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString(CtxRequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     ae.Status(),
			"kind":       ae.Kind.String(),
		})
		details := ae.Details
		if ae.Kind == apperror.KindInternal {
			entry.WithError(ae.Err).Error(ae.Message)
			if exposeDetails && ae.Err != nil {
				details = ae.Err.Error()
			}
		} else {
			entry.WithError(ae).Debug("request rejected")
		}

		response.Error(c, ae.Status(), ae.Message, details)
	}
}

// Recovery converts a panic into a generic 500.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(CtxRequestIDKey),
			"path":       c.Request.URL.Path,
			"panic":      recovered,
		}).Error("panic recovered")
		response.Error(c, http.StatusInternalServerError, "Internal server error", nil)
	})
}
