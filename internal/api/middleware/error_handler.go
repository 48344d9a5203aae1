package middleware

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"speech-transcription/internal/api/errors"
)

// ErrorHandler recovers handler panics into a JSON APIError
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		requestID := GetRequestID(c)

		var apiErr *errors.APIError
		switch err := recovered.(type) {
		case *errors.APIError:
			apiErr = err
		case error:
			logger.Error("Internal server error",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			apiErr = errors.NewInternalError("Internal server error")
		default:
			logger.Error("Unknown panic occurred",
				zap.Any("recovered", recovered),
				zap.String("request_id", requestID),
			)
			apiErr = errors.NewInternalError("Internal server error")
		}

		apiErr.RequestID = requestID
		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// HandleError writes err as a JSON error response and aborts the chain
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	apiErr := ToAPIError(c, err)
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}

// ToAPIError classifies err for the client and stamps the request ID.
// Unclassified errors are recorded on the context and reported as internal.
func ToAPIError(c *gin.Context, err error) *errors.APIError {
	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			apiErr = errors.NewPayloadTooLargeError("request body exceeds the maximum upload size")
		} else {
			_ = c.Error(err)
			apiErr = errors.NewInternalError("Internal server error")
		}
	}

	apiErr.RequestID = GetRequestID(c)
	return apiErr
}
