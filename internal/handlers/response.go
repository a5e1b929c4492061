package handlers

import (
	"errors"
	"net/http"

	"bambite_gateway/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error           string        `json:"error"`
	Kind            apierror.Kind `json:"kind"`
	Retryable       bool          `json:"retryable"`
	RetryAfter      int           `json:"retryAfter,omitempty"`
	Back            string        `json:"back,omitempty"`
	RedirectAfterMs int           `json:"redirectAfterMs,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, Response{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// statusForKind maps a classified backend failure onto the gateway's reply.
func statusForKind(k apierror.Kind) int {
	switch k {
	case apierror.KindValidation:
		return http.StatusBadRequest
	case apierror.KindNotFound:
		return http.StatusNotFound
	case apierror.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case apierror.KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case apierror.KindRateLimited:
		return http.StatusTooManyRequests
	case apierror.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func errorBody(err error) ErrorResponse {
	kind := apierror.KindOf(err)
	body := ErrorResponse{
		Error:     apierror.Message(err),
		Kind:      kind,
		Retryable: apierror.IsRecoverable(kind),
	}
	if retry, ok := apierror.RetryAfter(err); ok {
		body.RetryAfter = retry
	}
	return body
}

func writeAPIError(c *gin.Context, logger logrus.FieldLogger, err error) {
	body := errorBody(err)
	status := statusForKind(body.Kind)
	logger.Warnf("Handler Error: Mapped %s error to HTTP Status %d: %v", body.Kind, status, err)
	c.JSON(status, body)
}

func writeBadRequest(c *gin.Context, logger logrus.FieldLogger, err error) {
	logger.Warnf("Failed to bind request: %v", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: "Invalid request body: " + err.Error(),
		Kind:  apierror.KindValidation,
	})
}

func writeNotFound(c *gin.Context, message, back string, redirectAfterMs int) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:           message,
		Kind:            apierror.KindNotFound,
		Back:            back,
		RedirectAfterMs: redirectAfterMs,
	})
}

func isAPIError(err error) bool {
	var apiErr *apierror.Error
	return errors.As(err, &apiErr)
}
