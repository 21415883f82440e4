package endpoints

import (
	"net/http"

	"docgen/internal/api/handler/response"
	"docgen/internal/generate"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func statusForKind(kind generate.Kind) int {
	switch kind {
	case generate.KindInvalidArgument:
		return http.StatusBadRequest
	case generate.KindTemplateNotFound:
		return http.StatusNotFound
	case generate.KindResolution:
		return http.StatusUnprocessableEntity
	case generate.KindRendering:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWithGenerateError answers with the status of the error kind. The
// message of internal failures is not exposed.
func abortWithGenerateError(c *gin.Context, logger zerolog.Logger, err error, msg string) {
	kind := generate.KindOf(err)
	status := statusForKind(kind)

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("kind", kind.String()).Msg(msg)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = msg
	}
	c.JSON(status, response.APIError{Message: message, Data: gin.H{"kind": kind.String()}})
}
