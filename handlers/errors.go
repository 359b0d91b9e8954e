package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paper-birthdays/services"
)

// statusFor bildet die Fehlerklasse auf den HTTP-Status ab.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError schreibt {"error": message}. Interne Details gehen nur ins Log.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	kind := services.KindOf(err)
	if kind == services.KindInternal {
		log.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
	}
	c.JSON(statusFor(kind), gin.H{"error": services.PublicMessage(err)})
}
