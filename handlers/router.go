package handlers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"paper-birthdays/config"
	"paper-birthdays/services"
)

// Handler bündelt die Services, die die HTTP-Routen bedienen.
type Handler struct {
	Config        *config.Config
	Logger        *zap.Logger
	Papers        *services.PaperService
	Subscriptions *services.SubscriptionService
	Dispatcher    *services.Dispatcher
	// Snapshots ist nil, wenn kein Bucket konfiguriert ist.
	Snapshots *services.SnapshotExporter
	// BaseContext begrenzt Hintergrundjobs auf die Lebensdauer des Servers; nil heißt Background.
	BaseContext context.Context

	jobs      sync.WaitGroup
	exporting atomic.Bool
}

func (h *Handler) baseContext() context.Context {
	if h.BaseContext != nil {
		return h.BaseContext
	}
	return context.Background()
}

// Wait blockiert, bis alle per HTTP gestarteten Hintergrundjobs beendet sind.
func (h *Handler) Wait() {
	h.jobs.Wait()
}

// NewRouter registriert alle Routen.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(h.Logger))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	setupPaperRoutes(router, h)
	setupSubscriptionRoutes(router, h)
	setupAdminRoutes(router, h)
	return router
}
