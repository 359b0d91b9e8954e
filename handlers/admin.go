package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paper-birthdays/services"
)

func setupAdminRoutes(router *gin.Engine, h *Handler) {
	rg := router.Group("/admin")
	rg.Use(apiKeyAuthMiddleware(h.Config))

	// POST /admin/dispatch?date=MM-DD&year=YYYY&dry_run=true, Standard ist heute.
	rg.POST("/dispatch", func(c *gin.Context) {
		now := h.Papers.LocalNow()
		monthDay := services.TokenFor(now).MonthDay()
		if raw := c.Query("date"); raw != "" {
			if _, err := services.ParseMonthDay(raw); err != nil {
				respondError(c, h.Logger, err)
				return
			}
			monthDay = raw
		}
		year := now.Year()
		if raw := c.Query("year"); raw != "" {
			y, err := strconv.Atoi(raw)
			if err != nil {
				respondError(c, h.Logger, services.ErrInvalidFilter)
				return
			}
			year = y
		}
		d := *h.Dispatcher
		if c.Query("dry_run") == "true" {
			d.DryRun = true
		}
		res, err := d.Run(c.Request.Context(), monthDay, year)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	// POST /admin/snapshot?date=MM-DD exportiert einen Tag, ohne date läuft der volle Export asynchron.
	rg.POST("/snapshot", func(c *gin.Context) {
		if h.Snapshots == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot export is not configured"})
			return
		}
		if raw := c.Query("date"); raw != "" {
			n, err := h.Snapshots.ExportDay(c.Request.Context(), raw)
			if err != nil {
				if services.KindOf(err) == services.KindValidation {
					respondError(c, h.Logger, err)
					return
				}
				h.Logger.Error("Snapshot day export failed", zap.String("month_day", raw), zap.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": "snapshot upload failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"date": raw, "total_papers": n})
			return
		}
		if !h.exporting.CompareAndSwap(false, true) {
			c.JSON(http.StatusConflict, gin.H{"error": "snapshot export already running"})
			return
		}
		h.jobs.Add(1)
		go func() {
			defer h.jobs.Done()
			defer h.exporting.Store(false)
			res, err := h.Snapshots.ExportAll(h.baseContext())
			if err != nil {
				h.Logger.Error("Async snapshot export failed", zap.Error(err))
				return
			}
			h.Logger.Info("Async snapshot export completed", zap.Int("files", res.Files), zap.Int("failed", res.Failed))
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Snapshot export triggered."})
	})
}
