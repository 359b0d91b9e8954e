package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"paper-birthdays/services"
)

type subscribeRequest struct {
	Email   string `json:"email"`
	PaperID string `json:"paperId"`
}

// redirectResult leitet nach dem Klick im Mail-Client auf die Startseite zurück,
// z.B. "/?verified=success" oder "/?unsubscribed=error&message=...".
func redirectResult(c *gin.Context, siteURL, param string, err error) {
	q := url.Values{}
	if err == nil {
		q.Set(param, "success")
	} else {
		q.Set(param, "error")
		q.Set("message", services.PublicMessage(err))
	}
	c.Redirect(http.StatusFound, siteURL+"/?"+q.Encode())
}

func setupSubscriptionRoutes(router *gin.Engine, h *Handler) {
	rg := router.Group("/api")

	rg.POST("/subscribe-birthday", func(c *gin.Context) {
		var req subscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if _, err := h.Subscriptions.Create(c.Request.Context(), req.Email, req.PaperID); err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Verification email sent! Please check your inbox to confirm your subscription.",
		})
	})

	rg.GET("/verify-email/:token", func(c *gin.Context) {
		_, err := h.Subscriptions.Verify(c.Request.Context(), c.Param("token"))
		redirectResult(c, h.Config.SiteURL, "verified", err)
	})

	rg.GET("/unsubscribe/:token", func(c *gin.Context) {
		_, err := h.Subscriptions.Unsubscribe(c.Request.Context(), c.Param("token"))
		redirectResult(c, h.Config.SiteURL, "unsubscribed", err)
	})
}
