package webserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/link-curator/src/api/config"
	"github.com/stake-plus/link-curator/src/shared/store"
)

func attachRoutes(g *gin.Engine, cfg config.Config, channels store.Channels, submissions store.Submissions, ledger store.Ledger) {
	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	chanH := NewChannels(channels, submissions)
	api := g.Group("/api")
	{
		api.GET("/channels", chanH.List)
		api.GET("/channels/:channel/submissions", chanH.Submissions)
	}

	authH := NewAuth(cfg.AdminSecret, []byte(cfg.JWTSecret))
	loginLimiter := NewRateLimiter(5, time.Minute)
	api.POST("/admin/login", RateLimitMiddleware(loginLimiter), authH.Login)

	admin := api.Group("/admin")
	admin.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
	{
		adminH := NewAdmin(channels, submissions, ledger)
		admin.DELETE("/submissions/:id", adminH.DeleteSubmission)
		admin.POST("/channels/:channel/disable", adminH.DisableChannel)
	}
}
