package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mynk/mynk/internal/server/handlers/api"
	"github.com/mynk/mynk/internal/server/handlers/sync"
	"github.com/mynk/mynk/internal/server/middlewares"
	"github.com/mynk/mynk/internal/version"
)

func SetupRoutes(config *Config, svc *Services) (http.Handler, error) {
	r := gin.New()

	syncH := sync.New(svc.Sync)

	r.Use(middlewares.Logger())
	r.Use(gin.Recovery())
	r.Use(middlewares.Secure(config.HTTP.TLS()))
	r.Use(middlewares.GZIP())

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)

	syncGroup := r.Group("/sync")
	if config.RateLimit != "" {
		limit, err := middlewares.RateLimiter(config.RateLimit)
		if err != nil {
			return nil, err
		}
		syncGroup.Use(limit)
	}
	syncGroup.POST("", syncH.Sync)

	r.NoRoute(func(c *gin.Context) {
		api.AbortWithError(c, http.StatusNotFound, api.CodeNotFound, errors.New("not found"))
	})

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		api.AbortWithError(c, http.StatusMethodNotAllowed, api.CodeNotAllowed, errors.New("method not allowed"))
	})

	return r.Handler(), nil
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.DetailedWithApp())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
