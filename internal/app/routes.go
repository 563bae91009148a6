package app

import (
	"net/http"

	"github.com/decode-reader/core/internal/middleware"
	articlemod "github.com/decode-reader/core/internal/modules/article"
	authmod "github.com/decode-reader/core/internal/modules/auth"
	explainmod "github.com/decode-reader/core/internal/modules/explain"
	extractmod "github.com/decode-reader/core/internal/modules/extract"
	pkgredis "github.com/decode-reader/core/internal/pkg/redis"
	"github.com/decode-reader/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(rdb *pkgredis.Client) {
	authMW := middleware.Auth(a.db)
	optionalAuthMW := middleware.OptionalAuth(a.db)
	rateLimitMW := middleware.RateLimit(rdb)

	api := a.router.Group("/api")

	explainSvc := explainmod.NewService(a.cfg.AI, a.logger)
	explainmod.NewHandler(explainSvc, a.logger).RegisterRoutes(api.Group("", optionalAuthMW), rateLimitMW)

	authmod.NewHandler(authmod.NewService(a.db), a.logger).RegisterRoutes(api, authMW)

	articleSvc := articlemod.NewService(a.db, titleSuggester(explainSvc), a.logger)
	articlemod.NewHandler(articleSvc, a.logger).RegisterRoutes(api, authMW)

	extractSvc := extractmod.NewService(aiFallback(explainSvc), a.logger)
	extractmod.NewHandler(extractSvc, a.logger).RegisterRoutes(api)

	a.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	a.router.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})
}

// titleSuggester returns nil when no provider is configured so article saves
// skip the async rename instead of logging a failure every time.
func titleSuggester(svc *explainmod.Service) articlemod.TitleSuggester {
	if !svc.HasProvider() {
		return nil
	}
	return svc
}

func aiFallback(svc *explainmod.Service) extractmod.AIFallback {
	if !svc.HasProvider() {
		return nil
	}
	return svc
}
