package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-training-marketplace/config"
	"go-training-marketplace/internal/delivery/http/middleware"
	"go-training-marketplace/internal/delivery/http/response"
	"go-training-marketplace/internal/domain"
)

type RouterDeps struct {
	MatchUC domain.MatchUsecase
	JobUC   domain.JobUsecase
	Health  gin.HandlerFunc // optional richer health probe
	Config  *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger()) // Use standard Gin logger
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	// Health Check
	if deps.Health != nil {
		v1.GET("/health", deps.Health)
	} else {
		v1.GET("/health", func(c *gin.Context) {
			response.Success(c, http.StatusOK, "System operational", nil)
		})
	}

	NewMatchHandler(v1, deps.MatchUC, deps.Config.MatchPreviewK)
	NewJobHandler(v1, deps.JobUC)

	return r
}
